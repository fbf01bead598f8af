package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feed_ingestor/internal/domain"
)

type SourceStore struct {
	db *sqlx.DB
}

func NewSourceStore(db *sqlx.DB) *SourceStore {
	return &SourceStore{db: db}
}

func (s *SourceStore) ListActive(ctx context.Context) ([]domain.Source, error) {
	query := `
		SELECT id, name, feed_url, site_url, default_target, tags, is_active, last_seen_at
		FROM sources
		WHERE is_active
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var src domain.Source
		var tags pq.StringArray
		if err := rows.Scan(
			&src.ID,
			&src.Name,
			&src.FeedURL,
			&src.SiteURL,
			&src.DefaultTarget,
			&tags,
			&src.IsActive,
			&src.LastSeenAt,
		); err != nil {
			return nil, err
		}
		src.Tags = tags
		sources = append(sources, src)
	}

	return sources, rows.Err()
}

func (s *SourceStore) UpdateLastSeen(ctx context.Context, sourceID string, seenAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sources SET last_seen_at = $2, updated_at = now() WHERE id = $1`,
		sourceID, seenAt,
	)
	return err
}
