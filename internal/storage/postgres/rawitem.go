package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feed_ingestor/internal/domain"
)

type RawItemStore struct {
	db *sqlx.DB
}

func NewRawItemStore(db *sqlx.DB) *RawItemStore {
	return &RawItemStore{db: db}
}

// Insert appends one captured feed item. Raw items are never updated.
func (s *RawItemStore) Insert(ctx context.Context, item *domain.RawItem) error {
	query := `
		INSERT INTO raw_items (source_id, fetched_at, item_json)
		VALUES ($1, $2, $3)
		RETURNING id`

	return s.db.QueryRowContext(ctx, query,
		item.SourceID,
		item.FetchedAt,
		[]byte(item.Payload),
	).Scan(&item.ID)
}

// ListSince returns raw items captured at or after the given time,
// joined with the source fields promotion needs.
func (s *RawItemStore) ListSince(ctx context.Context, since time.Time) ([]domain.StagedItem, error) {
	query := `
		SELECT r.id, r.source_id, r.fetched_at, r.item_json,
		       s.name, s.default_target, s.tags
		FROM raw_items r
		JOIN sources s ON s.id = r.source_id
		WHERE r.fetched_at >= $1
		ORDER BY r.id`

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.StagedItem
	for rows.Next() {
		var it domain.StagedItem
		var payload []byte
		var tags pq.StringArray
		if err := rows.Scan(
			&it.ID,
			&it.SourceID,
			&it.FetchedAt,
			&payload,
			&it.SourceName,
			&it.DefaultTarget,
			&tags,
		); err != nil {
			return nil, err
		}
		it.Payload = payload
		it.SourceTags = tags
		items = append(items, it)
	}

	return items, rows.Err()
}
