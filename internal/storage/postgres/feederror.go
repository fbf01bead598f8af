package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"feed_ingestor/internal/domain"
)

type FeedErrorStore struct {
	db *sqlx.DB
}

func NewFeedErrorStore(db *sqlx.DB) *FeedErrorStore {
	return &FeedErrorStore{db: db}
}

// Insert appends one failure event. Feed errors are never updated.
func (s *FeedErrorStore) Insert(ctx context.Context, fe *domain.FeedError) error {
	query := `
		INSERT INTO feed_errors (source_id, source_name, run_id, error_message, http_status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return s.db.QueryRowContext(ctx, query,
		fe.SourceID,
		fe.SourceName,
		fe.RunID,
		fe.Message,
		fe.HTTPStatus,
		fe.Timestamp,
	).Scan(&fe.ID)
}
