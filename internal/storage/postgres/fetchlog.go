package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type FetchLogStore struct {
	db *sqlx.DB
}

func NewFetchLogStore(db *sqlx.DB) *FetchLogStore {
	return &FetchLogStore{db: db}
}

// Begin opens the fetch log row for one attempt cycle and returns its id.
func (s *FetchLogStore) Begin(ctx context.Context, sourceID string, startedAt time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO fetch_logs (source_id, started_at) VALUES ($1, $2) RETURNING id`,
		sourceID, startedAt,
	).Scan(&id)
	return id, err
}

// Finish records the terminal state of the fetch.
func (s *FetchLogStore) Finish(ctx context.Context, logID int64, ok bool, httpStatus *int, errMsg *string, finishedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE fetch_logs SET finished_at = $2, ok = $3, http_status = $4, error = $5 WHERE id = $1`,
		logID, finishedAt, ok, httpStatus, errMsg,
	)
	return err
}
