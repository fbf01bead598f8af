package domain

import "time"

// FeedError is an append-only audit record of one failure event,
// grouped by the run that produced it.
type FeedError struct {
	ID         int64
	SourceID   string
	SourceName string
	RunID      string
	Message    string
	HTTPStatus *int
	Timestamp  time.Time
}

// FetchLog records one fetch attempt cycle for one source.
type FetchLog struct {
	ID         int64      `db:"id"`
	SourceID   string     `db:"source_id"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	OK         *bool      `db:"ok"`
	HTTPStatus *int       `db:"http_status"`
	Error      *string    `db:"error"`
}

// RunStats aggregates the outcome of one end-to-end ingestion run.
type RunStats struct {
	RunID            string
	SourcesProcessed int
	Successful       int
	Failed           int
	RawItemsInserted int
	ArticlesCreated  int
	ArticlesUpdated  int
	Published        int
	Errors           int
	Duration         time.Duration
}
