package pipeline

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"feed_ingestor/internal/domain"
	"feed_ingestor/internal/feed"
)

type SourceStore interface {
	ListActive(ctx context.Context) ([]domain.Source, error)
	UpdateLastSeen(ctx context.Context, sourceID string, seenAt time.Time) error
}

type RuleStore interface {
	ListMappingRules(ctx context.Context) ([]domain.MappingRule, error)
}

type RawItemStore interface {
	Insert(ctx context.Context, item *domain.RawItem) error
	ListSince(ctx context.Context, since time.Time) ([]domain.StagedItem, error)
}

type ArticleStore interface {
	Upsert(ctx context.Context, article *domain.Article) (created bool, err error)
}

type FeedErrorStore interface {
	Insert(ctx context.Context, fe *domain.FeedError) error
}

type FetchLogStore interface {
	Begin(ctx context.Context, sourceID string, startedAt time.Time) (int64, error)
	Finish(ctx context.Context, logID int64, ok bool, httpStatus *int, errMsg *string, finishedAt time.Time) error
}

type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (*feed.Result, error)
}

type Publisher interface {
	Publish(ctx context.Context, article *domain.Article, isNew bool) error
	Close() error
}
