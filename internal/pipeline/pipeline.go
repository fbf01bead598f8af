package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"feed_ingestor/internal/classify"
	"feed_ingestor/internal/domain"
	"feed_ingestor/internal/feed"
)

// Config bounds one ingestion run. BatchSize caps peak concurrent
// outbound connections; PromotionWindow bounds how far back the
// promotion phase reads raw items.
type Config struct {
	BatchSize       int
	PromotionWindow time.Duration
}

// Pipeline drives one ingestion run: fetch active sources in batches,
// stage parsed items verbatim, then promote recent raw items into
// deduplicated articles. A failing source never fails the run; only an
// unreadable source roster does.
type Pipeline struct {
	fetcher   Fetcher
	sources   SourceStore
	rules     RuleStore
	rawItems  RawItemStore
	articles  ArticleStore
	feedErrs  FeedErrorStore
	fetchLogs FetchLogStore
	publisher Publisher
	logger    *slog.Logger
	config    Config
}

func New(
	fetcher Fetcher,
	sources SourceStore,
	rules RuleStore,
	rawItems RawItemStore,
	articles ArticleStore,
	feedErrs FeedErrorStore,
	fetchLogs FetchLogStore,
	publisher Publisher,
	logger *slog.Logger,
	cfg Config,
) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		sources:   sources,
		rules:     rules,
		rawItems:  rawItems,
		articles:  articles,
		feedErrs:  feedErrs,
		fetchLogs: fetchLogs,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
	}
}

// Run executes one end-to-end ingestion pass and reports aggregate
// counts. It is safe to invoke repeatedly; each call processes current
// state.
func (p *Pipeline) Run(ctx context.Context) (*domain.RunStats, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	sources, err := p.sources.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}

	stats := &domain.RunStats{
		RunID:            runID,
		SourcesProcessed: len(sources),
	}

	logger.Info("starting ingestion run",
		"sources", len(sources),
		"batch_size", p.config.BatchSize,
	)

	for i := 0; i < len(sources); i += p.config.BatchSize {
		end := min(i+p.config.BatchSize, len(sources))
		p.runBatch(ctx, runID, sources[i:end], stats, logger)
	}

	p.promote(ctx, stats, logger)

	stats.Duration = time.Since(start)
	logger.Info("ingestion run complete",
		"successful", stats.Successful,
		"failed", stats.Failed,
		"raw_items_inserted", stats.RawItemsInserted,
		"articles_created", stats.ArticlesCreated,
		"articles_updated", stats.ArticlesUpdated,
		"published", stats.Published,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

type sourceResult struct {
	ok       bool
	inserted int
}

// runBatch fetches every source of the batch concurrently, then folds
// the per-source results into the aggregate counters on the calling
// goroutine only.
func (p *Pipeline) runBatch(ctx context.Context, runID string, batch []domain.Source, stats *domain.RunStats, logger *slog.Logger) {
	results := make(chan sourceResult, len(batch))

	var wg sync.WaitGroup
	for _, src := range batch {
		wg.Add(1)
		go func(src domain.Source) {
			defer wg.Done()
			results <- p.processSource(ctx, runID, src, logger)
		}(src)
	}
	wg.Wait()
	close(results)

	for res := range results {
		if res.ok {
			stats.Successful++
		} else {
			stats.Failed++
		}
		stats.RawItemsInserted += res.inserted
	}
}

// processSource runs fetch -> parse -> stage for one source. Every
// outcome finishes exactly one fetch log row; failures additionally
// append one feed error keyed by the run.
func (p *Pipeline) processSource(ctx context.Context, runID string, src domain.Source, logger *slog.Logger) sourceResult {
	log := logger.With("source", src.Name, "source_id", src.ID)

	logID, err := p.fetchLogs.Begin(ctx, src.ID, time.Now().UTC())
	if err != nil {
		log.Error("begin fetch log", "error", err)
	}

	res, err := p.fetcher.Fetch(ctx, src.FeedURL)
	if err != nil {
		p.recordFailure(ctx, runID, src, logID, statusOf(err), err, log)
		return sourceResult{}
	}

	items, err := feed.Parse(res.Body)
	if err == nil && len(items) == 0 {
		err = errors.New("feed contains no recognizable items")
	}
	if err != nil {
		p.recordFailure(ctx, runID, src, logID, &res.Status, err, log)
		return sourceResult{}
	}

	fetchedAt := time.Now().UTC()
	inserted := 0
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			log.Error("encode raw item", "link", item.Link, "error", err)
			continue
		}
		raw := &domain.RawItem{
			SourceID:  src.ID,
			FetchedAt: fetchedAt,
			Payload:   payload,
		}
		if err := p.rawItems.Insert(ctx, raw); err != nil {
			log.Error("insert raw item", "link", item.Link, "error", err)
			continue
		}
		inserted++
	}

	if err := p.sources.UpdateLastSeen(ctx, src.ID, fetchedAt); err != nil {
		log.Error("update source last_seen_at", "error", err)
	}
	p.finishFetchLog(ctx, logID, true, &res.Status, nil, log)

	log.Debug("staged feed items", "parsed", len(items), "inserted", inserted)
	return sourceResult{ok: true, inserted: inserted}
}

// promote reads raw items captured inside the promotion window and
// upserts them into the article table keyed by url_hash. Re-running it
// over the same raw items converges to the same article state.
func (p *Pipeline) promote(ctx context.Context, stats *domain.RunStats, logger *slog.Logger) {
	rules, err := p.rules.ListMappingRules(ctx)
	if err != nil {
		logger.Error("list mapping rules, proceeding with empty rule set", "error", err)
		rules = nil
	}
	classifier := classify.New(rules, logger)

	staged, err := p.rawItems.ListSince(ctx, time.Now().UTC().Add(-p.config.PromotionWindow))
	if err != nil {
		logger.Error("list raw items for promotion", "error", err)
		return
	}

	logger.Info("promoting raw items", "count", len(staged))

	for i := range staged {
		item := &staged[i]

		article, err := BuildArticle(item, classifier, time.Now().UTC())
		if err != nil {
			logger.Warn("skipping unpromotable raw item", "raw_item_id", item.ID, "error", err)
			stats.Errors++
			continue
		}

		created, err := p.articles.Upsert(ctx, article)
		if err != nil {
			logger.Error("upsert article", "url_hash", article.URLHash, "error", err)
			stats.Errors++
			continue
		}
		if created {
			stats.ArticlesCreated++
		} else {
			stats.ArticlesUpdated++
		}

		if p.publisher != nil {
			if err := p.publisher.Publish(ctx, article, created); err != nil {
				logger.Error("publish article event", "url_hash", article.URLHash, "error", err)
				stats.Errors++
			} else {
				stats.Published++
			}
		}
	}
}

func (p *Pipeline) recordFailure(ctx context.Context, runID string, src domain.Source, logID int64, httpStatus *int, failure error, log *slog.Logger) {
	msg := failure.Error()
	log.Warn("source failed", "error", msg)

	if err := p.feedErrs.Insert(ctx, &domain.FeedError{
		SourceID:   src.ID,
		SourceName: src.Name,
		RunID:      runID,
		Message:    msg,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now().UTC(),
	}); err != nil {
		log.Error("insert feed error", "error", err)
	}

	p.finishFetchLog(ctx, logID, false, httpStatus, &msg, log)
}

func (p *Pipeline) finishFetchLog(ctx context.Context, logID int64, ok bool, httpStatus *int, errMsg *string, log *slog.Logger) {
	if logID == 0 {
		return
	}
	if err := p.fetchLogs.Finish(ctx, logID, ok, httpStatus, errMsg, time.Now().UTC()); err != nil {
		log.Error("finish fetch log", "error", err)
	}
}

func statusOf(err error) *int {
	var fe *feed.FetchError
	if errors.As(err, &fe) && fe.Status != 0 {
		status := fe.Status
		return &status
	}
	return nil
}
