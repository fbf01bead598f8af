package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feed_ingestor/internal/domain"
)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Upsert inserts the article or, if one already exists for the same
// url_hash, refreshes every derived field and bumps updated_at. The
// hash and created_at never change after the first sighting. Returns
// whether a new row was created.
func (s *ArticleStore) Upsert(ctx context.Context, article *domain.Article) (bool, error) {
	query := `
		INSERT INTO articles (
			source_id, title, canonical_url, url_hash, url_domain, description,
			author, image_url, published_at, target_column, categories, regions,
			status, dropped_reason
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (url_hash) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			title = EXCLUDED.title,
			canonical_url = EXCLUDED.canonical_url,
			url_domain = EXCLUDED.url_domain,
			description = EXCLUDED.description,
			author = EXCLUDED.author,
			image_url = EXCLUDED.image_url,
			published_at = EXCLUDED.published_at,
			target_column = EXCLUDED.target_column,
			categories = EXCLUDED.categories,
			regions = EXCLUDED.regions,
			status = EXCLUDED.status,
			dropped_reason = EXCLUDED.dropped_reason,
			updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0) AS created`

	var created bool
	err := s.db.QueryRowContext(ctx, query,
		article.SourceID,
		article.Title,
		article.CanonicalURL,
		article.URLHash,
		article.URLDomain,
		article.Description,
		article.Author,
		article.ImageURL,
		article.PublishedAt,
		article.TargetColumn,
		pq.Array(article.Categories),
		pq.Array(article.Regions),
		article.Status,
		article.DroppedReason,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt, &created)
	if err != nil {
		return false, err
	}

	return created, nil
}

// ListReady serves the read side: ready articles, newest first,
// optionally filtered by target column.
func (s *ArticleStore) ListReady(ctx context.Context, target domain.Target, limit uint64) ([]domain.Article, error) {
	builder := sq.Select(
		"id", "source_id", "title", "canonical_url", "url_hash", "url_domain",
		"description", "author", "image_url", "published_at", "target_column",
		"categories", "regions", "status", "dropped_reason", "created_at", "updated_at",
	).
		From("articles").
		Where(sq.Eq{"status": domain.StatusReady}).
		OrderBy("published_at DESC").
		PlaceholderFormat(sq.Dollar)

	if target != "" {
		builder = builder.Where(sq.Eq{"target_column": target})
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		var categories, regions pq.StringArray
		if err := rows.Scan(
			&a.ID,
			&a.SourceID,
			&a.Title,
			&a.CanonicalURL,
			&a.URLHash,
			&a.URLDomain,
			&a.Description,
			&a.Author,
			&a.ImageURL,
			&a.PublishedAt,
			&a.TargetColumn,
			&categories,
			&regions,
			&a.Status,
			&a.DroppedReason,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.Categories = categories
		a.Regions = regions
		articles = append(articles, a)
	}

	return articles, rows.Err()
}
