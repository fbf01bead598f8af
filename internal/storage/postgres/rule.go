package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"feed_ingestor/internal/domain"
)

type RuleStore struct {
	db *sqlx.DB
}

func NewRuleStore(db *sqlx.DB) *RuleStore {
	return &RuleStore{db: db}
}

// ListMappingRules returns the rule table in evaluation order: higher
// weight first, insertion order as tie-break.
func (s *RuleStore) ListMappingRules(ctx context.Context) ([]domain.MappingRule, error) {
	query := `
		SELECT id, pattern, slug, target_enum, weight
		FROM mapping_rules
		ORDER BY weight DESC, id`

	var rules []domain.MappingRule
	err := s.db.SelectContext(ctx, &rules, query)
	return rules, err
}
