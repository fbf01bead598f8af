package domain

// RuleTarget says which tag set a mapping rule feeds.
type RuleTarget string

const (
	RuleTargetRegion   RuleTarget = "region"
	RuleTargetCategory RuleTarget = "category"
)

// MappingRule is a data-defined pattern-to-tag association. Rules are
// evaluated in order; every matching rule contributes its slug, so one
// item may carry several regions and several categories. Weight is
// stored for future tie-break policies and currently unused.
type MappingRule struct {
	ID      int64      `db:"id"`
	Pattern string     `db:"pattern"`
	Slug    string     `db:"slug"`
	Target  RuleTarget `db:"target_enum"`
	Weight  int        `db:"weight"`
}
