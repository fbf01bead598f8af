// Package classify assigns region/category tag sets and a target
// display column to feed items using a data-defined rule table.
package classify

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"feed_ingestor/internal/domain"
)

type compiledRule struct {
	re     *regexp.Regexp
	slug   string
	target domain.RuleTarget
}

// Classifier evaluates every rule pattern against lower-cased item
// text. Matching is a union: all matching rules contribute their slug.
type Classifier struct {
	rules []compiledRule
}

// New compiles the rule table in order. A pattern that does not
// compile is logged and skipped; one bad rule never aborts the rest.
func New(rules []domain.MappingRule, logger *slog.Logger) *Classifier {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			logger.Warn("skipping malformed mapping rule",
				"rule_id", r.ID,
				"pattern", r.Pattern,
				"error", err,
			)
			continue
		}
		compiled = append(compiled, compiledRule{re: re, slug: r.Slug, target: r.Target})
	}
	return &Classifier{rules: compiled}
}

// Tags returns the union of slugs from every rule matching anywhere in
// the text, split by rule target. Duplicate slugs collapse; rule order
// is preserved.
func (c *Classifier) Tags(text string) (regions, categories []string) {
	lowered := strings.ToLower(text)

	seenRegion := make(map[string]struct{})
	seenCategory := make(map[string]struct{})

	for _, r := range c.rules {
		if !r.re.MatchString(lowered) {
			continue
		}
		switch r.target {
		case domain.RuleTargetRegion:
			if _, ok := seenRegion[r.slug]; !ok {
				seenRegion[r.slug] = struct{}{}
				regions = append(regions, r.slug)
			}
		case domain.RuleTargetCategory:
			if _, ok := seenCategory[r.slug]; !ok {
				seenCategory[r.slug] = struct{}{}
				categories = append(categories, r.slug)
			}
		}
	}
	return regions, categories
}

var commentarySegments = map[string]struct{}{
	"opinion":     {},
	"opinions":    {},
	"commentary":  {},
	"editorial":   {},
	"editorials":  {},
	"column":      {},
	"columns":     {},
	"columnist":   {},
	"columnists":  {},
	"perspective": {},
}

var audioSegments = map[string]struct{}{
	"podcast":  {},
	"podcasts": {},
	"audio":    {},
	"listen":   {},
}

var audioTitleRe = regexp.MustCompile(`\b(podcast|audio|listen)\b`)

// Target decides the display column for an item, in fixed priority:
// commentary path segments first, then audio/podcast signals or an
// enclosure, then the source's configured default.
func Target(link, title string, hasEnclosure bool, fallback domain.Target) domain.Target {
	segments := pathSegments(link)

	for _, seg := range segments {
		if _, ok := commentarySegments[seg]; ok {
			return domain.TargetCommentary
		}
	}

	for _, seg := range segments {
		if _, ok := audioSegments[seg]; ok {
			return domain.TargetCurrents
		}
	}
	if hasEnclosure || audioTitleRe.MatchString(strings.ToLower(title)) {
		return domain.TargetCurrents
	}

	if fallback == "" {
		return domain.TargetNews
	}
	return fallback
}

func pathSegments(link string) []string {
	u, err := url.Parse(link)
	if err != nil {
		return nil
	}
	var segments []string
	for _, seg := range strings.Split(strings.ToLower(u.Path), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
