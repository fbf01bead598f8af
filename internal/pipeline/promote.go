package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"feed_ingestor/internal/canonical"
	"feed_ingestor/internal/classify"
	"feed_ingestor/internal/domain"
)

const maxTextLength = 500

var (
	htmlTagRe = regexp.MustCompile(`<[^>]*>`)
	imgSrcRe  = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)
)

// BuildArticle derives a deduplicated article from one staged raw
// item: clean text, canonicalize the link, hash it, classify. It is a
// pure function of its inputs so promotion can be replayed over
// already-captured data and converge to the same article state.
func BuildArticle(item *domain.StagedItem, classifier *classify.Classifier, now time.Time) (*domain.Article, error) {
	var payload domain.FeedItem
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode raw payload: %w", err)
	}

	link := strings.TrimSpace(payload.Link)
	if link == "" {
		return nil, errors.New("raw item has no link")
	}

	canonicalURL := canonical.URL(link)
	urlHash := canonical.Hash(canonicalURL)

	// Source roster tags participate in matching so a rule can key off
	// how the source itself is labelled, not just the item text.
	text := strings.Join(append([]string{payload.Title, payload.Description, link}, item.SourceTags...), " ")
	regions, categories := classifier.Tags(text)
	target := classify.Target(canonicalURL, payload.Title, payload.HasEnclosure, item.DefaultTarget)

	article := &domain.Article{
		SourceID:     item.SourceID,
		Title:        truncate(cleanText(payload.Title), maxTextLength),
		CanonicalURL: canonicalURL,
		URLHash:      urlHash,
		PublishedAt:  parsePubDate(payload.PubDate, now),
		TargetColumn: target,
		Categories:   categories,
		Regions:      regions,
		Status:       domain.StatusReady,
	}

	if article.Title == "" {
		reason := "title unrecoverable after cleaning"
		article.Status = domain.StatusDropped
		article.DroppedReason = &reason
	}

	if host := canonical.Domain(canonicalURL); host != "" {
		article.URLDomain = &host
	}
	if desc := truncate(cleanText(payload.Description), maxTextLength); desc != "" {
		article.Description = &desc
	}
	if author := strings.TrimSpace(payload.Author); author != "" {
		article.Author = &author
	}
	if img := imageURL(payload); img != "" {
		article.ImageURL = &img
	}

	return article, nil
}

// cleanText strips HTML tags and entities and collapses whitespace.
func cleanText(s string) string {
	s = html.UnescapeString(s)
	s = htmlTagRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// imageURL prefers the image carried by the feed item itself, falling
// back to the first img tag inside the raw description HTML.
func imageURL(payload domain.FeedItem) string {
	if payload.ImageURL != "" {
		return payload.ImageURL
	}
	if match := imgSrcRe.FindStringSubmatch(payload.Description); match != nil {
		return match[1]
	}
	return ""
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePubDate(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
