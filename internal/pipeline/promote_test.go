package pipeline

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed_ingestor/internal/classify"
	"feed_ingestor/internal/domain"
)

func testClassifier() *classify.Classifier {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return classify.New([]domain.MappingRule{
		{ID: 1, Pattern: `\balberta\b`, Slug: "alberta", Target: domain.RuleTargetRegion},
		{ID: 2, Pattern: `\belection\b`, Slug: "politics", Target: domain.RuleTargetCategory},
	}, logger)
}

func stagedItem(t *testing.T, payload domain.FeedItem) *domain.StagedItem {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &domain.StagedItem{
		RawItem: domain.RawItem{
			ID:        1,
			SourceID:  "src-1",
			FetchedAt: time.Now().UTC(),
			Payload:   data,
		},
		SourceName:    "Test Source",
		DefaultTarget: domain.TargetNews,
	}
}

func TestBuildArticle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	item := stagedItem(t, domain.FeedItem{
		Title:       "Alberta election called",
		Link:        "https://Example.com/story/?utm_source=feed",
		Description: "<p>The premier announced a vote &amp; more</p>",
		PubDate:     "Wed, 01 May 2024 10:00:00 +0000",
		Author:      "Jane Writer",
	})

	article, err := BuildArticle(item, testClassifier(), now)
	require.NoError(t, err)

	assert.Equal(t, "src-1", article.SourceID)
	assert.Equal(t, "Alberta election called", article.Title)
	assert.Equal(t, "https://example.com/story", article.CanonicalURL)
	assert.Len(t, article.URLHash, 64)
	require.NotNil(t, article.URLDomain)
	assert.Equal(t, "example.com", *article.URLDomain)
	require.NotNil(t, article.Description)
	assert.Equal(t, "The premier announced a vote & more", *article.Description)
	require.NotNil(t, article.Author)
	assert.Equal(t, "Jane Writer", *article.Author)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), article.PublishedAt)
	assert.Equal(t, domain.TargetNews, article.TargetColumn)
	assert.Equal(t, []string{"alberta"}, article.Regions)
	assert.Equal(t, []string{"politics"}, article.Categories)
	assert.Equal(t, domain.StatusReady, article.Status)
	assert.Nil(t, article.DroppedReason)
}

func TestBuildArticle_Deterministic(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	item := stagedItem(t, domain.FeedItem{
		Title:   "Same story",
		Link:    "https://example.com/story?utm_medium=rss",
		PubDate: "Wed, 01 May 2024 10:00:00 +0000",
	})

	first, err := BuildArticle(item, testClassifier(), now)
	require.NoError(t, err)
	second, err := BuildArticle(item, testClassifier(), now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildArticle_TrackingVariantsShareHash(t *testing.T) {
	now := time.Now().UTC()
	a := stagedItem(t, domain.FeedItem{Title: "Story", Link: "https://x.ca/story?utm_source=y"})
	b := stagedItem(t, domain.FeedItem{Title: "Story", Link: "https://x.ca/story"})

	first, err := BuildArticle(a, testClassifier(), now)
	require.NoError(t, err)
	second, err := BuildArticle(b, testClassifier(), now)
	require.NoError(t, err)

	assert.Equal(t, first.URLHash, second.URLHash)
}

func TestBuildArticle_MissingLink(t *testing.T) {
	item := stagedItem(t, domain.FeedItem{Title: "No link"})
	_, err := BuildArticle(item, testClassifier(), time.Now().UTC())
	assert.Error(t, err)
}

func TestBuildArticle_TitleUnrecoverable(t *testing.T) {
	item := stagedItem(t, domain.FeedItem{
		Title: "<div><span></span></div>",
		Link:  "https://example.com/empty-title",
	})

	article, err := BuildArticle(item, testClassifier(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDropped, article.Status)
	require.NotNil(t, article.DroppedReason)
}

func TestBuildArticle_TruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", 800)
	item := stagedItem(t, domain.FeedItem{
		Title:       long,
		Link:        "https://example.com/long",
		Description: long,
	})

	article, err := BuildArticle(item, testClassifier(), time.Now().UTC())
	require.NoError(t, err)
	assert.Len(t, article.Title, 500)
	require.NotNil(t, article.Description)
	assert.Len(t, *article.Description, 500)
}

func TestBuildArticle_ImageFromDescription(t *testing.T) {
	item := stagedItem(t, domain.FeedItem{
		Title:       "With image",
		Link:        "https://example.com/with-image",
		Description: `<p>text</p><img class="hero" src="https://example.com/hero.jpg" alt=""/>`,
	})

	article, err := BuildArticle(item, testClassifier(), time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, article.ImageURL)
	assert.Equal(t, "https://example.com/hero.jpg", *article.ImageURL)
}

func TestBuildArticle_EnclosureRoutesToCurrents(t *testing.T) {
	item := stagedItem(t, domain.FeedItem{
		Title:        "Episode 4",
		Link:         "https://example.com/shows/episode-4",
		HasEnclosure: true,
	})

	article, err := BuildArticle(item, testClassifier(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, domain.TargetCurrents, article.TargetColumn)
}

func TestBuildArticle_UnparseablePubDateFallsBack(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	item := stagedItem(t, domain.FeedItem{
		Title:   "Bad date",
		Link:    "https://example.com/bad-date",
		PubDate: "sometime last week",
	})

	article, err := BuildArticle(item, testClassifier(), now)
	require.NoError(t, err)
	assert.Equal(t, now, article.PublishedAt)
}

func TestBuildArticle_SourceTagsParticipateInMatching(t *testing.T) {
	item := stagedItem(t, domain.FeedItem{
		Title: "Morning roundup",
		Link:  "https://example.com/roundup",
	})
	item.SourceTags = []string{"alberta"}

	article, err := BuildArticle(item, testClassifier(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, []string{"alberta"}, article.Regions)
}

func TestBuildArticle_BadPayload(t *testing.T) {
	item := &domain.StagedItem{
		RawItem: domain.RawItem{ID: 1, SourceID: "src-1", Payload: []byte("{not json")},
	}
	_, err := BuildArticle(item, testClassifier(), time.Now().UTC())
	assert.Error(t, err)
}
