package fetcher

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"newsdigest/internal/domain"
)

var testSource = domain.Source{Name: "Test", Category: "ai"}

func TestNormalizeItemDropsMissingTitleOrLink(t *testing.T) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	if _, ok := normalizeItem(testSource, &gofeed.Item{Link: "https://a.example/1"}, cutoff); ok {
		t.Fatalf("expected item without title to be dropped")
	}

	if _, ok := normalizeItem(testSource, &gofeed.Item{Title: "no link"}, cutoff); ok {
		t.Fatalf("expected item without link to be dropped")
	}
}

func TestNormalizeItemStripsHTMLSummary(t *testing.T) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	item := &gofeed.Item{
		Title:       "t",
		Link:        "https://a.example/1",
		Description: "<p>Hello&nbsp;<b>world</b></p>\n<p>again</p>",
	}

	article, ok := normalizeItem(testSource, item, cutoff)
	if !ok {
		t.Fatalf("expected item to be kept")
	}
	if article.Summary != "Hello world again" {
		t.Fatalf("unexpected summary: %q", article.Summary)
	}
}

func TestNormalizeItemTruncatesLongSummary(t *testing.T) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	item := &gofeed.Item{
		Title:       "t",
		Link:        "https://a.example/1",
		Description: strings.Repeat("x", 2000),
	}

	article, ok := normalizeItem(testSource, item, cutoff)
	if !ok {
		t.Fatalf("expected item to be kept")
	}
	if got := len([]rune(article.Summary)); got > summaryMaxRunes {
		t.Fatalf("expected summary capped at %d runes, got %d", summaryMaxRunes, got)
	}
	if !strings.HasSuffix(article.Summary, "...") {
		t.Fatalf("expected truncated summary to end with ellipsis, got %q", article.Summary)
	}
}

func TestNormalizeItemFallsBackToUpdatedTime(t *testing.T) {
	now := time.Now().UTC()
	cutoff := now.Add(-24 * time.Hour)
	updated := now.Add(-time.Hour)

	item := &gofeed.Item{
		Title:         "t",
		Link:          "https://a.example/1",
		UpdatedParsed: &updated,
	}

	article, ok := normalizeItem(testSource, item, cutoff)
	if !ok {
		t.Fatalf("expected item to be kept")
	}
	if !article.Published.Equal(updated) {
		t.Fatalf("expected published %v, got %v", updated, article.Published)
	}
}
