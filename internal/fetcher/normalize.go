package fetcher

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"newsdigest/internal/domain"
)

const summaryMaxRunes = 500

// normalizeItem converts one feed entry into an Article. Entries missing
// a title or link are dropped; entries older than the cutoff are dropped;
// entries with unknown publish time are kept.
func normalizeItem(
	src domain.Source,
	item *gofeed.Item,
	cutoff time.Time,
) (domain.Article, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return domain.Article{}, false
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	}

	if !published.IsZero() && published.Before(cutoff) {
		return domain.Article{}, false
	}

	summary := truncateSummary(stripHTML(item.Description))
	if summary == "" {
		summary = truncateSummary(stripHTML(item.Content))
	}

	return domain.Article{
		Title:     title,
		URL:       link,
		Summary:   summary,
		Source:    src.Name,
		Category:  src.Category,
		Published: published,
	}, true
}

// stripHTML reduces a feed summary, which is frequently an HTML fragment,
// to collapsed plain text.
func stripHTML(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if !strings.ContainsAny(raw, "<&") {
		return strings.Join(strings.Fields(raw), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncateSummary(summary string) string {
	runes := []rune(summary)
	if len(runes) <= summaryMaxRunes {
		return summary
	}

	return strings.TrimSpace(string(runes[:summaryMaxRunes-3])) + "..."
}
