package render

import (
	"strings"
	"testing"

	"newsdigest/internal/domain"
)

func TestGroupBySectionOrdering(t *testing.T) {
	r := New(DefaultSections)

	digest := []domain.DigestItem{
		{Section: "politics", Title: "P1", Summary: "s", Importance: 3, SourceURL: "https://p.example/1"},
		{Section: "mystery", Title: "M1", Summary: "s", Importance: 10, SourceURL: "https://m.example/1"},
		{Section: "ai_dev", Title: "A-low", Summary: "s", Importance: 2, SourceURL: "https://a.example/1"},
		{Section: "ai_dev", Title: "A-high", Summary: "s", Importance: 8, SourceURL: "https://a.example/2"},
	}

	groups := r.Groups(digest)

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Section.ID != "ai_dev" || groups[1].Section.ID != "politics" {
		t.Fatalf("unexpected section order: %q, %q", groups[0].Section.ID, groups[1].Section.ID)
	}
	if groups[2].Section.ID != "mystery" || groups[2].Section.Rank != unknownSectionRank {
		t.Fatalf("expected unknown section to sort last, got %+v", groups[2].Section)
	}

	aiItems := groups[0].Items
	if aiItems[0].Title != "A-high" || aiItems[1].Title != "A-low" {
		t.Fatalf("expected importance-descending order, got %q then %q",
			aiItems[0].Title, aiItems[1].Title)
	}
}

func TestMarkdownContainsSectionsAndLinks(t *testing.T) {
	r := New(DefaultSections)

	digest := []domain.DigestItem{
		{Section: "ai_dev", Title: "Big release", Summary: "Details.", Importance: 9, SourceURL: "https://a.example/1"},
	}

	md := r.Markdown(digest)

	if !strings.Contains(md, "## 🤖 AI 开发实用") {
		t.Fatalf("expected section label in markdown, got:\n%s", md)
	}
	if !strings.Contains(md, "Big release") || !strings.Contains(md, "(https://a.example/1)") {
		t.Fatalf("expected title and link in markdown, got:\n%s", md)
	}
	if !strings.Contains(md, "⭐ 9/10") {
		t.Fatalf("expected importance marker, got:\n%s", md)
	}
}

func TestHTMLRendersCompleteDocument(t *testing.T) {
	r := New(DefaultSections)

	digest := []domain.DigestItem{
		{Section: "finance", Title: "T", Summary: "S", Importance: 5, SourceURL: "https://f.example/1"},
	}

	html := r.HTML(digest)

	if !strings.Contains(html, `<a href="https://f.example/1">`) {
		t.Fatalf("expected quoted href, got:\n%s", html)
	}
	if !strings.HasPrefix(html, "<html>") || !strings.HasSuffix(html, "</html>") {
		t.Fatalf("expected a complete HTML document")
	}
}
