// Package render turns a digest into the text bodies the delivery
// channels push: Markdown for chat channels, HTML for email.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"newsdigest/internal/domain"
)

const unknownSectionRank = 99

// DefaultSections is the section-priority table of the rendered digest.
// The order is an explicit total order; unknown sections sort last under
// a generated label.
var DefaultSections = []domain.Section{
	{ID: "ai_dev", Label: "🤖 AI 开发实用", Rank: 1},
	{ID: "x_timeline", Label: "🐦 X/Twitter 动态", Rank: 2},
	{ID: "gamedev_ai", Label: "🎮 游戏开发 AI", Rank: 3},
	{ID: "politics", Label: "🏛️ 时事政治", Rank: 4},
	{ID: "finance", Label: "💰 重要财经", Rank: 5},
}

type Renderer struct {
	sections map[string]domain.Section
}

func New(sections []domain.Section) *Renderer {
	m := make(map[string]domain.Section, len(sections))
	for _, s := range sections {
		m[s.ID] = s
	}

	return &Renderer{sections: m}
}

// Group is one section of the digest with its items in display order.
type Group struct {
	Section domain.Section
	Items   []domain.DigestItem
}

// Groups partitions the digest into section groups ordered by section
// rank, with items ordered by importance descending inside each group.
func (r *Renderer) Groups(digest []domain.DigestItem) []Group {
	bySection := make(map[string][]domain.DigestItem)
	for _, item := range digest {
		bySection[item.Section] = append(bySection[item.Section], item)
	}

	groups := make([]Group, 0, len(bySection))
	for id, items := range bySection {
		section, ok := r.sections[id]
		if !ok {
			section = domain.Section{
				ID:    id,
				Label: "📌 " + id,
				Rank:  unknownSectionRank,
			}
		}

		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Importance > items[j].Importance
		})

		groups = append(groups, Group{Section: section, Items: items})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Section.Rank != groups[j].Section.Rank {
			return groups[i].Section.Rank < groups[j].Section.Rank
		}

		return groups[i].Section.ID < groups[j].Section.ID
	})

	return groups
}

// Title is the digest headline shared by all channels.
func Title() string {
	return fmt.Sprintf("📰 AI News Digest — %s", time.Now().UTC().Format("2006-01-02"))
}

// Markdown renders the digest grouped by section.
func (r *Renderer) Markdown(digest []domain.DigestItem) string {
	var b strings.Builder

	b.WriteString("# " + Title() + "\n\n")

	for _, g := range r.Groups(digest) {
		fmt.Fprintf(&b, "## %s\n\n", g.Section.Label)

		for i, item := range g.Items {
			fmt.Fprintf(&b, "### %d. %s\n", i+1, item.Title)
			fmt.Fprintf(&b, "⭐ %d/10\n\n", item.Importance)
			fmt.Fprintf(&b, "%s\n\n", item.Summary)
			fmt.Fprintf(&b, "🔗 [阅读原文](%s)\n\n", item.SourceURL)
		}

		b.WriteString("---\n\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// HTML renders the digest for email delivery.
func (r *Renderer) HTML(digest []domain.DigestItem) string {
	var b strings.Builder

	b.WriteString("<html><body style='font-family:sans-serif;max-width:700px;margin:auto'>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", Title())

	for _, g := range r.Groups(digest) {
		fmt.Fprintf(&b, "<h2>%s</h2>\n", g.Section.Label)

		for i, item := range g.Items {
			fmt.Fprintf(&b, "<h3>%d. %s</h3>\n", i+1, item.Title)
			fmt.Fprintf(&b, "<p><strong>⭐ %d/10</strong></p>\n", item.Importance)
			fmt.Fprintf(&b, "<p>%s</p>\n", item.Summary)
			fmt.Fprintf(&b, "<p>🔗 <a href=%q>阅读原文</a></p>\n", item.SourceURL)
		}

		b.WriteString("<hr/>\n")
	}

	b.WriteString("</body></html>")

	return b.String()
}
