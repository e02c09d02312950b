package summarizer

import (
	"fmt"
	"strings"

	"newsdigest/internal/domain"
)

const articleSummaryMaxRunes = 300

func systemPrompt(lang string, maxItems int, sections []domain.Section) string {
	var sectionIDs []string
	for _, s := range sections {
		sectionIDs = append(sectionIDs, s.ID)
	}

	return fmt.Sprintf(`You are a professional news editor. From a batch of
articles, select the most important ones and produce a digest in %s.

Rules:
1. Select at most %d articles: major AI breakthroughs, AI policy, big-tech
   moves, significant geopolitical events. Drop ads, PR pieces and
   duplicates.
2. For each selected article output:
   - section: one of %s
   - title: a concise headline in %s
   - summary: 3-5 sentences in %s covering the core information
   - importance: an integer from 1 to 10
   - url: the original article URL, unchanged
3. Sort by importance descending.
4. Output strictly a JSON array with no surrounding text.

Example output:
[
  {"section": "ai_dev", "title": "...", "summary": "...", "importance": 9, "url": "https://..."}
]`,
		lang,
		maxItems,
		strings.Join(sectionIDs, " / "),
		lang,
		lang,
	)
}

func userPrompt(articles []domain.Article, maxItems int) string {
	var b strings.Builder

	fmt.Fprintf(&b,
		"Here are %d articles collected today. Select the most important (at most %d) and produce the digest:\n\n",
		len(articles),
		maxItems,
	)

	for i, a := range articles {
		summary := a.Summary
		if runes := []rune(summary); len(runes) > articleSummaryMaxRunes {
			summary = string(runes[:articleSummaryMaxRunes])
		}

		fmt.Fprintf(&b, "[%d] Title: %s\n", i+1, a.Title)
		fmt.Fprintf(&b, "    Source: %s | Category: %s\n", a.Source, a.Category)
		fmt.Fprintf(&b, "    Summary: %s\n", summary)
		if shared := a.Extra["shared_urls"]; shared != "" {
			fmt.Fprintf(&b, "    Shared links: %s\n", shared)
		}
		fmt.Fprintf(&b, "    URL: %s\n\n", a.URL)
	}

	return b.String()
}
