package summarizer

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"newsdigest/internal/domain"
)

const (
	importanceMin = 1
	importanceMax = 10
)

// parseDigest extracts the JSON array from a model response and converts
// it into validated digest items. Items missing required fields are
// dropped rather than propagated downstream.
func parseDigest(text string) ([]domain.DigestItem, error) {
	text = stripCodeFences(strings.TrimSpace(text))

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, errors.New("no JSON array in response")
	}

	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return nil, errors.New("response array is not valid JSON")
	}

	var items []domain.DigestItem
	for _, entry := range gjson.Parse(raw).Array() {
		item, ok := parseItem(entry)
		if !ok {
			continue
		}

		items = append(items, item)
	}

	return items, nil
}

func parseItem(entry gjson.Result) (domain.DigestItem, bool) {
	title := strings.TrimSpace(entry.Get("title").String())
	summary := strings.TrimSpace(entry.Get("summary").String())
	sourceURL := strings.TrimSpace(entry.Get("url").String())
	section := strings.TrimSpace(entry.Get("section").String())

	if title == "" || summary == "" || sourceURL == "" {
		return domain.DigestItem{}, false
	}

	if section == "" {
		section = "other"
	}

	importance := int(entry.Get("importance").Int())
	if importance < importanceMin {
		importance = importanceMin
	}
	if importance > importanceMax {
		importance = importanceMax
	}

	return domain.DigestItem{
		Section:    section,
		Title:      title,
		Summary:    summary,
		Importance: importance,
		SourceURL:  sourceURL,
	}, true
}

func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
