package pipeline

import (
	"context"
	"fmt"

	"newsdigest/internal/domain"
)

// partitionNew splits the fetched articles into the not-yet-seen subset
// (input order preserved) and the full URL list. It is read-only with
// respect to the store; marking seen is the orchestrator's job and
// happens only after confirmed delivery.
func partitionNew(
	ctx context.Context,
	articles []domain.Article,
	store SeenStore,
) ([]domain.Article, []string, error) {
	if len(articles) == 0 {
		return nil, nil, nil
	}

	urls := make([]string, 0, len(articles))
	for _, a := range articles {
		urls = append(urls, a.URL)
	}

	newURLs, err := store.FilterNew(ctx, urls)
	if err != nil {
		return nil, nil, fmt.Errorf("filter new URLs: %w", err)
	}

	newSet := make(map[string]struct{}, len(newURLs))
	for _, u := range newURLs {
		newSet[u] = struct{}{}
	}

	var newArticles []domain.Article
	for _, a := range articles {
		if _, ok := newSet[a.URL]; ok {
			newArticles = append(newArticles, a)
		}
	}

	return newArticles, urls, nil
}
