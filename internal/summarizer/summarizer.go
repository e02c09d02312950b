package summarizer

import (
	"context"

	"newsdigest/internal/domain"
)

// Summarizer reduces a batch of articles to a ranked, translated digest.
type Summarizer interface {
	Summarize(ctx context.Context, articles []domain.Article) ([]domain.DigestItem, error)
}

// Registry maps provider identifiers to implementations. Adding a
// provider means registering it here; the pipeline never dispatches on
// provider names itself.
type Registry struct {
	providers map[string]Summarizer
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Summarizer)}
}

func (r *Registry) Register(id string, s Summarizer) {
	r.providers[id] = s
}

func (r *Registry) Lookup(id string) (Summarizer, bool) {
	s, ok := r.providers[id]

	return s, ok
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}

	return ids
}
