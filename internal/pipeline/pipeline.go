// Package pipeline sequences one end-to-end run: fetch, dedup, summarize,
// deliver, and commit. The orchestrator is the sole writer of seen-state
// and commits it only after every requested channel confirmed delivery.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/summarizer"
)

// ErrDeliveryIncomplete reports that at least one channel failed. The
// batch is not committed, so the next run refetches and redelivers it
// (duplicate over lost, by the at-least-once contract).
var ErrDeliveryIncomplete = errors.New("delivery incomplete, batch not committed")

// SeenStore is the durable idempotency store the run commits into.
type SeenStore interface {
	FilterNew(ctx context.Context, urls []string) ([]string, error)
	MarkSeen(ctx context.Context, urls []string) error
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// FeedFetcher retrieves articles from the static source catalog.
type FeedFetcher interface {
	FetchAll(ctx context.Context, sources []domain.Source) []domain.Article
}

// TimelineFetcher retrieves articles from followed social accounts.
type TimelineFetcher interface {
	FetchAll(ctx context.Context) []domain.Article
}

// Deliverer fans a digest out to the requested channels.
type Deliverer interface {
	Deliver(
		ctx context.Context,
		digest []domain.DigestItem,
		channelIDs []string,
	) (map[string]bool, bool)
}

// Deps wires every collaborator into the orchestrator. Timeline may be
// nil when social ingestion is not configured.
type Deps struct {
	Sources     []domain.Source
	Fetcher     FeedFetcher
	Timeline    TimelineFetcher
	Store       SeenStore
	Summarizers *summarizer.Registry
	Fanout      Deliverer
	Log         *slog.Logger
}

// Options fixes one run's behavior after CLI overrides were applied.
type Options struct {
	Provider  string
	Channels  []string
	Retention time.Duration
	DryRun    bool
}

type Pipeline struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Pipeline {
	return &Pipeline{deps: deps, opts: opts}
}

// Run executes a single pass. It never retries internally; re-invoking
// the process is safe because nothing is committed on failure.
func (p *Pipeline) Run(ctx context.Context) error {
	log := p.deps.Log
	start := time.Now()

	articles := p.deps.Fetcher.FetchAll(ctx, p.deps.Sources)
	if p.deps.Timeline != nil {
		articles = append(articles, p.deps.Timeline.FetchAll(ctx)...)
	}

	if len(articles) == 0 {
		log.WarnContext(ctx, "No articles fetched, run ends")

		return nil
	}

	// Retention runs before filtering so it never rejects fresh data
	// mid-run.
	if _, err := p.deps.Store.Cleanup(ctx, p.opts.Retention); err != nil {
		return fmt.Errorf("cleanup store: %w", err)
	}

	newArticles, _, err := partitionNew(ctx, articles, p.deps.Store)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "Dedup completed",
		"fetched", len(articles),
		"new", len(newArticles))

	if len(newArticles) == 0 {
		log.InfoContext(ctx, "All articles already processed, run ends")

		return nil
	}

	if p.opts.DryRun {
		return p.dryRun(ctx, newArticles)
	}

	digest := p.summarize(ctx, newArticles)
	if len(digest) == 0 {
		// The batch stays uncommitted and will be re-summarized next
		// run; a persistently failing producer shows up here as a
		// repeating warn with the same counts.
		log.WarnContext(ctx, "Producer returned empty digest, run ends without delivery",
			"new", len(newArticles),
			"digested", 0)

		return nil
	}

	results, allOK := p.deps.Fanout.Deliver(ctx, digest, p.opts.Channels)

	log.InfoContext(ctx, "Delivery completed",
		"fetched", len(articles),
		"new", len(newArticles),
		"digested", len(digest),
		"delivered", results,
		"allOK", allOK)

	if !allOK {
		log.ErrorContext(ctx, "Delivery failed, batch will be retried next run",
			"results", results)

		return ErrDeliveryIncomplete
	}

	// Every new article is marked, including ones the producer judged
	// unimportant: the pipeline has seen them and must not re-summarize
	// them next run.
	if err := p.commit(ctx, newArticles); err != nil {
		return err
	}

	log.InfoContext(ctx, "Run completed",
		"elapsed", time.Since(start).String())

	return nil
}

func (p *Pipeline) dryRun(ctx context.Context, newArticles []domain.Article) error {
	log := p.deps.Log

	for i, a := range newArticles {
		log.InfoContext(ctx, "Dry-run article",
			"index", i+1,
			"category", a.Category,
			"title", a.Title,
			"source", a.Source,
			"url", a.URL)
	}

	// Dry-run still commits so repeated dry-runs do not reprocess the
	// same batch.
	if err := p.commit(ctx, newArticles); err != nil {
		return err
	}

	log.InfoContext(ctx, "Dry-run completed, no summarization or delivery",
		"new", len(newArticles))

	return nil
}

// summarize treats any producer error as an empty digest: the boundary
// fails closed and the orchestrator decides what an empty digest means.
func (p *Pipeline) summarize(
	ctx context.Context,
	newArticles []domain.Article,
) []domain.DigestItem {
	log := p.deps.Log

	s, ok := p.deps.Summarizers.Lookup(p.opts.Provider)
	if !ok {
		log.ErrorContext(ctx, "Unknown AI provider",
			"provider", p.opts.Provider,
			"available", p.deps.Summarizers.IDs())

		return nil
	}

	digest, err := s.Summarize(ctx, newArticles)
	if err != nil {
		log.ErrorContext(ctx, "Summarization failed",
			"error", err,
			"provider", p.opts.Provider)

		return nil
	}

	return digest
}

func (p *Pipeline) commit(ctx context.Context, newArticles []domain.Article) error {
	urls := make([]string, 0, len(newArticles))
	for _, a := range newArticles {
		urls = append(urls, a.URL)
	}

	if err := p.deps.Store.MarkSeen(ctx, urls); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}

	return nil
}
