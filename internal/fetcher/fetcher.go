// Package fetcher pulls articles from the configured remote feeds under a
// global concurrency cap and normalizes them into domain.Article values.
package fetcher

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"newsdigest/internal/domain"
)

const (
	connectTimeout = 10 * time.Second
	totalTimeout   = 20 * time.Second

	defaultConcurrency = 5

	userAgent = "ai-news-digest/1.0"
)

type Fetcher struct {
	parser      *gofeed.Parser
	concurrency int
	window      time.Duration
	log         *slog.Logger
}

func New(concurrency int, window time.Duration, log *slog.Logger) *Fetcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{
		Timeout: totalTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}

	return &Fetcher{
		parser:      parser,
		concurrency: concurrency,
		window:      window,
		log:         log,
	}
}

// FetchAll retrieves every source concurrently and returns the union of
// their articles. A failed or malformed source contributes zero articles
// and never aborts its siblings; partial success is the normal case.
// Ordering across sources is not guaranteed, feed order within a source
// is preserved.
func (f *Fetcher) FetchAll(
	ctx context.Context,
	sources []domain.Source,
) []domain.Article {
	if len(sources) == 0 {
		return nil
	}

	var writeWg sync.WaitGroup

	concurrency := min(f.concurrency, len(sources))
	semCh := make(chan struct{}, concurrency)

	// Buffered for every source: batches are only drained after the
	// launch loop, so a smaller buffer would block producers that still
	// hold a semaphore slot.
	batchCh := make(chan []domain.Article, len(sources))

	for _, src := range sources {
		writeWg.Add(1)
		semCh <- struct{}{}

		go func(src domain.Source) {
			defer writeWg.Done()

			articles := f.fetchOne(ctx, src)
			if len(articles) != 0 {
				batchCh <- articles
			}

			<-semCh
		}(src)
	}

	go func() {
		writeWg.Wait()
		close(semCh)
		close(batchCh)
	}()

	var all []domain.Article
	for batch := range batchCh {
		all = append(all, batch...)
	}

	f.log.InfoContext(ctx, "Fetch completed",
		"articleCount", len(all),
		"sourceCount", len(sources))

	return all
}

func (f *Fetcher) fetchOne(ctx context.Context, src domain.Source) []domain.Article {
	parsed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		f.log.WarnContext(ctx, "Failed to fetch source",
			"error", err,
			"source", src.Name,
			"url", src.URL)

		return nil
	}

	if len(parsed.Items) == 0 {
		f.log.WarnContext(ctx, "Source has no usable entries",
			"source", src.Name,
			"url", src.URL)

		return nil
	}

	now := time.Now().UTC()
	cutoff := now.Add(-f.window)

	var articles []domain.Article
	for _, item := range parsed.Items {
		article, ok := normalizeItem(src, item, cutoff)
		if !ok {
			continue
		}

		articles = append(articles, article)
	}

	f.log.InfoContext(ctx, "Fetched source",
		"source", src.Name,
		"articleCount", len(articles))

	return articles
}
