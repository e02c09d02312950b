package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsdigest/internal/domain"
)

func rssFeed(entries ...string) string {
	items := ""
	for _, e := range entries {
		items += e
	}

	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>` + items + `</channel></rss>`
}

func rssItem(title, link string, published time.Time) string {
	return fmt.Sprintf(
		"<item><title>%s</title><link>%s</link><description>desc</description><pubDate>%s</pubDate></item>",
		title, link, published.Format(time.RFC1123Z),
	)
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestFetchAllPartialFailureIsolation(t *testing.T) {
	now := time.Now().UTC()

	srvA := feedServer(t, rssFeed(
		rssItem("A1", "https://a.example/1", now.Add(-time.Hour)),
		rssItem("A2", "https://a.example/2", now.Add(-2*time.Hour)),
	))
	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srvB.Close)
	srvC := feedServer(t, rssFeed(
		rssItem("C1", "https://c.example/1", now.Add(-time.Hour)),
	))

	f := New(5, 24*time.Hour, slog.Default())

	articles := f.FetchAll(context.Background(), []domain.Source{
		{Name: "A", URL: srvA.URL, Category: "ai"},
		{Name: "B", URL: srvB.URL, Category: "ai"},
		{Name: "C", URL: srvC.URL, Category: "politics"},
	})

	if len(articles) != 3 {
		t.Fatalf("expected 3 articles from the healthy sources, got %d", len(articles))
	}

	bySource := make(map[string]int)
	for _, a := range articles {
		bySource[a.Source]++
	}
	if bySource["A"] != 2 || bySource["C"] != 1 || bySource["B"] != 0 {
		t.Fatalf("unexpected per-source distribution: %v", bySource)
	}
}

func TestFetchAllReturnsWithMoreSourcesThanSlots(t *testing.T) {
	now := time.Now().UTC()

	const sourceCount = 11

	sources := make([]domain.Source, 0, sourceCount)
	for i := 0; i < sourceCount; i++ {
		srv := feedServer(t, rssFeed(
			rssItem(
				fmt.Sprintf("S%d", i),
				fmt.Sprintf("https://s%d.example/1", i),
				now.Add(-time.Hour),
			),
		))
		sources = append(sources, domain.Source{
			Name:     fmt.Sprintf("S%d", i),
			URL:      srv.URL,
			Category: "ai",
		})
	}

	f := New(5, 24*time.Hour, slog.Default())

	done := make(chan []domain.Article, 1)
	go func() {
		done <- f.FetchAll(context.Background(), sources)
	}()

	select {
	case articles := <-done:
		if len(articles) != sourceCount {
			t.Fatalf("expected %d articles, got %d", sourceCount, len(articles))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("FetchAll did not return with more productive sources than concurrency slots")
	}
}

func TestFetchAllDropsStaleEntries(t *testing.T) {
	now := time.Now().UTC()

	srv := feedServer(t, rssFeed(
		rssItem("fresh", "https://a.example/fresh", now.Add(-time.Hour)),
		rssItem("stale", "https://a.example/stale", now.Add(-48*time.Hour)),
	))

	f := New(5, 24*time.Hour, slog.Default())

	articles := f.FetchAll(context.Background(), []domain.Source{
		{Name: "A", URL: srv.URL, Category: "ai"},
	})

	if len(articles) != 1 {
		t.Fatalf("expected 1 fresh article, got %d", len(articles))
	}
	if articles[0].URL != "https://a.example/fresh" {
		t.Fatalf("expected fresh article, got %q", articles[0].URL)
	}
}

func TestFetchAllKeepsEntriesWithoutPublishedTime(t *testing.T) {
	srv := feedServer(t, rssFeed(
		"<item><title>undated</title><link>https://a.example/undated</link></item>",
	))

	f := New(5, 24*time.Hour, slog.Default())

	articles := f.FetchAll(context.Background(), []domain.Source{
		{Name: "A", URL: srv.URL, Category: "ai"},
	})

	if len(articles) != 1 {
		t.Fatalf("expected undated article to be kept, got %d articles", len(articles))
	}
}

func TestFetchAllPreservesFeedOrderWithinSource(t *testing.T) {
	now := time.Now().UTC()

	srv := feedServer(t, rssFeed(
		rssItem("first", "https://a.example/1", now.Add(-time.Hour)),
		rssItem("second", "https://a.example/2", now.Add(-time.Hour)),
		rssItem("third", "https://a.example/3", now.Add(-time.Hour)),
	))

	f := New(5, 24*time.Hour, slog.Default())

	articles := f.FetchAll(context.Background(), []domain.Source{
		{Name: "A", URL: srv.URL, Category: "ai"},
	})

	want := []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"}
	if len(articles) != len(want) {
		t.Fatalf("expected %d articles, got %d", len(want), len(articles))
	}
	for i := range want {
		if articles[i].URL != want[i] {
			t.Fatalf("expected %q at position %d, got %q", want[i], i, articles[i].URL)
		}
	}
}
