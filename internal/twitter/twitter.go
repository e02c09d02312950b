// Package twitter pulls recent posts of configured X accounts through the
// X API v2 and normalizes them into domain.Article values so they ride
// the same pipeline as feed articles.
package twitter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"mvdan.cc/xurls/v2"

	"newsdigest/internal/domain"
)

const (
	apiBase          = "https://api.twitter.com/2"
	clientTimeout    = 15 * time.Second
	maxTweetsPerUser = 20
	titleMaxRunes    = 100

	userAgent = "ai-news-digest/1.0"
)

type Fetcher struct {
	client      *http.Client
	bearerToken string
	usernames   []string
	window      time.Duration
	log         *slog.Logger
}

func New(
	bearerToken string,
	usernames []string,
	window time.Duration,
	log *slog.Logger,
) *Fetcher {
	return &Fetcher{
		client:      &http.Client{Timeout: clientTimeout},
		bearerToken: strings.TrimSpace(bearerToken),
		usernames:   usernames,
		window:      window,
		log:         log,
	}
}

// FetchAll returns recent tweets of every configured account within the
// freshness window. Without a bearer token or usernames it is a no-op.
// A failure for one account is logged and never aborts the others.
func (f *Fetcher) FetchAll(ctx context.Context) []domain.Article {
	if f.bearerToken == "" || len(f.usernames) == 0 {
		return nil
	}

	since := time.Now().UTC().Add(-f.window)

	var all []domain.Article
	for _, username := range f.usernames {
		username = strings.TrimSpace(strings.TrimPrefix(username, "@"))
		if username == "" {
			continue
		}

		userID, err := f.lookupUserID(ctx, username)
		if err != nil {
			f.log.WarnContext(ctx, "Failed to look up X user",
				"error", err,
				"username", username)

			continue
		}

		tweets, err := f.fetchUserTweets(ctx, userID, username, since)
		if err != nil {
			f.log.WarnContext(ctx, "Failed to fetch X timeline",
				"error", err,
				"username", username)

			continue
		}

		all = append(all, tweets...)
	}

	f.log.InfoContext(ctx, "X fetch completed",
		"articleCount", len(all),
		"accountCount", len(f.usernames))

	return all
}

func (f *Fetcher) lookupUserID(ctx context.Context, username string) (string, error) {
	body, err := f.get(ctx, apiBase+"/users/by/username/"+url.PathEscape(username), nil)
	if err != nil {
		return "", err
	}

	userID := gjson.GetBytes(body, "data.id").String()
	if userID == "" {
		return "", fmt.Errorf("no user ID in response")
	}

	return userID, nil
}

func (f *Fetcher) fetchUserTweets(
	ctx context.Context,
	userID string,
	username string,
	since time.Time,
) ([]domain.Article, error) {
	params := url.Values{
		"max_results":  {fmt.Sprintf("%d", maxTweetsPerUser)},
		"start_time":   {since.Format(time.RFC3339)},
		"tweet.fields": {"created_at,text,entities"},
	}

	body, err := f.get(ctx, apiBase+"/users/"+userID+"/tweets", params)
	if err != nil {
		return nil, err
	}

	var articles []domain.Article
	for _, tweet := range gjson.GetBytes(body, "data").Array() {
		article, ok := normalizeTweet(username, tweet)
		if !ok {
			continue
		}

		articles = append(articles, article)
	}

	return articles, nil
}

func (f *Fetcher) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if len(params) != 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.bearerToken)
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.log.WarnContext(ctx, "Failed to close response body",
				"error", err,
				"endpoint", endpoint)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}

// normalizeTweet converts one tweet into an Article keyed by its
// canonical status URL. Links the tweet shares are carried in Extra so
// the digest producer can reference them.
func normalizeTweet(username string, tweet gjson.Result) (domain.Article, bool) {
	text := strings.TrimSpace(tweet.Get("text").String())
	tweetID := tweet.Get("id").String()
	if text == "" || tweetID == "" {
		return domain.Article{}, false
	}

	var published time.Time
	if createdAt := tweet.Get("created_at").String(); createdAt != "" {
		if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
			published = parsed.UTC()
		}
	}

	var shared []string
	for _, u := range tweet.Get("entities.urls.#.expanded_url").Array() {
		expanded := u.String()
		if expanded != "" && !strings.Contains(expanded, "twitter.com") {
			shared = append(shared, expanded)
		}
	}
	if len(shared) == 0 {
		shared = xurls.Relaxed().FindAllString(text, -1)
	}

	title := text
	if runes := []rune(title); len(runes) > titleMaxRunes {
		title = string(runes[:titleMaxRunes]) + "..."
	}

	extra := map[string]string{}
	if len(shared) != 0 {
		extra["shared_urls"] = strings.Join(shared, " ")
	}

	return domain.Article{
		Title:     fmt.Sprintf("@%s: %s", username, title),
		URL:       fmt.Sprintf("https://x.com/%s/status/%s", username, tweetID),
		Summary:   text,
		Source:    "X/@" + username,
		Category:  "x_timeline",
		Published: published,
		Extra:     extra,
	}, true
}
