package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"newsdigest/internal/domain"
	"newsdigest/internal/render"
)

const serverChanTimeout = 15 * time.Second

// ServerChanChannel pushes the digest to WeChat through the ServerChan
// webhook (https://sct.ftqq.com).
type ServerChanChannel struct {
	client   *http.Client
	key      string
	renderer *render.Renderer
	log      *slog.Logger
}

func NewServerChanChannel(
	key string,
	renderer *render.Renderer,
	log *slog.Logger,
) *ServerChanChannel {
	return &ServerChanChannel{
		client:   &http.Client{Timeout: serverChanTimeout},
		key:      strings.TrimSpace(key),
		renderer: renderer,
		log:      log,
	}
}

func (c *ServerChanChannel) Send(ctx context.Context, digest []domain.DigestItem) error {
	if c.key == "" {
		return errors.New("SERVERCHAN_KEY is not configured")
	}

	form := url.Values{
		"title": {render.Title()},
		"desp":  {c.renderer.Markdown(digest)},
	}

	endpoint := fmt.Sprintf("https://sctapi.ftqq.com/%s.send", c.key)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.WarnContext(ctx, "Failed to close response body",
				"error", err,
				"channel", "wechat")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if code := gjson.GetBytes(body, "code"); !code.Exists() || code.Int() != 0 {
		return fmt.Errorf("ServerChan rejected push (status = %d, body = %s)",
			resp.StatusCode, body)
	}

	c.log.InfoContext(ctx, "WeChat delivery succeeded",
		"itemCount", len(digest))

	return nil
}
