package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"newsdigest/internal/domain"
	"newsdigest/internal/render"
)

func telegramTestChannel() *TelegramChannel {
	return &TelegramChannel{
		chatID:   1,
		renderer: render.New(render.DefaultSections),
		log:      slog.Default(),
	}
}

func TestTelegramMessagesEscapeMarkdownEntities(t *testing.T) {
	c := telegramTestChannel()

	digest := []domain.DigestItem{{
		Section:    "ai_dev",
		Title:      "release_notes [v2] *big*",
		Summary:    "Summary with _underscores_ and #tags!",
		Importance: 7,
		SourceURL:  "https://a.example/1",
	}}

	messages := c.formatDigestAsMessages(digest)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	for _, want := range []string{
		`release\_notes \[v2\] \*big\*`,
		`Summary with \_underscores\_ and \#tags\!`,
	} {
		if !strings.Contains(messages[0], want) {
			t.Fatalf("expected escaped text %q in message:\n%s", want, messages[0])
		}
	}
}

func TestTelegramMessagesSplitOnLengthBudget(t *testing.T) {
	c := telegramTestChannel()

	var digest []domain.DigestItem
	for i := 0; i < 10; i++ {
		digest = append(digest, domain.DigestItem{
			Section:    "ai_dev",
			Title:      fmt.Sprintf("标题 %d", i),
			Summary:    strings.Repeat("摘要正文", 70),
			Importance: 5,
			SourceURL:  fmt.Sprintf("https://a.example/%d", i),
		})
	}

	messages := c.formatDigestAsMessages(digest)
	if len(messages) < 2 {
		t.Fatalf("expected the digest to split into multiple messages, got %d", len(messages))
	}

	for i, m := range messages {
		if len(m) > telegramMessageMaxLength {
			t.Fatalf("message %d exceeds the length limit: %d bytes", i, len(m))
		}
		if !utf8.ValidString(m) {
			t.Fatalf("message %d is not valid UTF-8", i)
		}
		if !strings.Contains(m, "🤖 AI 开发实用") {
			t.Fatalf("message %d lost its section header:\n%s", i, m)
		}
	}

	if !strings.Contains(messages[1], `\(continued\)`) {
		t.Fatalf("expected continuation marker in second message:\n%s", messages[1])
	}
}

func TestTelegramMessagesEmptyDigestProducesNone(t *testing.T) {
	c := telegramTestChannel()

	if messages := c.formatDigestAsMessages(nil); len(messages) != 0 {
		t.Fatalf("expected no messages for an empty digest, got %d", len(messages))
	}
}
