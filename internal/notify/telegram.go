package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"newsdigest/internal/domain"
	"newsdigest/internal/render"
)

const telegramMessageMaxLength = 4096

// TelegramChannel pushes the digest to a chat as one or more MarkdownV2
// messages, splitting on the Bot API length limit.
type TelegramChannel struct {
	api      *tgbotapi.BotAPI
	chatID   int64
	renderer *render.Renderer
	log      *slog.Logger
}

func NewTelegramChannel(
	token string,
	chatID int64,
	renderer *render.Renderer,
	log *slog.Logger,
) (*TelegramChannel, error) {
	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	return &TelegramChannel{
		api:      api,
		chatID:   chatID,
		renderer: renderer,
		log:      log,
	}, nil
}

func (c *TelegramChannel) Send(ctx context.Context, digest []domain.DigestItem) error {
	if c.chatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID is not configured")
	}

	messages := c.formatDigestAsMessages(digest)
	for _, message := range messages {
		if err := c.sendMessage(ctx, message); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}

	c.log.InfoContext(ctx, "Telegram delivery succeeded",
		"chatID", c.chatID,
		"itemCount", len(digest),
		"messageCount", len(messages))

	return nil
}

// formatDigestAsMessages renders the digest as escaped MarkdownV2 and
// splits it on entry boundaries so no message exceeds the Bot API limit.
// The section header is re-emitted after a split so no message starts
// with orphan items.
func (c *TelegramChannel) formatDigestAsMessages(digest []domain.DigestItem) []string {
	header := "*" + escapeMarkdownV2(render.Title()) + "*\n\n"
	continueHeader := "*" + escapeMarkdownV2(render.Title()) + " \\(continued\\)*\n\n"

	var messages []string
	var currentMessage strings.Builder

	currentMessage.WriteString(header)
	headerLength := currentMessage.Len()

	for _, g := range c.renderer.Groups(digest) {
		sectionHeader := "*" + escapeMarkdownV2(g.Section.Label) + "*\n\n"
		firstEntry := formatDigestEntry(g.Items[0])

		if currentMessage.Len()+
			len(sectionHeader)+
			len(firstEntry) > telegramMessageMaxLength {
			messages = append(messages, currentMessage.String())
			currentMessage.Reset()
			currentMessage.WriteString(continueHeader)
		}

		currentMessage.WriteString(sectionHeader)

		for _, item := range g.Items {
			entry := formatDigestEntry(item)

			if currentMessage.Len()+len(entry) > telegramMessageMaxLength {
				messages = append(messages, currentMessage.String())
				currentMessage.Reset()
				currentMessage.WriteString(continueHeader)
				currentMessage.WriteString(sectionHeader)
			}

			currentMessage.WriteString(entry)
		}
	}

	if currentMessage.Len() > headerLength {
		messages = append(messages, currentMessage.String())
	}

	return messages
}

func formatDigestEntry(item domain.DigestItem) string {
	return fmt.Sprintf("– [%s](%s) ⭐ %d/10\n%s\n\n",
		escapeMarkdownV2(item.Title),
		item.SourceURL,
		item.Importance,
		escapeMarkdownV2(item.Summary))
}

func (c *TelegramChannel) sendMessage(ctx context.Context, text string) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		c.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", c.chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	message := tgbotapi.NewMessage(c.chatID, normalizedText)

	// See https://core.telegram.org/bots/api#markdownv2-style.
	message.ParseMode = tgbotapi.ModeMarkdownV2

	message.DisableWebPagePreview = true

	if _, err := c.api.Send(message); err != nil {
		return err
	}

	return nil
}
