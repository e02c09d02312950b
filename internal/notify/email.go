package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"newsdigest/internal/domain"
	"newsdigest/internal/render"
)

// EmailChannel sends the digest as an HTML mail over SMTP with STARTTLS.
type EmailChannel struct {
	host     string
	port     int
	user     string
	password string
	to       string
	renderer *render.Renderer
	log      *slog.Logger
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	To       string
}

func NewEmailChannel(
	cfg EmailConfig,
	renderer *render.Renderer,
	log *slog.Logger,
) *EmailChannel {
	return &EmailChannel{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		to:       cfg.To,
		renderer: renderer,
		log:      log,
	}
}

func (c *EmailChannel) Send(ctx context.Context, digest []domain.DigestItem) error {
	if c.user == "" || c.password == "" || c.to == "" {
		return errors.New("SMTP credentials or EMAIL_TO are not configured")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.user)
	fmt.Fprintf(&b, "To: %s\r\n", c.to)
	fmt.Fprintf(&b, "Subject: %s\r\n", render.Title())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(c.renderer.HTML(digest))

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	auth := smtp.PlainAuth("", c.user, c.password, c.host)

	// smtp.SendMail upgrades to STARTTLS when the server offers it.
	if err := smtp.SendMail(addr, auth, c.user, []string{c.to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	c.log.InfoContext(ctx, "Email delivery succeeded",
		"to", c.to,
		"itemCount", len(digest))

	return nil
}
