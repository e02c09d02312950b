package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting of the pipeline. It is constructed
// once in main and passed by reference into component constructors; no
// component reads the environment on its own.
type Config struct {
	// AI provider selection and credentials.
	AIProvider     string `env:"AI_PROVIDER"      envDefault:"gemini"`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	OpenAIModel    string `env:"OPENAI_MODEL"     envDefault:"gpt-4o-mini"`
	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	GeminiModel    string `env:"GEMINI_MODEL"     envDefault:"gemini-2.0-flash"`
	DeepseekAPIKey string `env:"DEEPSEEK_API_KEY"`
	DeepseekModel  string `env:"DEEPSEEK_MODEL"   envDefault:"deepseek-reasoner"`

	// X / Twitter ingestion.
	TwitterBearerToken string   `env:"TWITTER_BEARER_TOKEN"`
	TwitterUsernames   []string `env:"TWITTER_USERNAMES"`

	// Delivery channels.
	NotifyVia      []string `env:"NOTIFY_VIA"        envDefault:"wechat"`
	ServerChanKey  string   `env:"SERVERCHAN_KEY"`
	TelegramToken  string   `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64    `env:"TELEGRAM_CHAT_ID"`
	SMTPHost       string   `env:"SMTP_HOST"         envDefault:"smtp.gmail.com"`
	SMTPPort       int      `env:"SMTP_PORT"         envDefault:"587"`
	SMTPUser       string   `env:"SMTP_USER"`
	SMTPPassword   string   `env:"SMTP_PASSWORD"`
	EmailTo        string   `env:"EMAIL_TO"`

	// Pipeline tuning.
	FetchWindow      time.Duration `env:"FETCH_WINDOW"      envDefault:"24h"`
	FetchConcurrency int           `env:"FETCH_CONCURRENCY" envDefault:"5"`
	MaxDigestItems   int           `env:"MAX_NEWS_ITEMS"    envDefault:"20"`
	RetentionDays    int           `env:"RETENTION_DAYS"    envDefault:"30"`
	DigestLang       string        `env:"DIGEST_LANG"       envDefault:"Chinese"`

	// Storage and catalog.
	DBPath      string `env:"DB_PATH"      envDefault:"data/history.db"`
	SourcesPath string `env:"SOURCES_PATH"`

	// Daemon mode.
	CronSpec string `env:"DIGEST_CRON" envDefault:"0 8 * * *"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &cfg, nil
}
