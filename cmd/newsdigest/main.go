package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"newsdigest/internal/config"
	"newsdigest/internal/fetcher"
	"newsdigest/internal/notify"
	"newsdigest/internal/pipeline"
	"newsdigest/internal/render"
	"newsdigest/internal/scheduler"
	"newsdigest/internal/sources"
	"newsdigest/internal/store"
	"newsdigest/internal/summarizer"
	"newsdigest/internal/twitter"
)

var (
	flagDryRun   bool
	flagProvider string
	flagNotify   string
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	root := &cobra.Command{
		Use:           "newsdigest",
		Short:         "Fetch news feeds, summarize what is new, and push the digest",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), log)
		},
	}
	root.PersistentFlags().BoolVar(&flagDryRun, "dry-run",
		false, "fetch and dedup only, no summarization or delivery")
	root.PersistentFlags().StringVar(&flagProvider, "provider",
		"", "override the AI provider (openai | deepseek | gemini)")
	root.PersistentFlags().StringVar(&flagNotify, "notify",
		"", "override the delivery channels, comma-separated")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline on a cron schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), log)
		},
	}
	root.AddCommand(serve)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, pipeline.ErrDeliveryIncomplete) {
			log.ErrorContext(ctx, "Run ended with incomplete delivery",
				"error", err)
		} else {
			log.ErrorContext(ctx, "Run failed",
				"error", err)
		}

		os.Exit(1)
	}
}

func runOnce(ctx context.Context, log *slog.Logger) error {
	cfg, err := loadConfig(ctx, log)
	if err != nil {
		return err
	}

	p, closeFn, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	return p.Run(ctx)
}

func runDaemon(ctx context.Context, log *slog.Logger) error {
	cfg, err := loadConfig(ctx, log)
	if err != nil {
		return err
	}

	p, closeFn, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	sched := scheduler.New(ctx, p, cfg.CronSpec, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.CronSpec)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())

	return nil
}

func loadConfig(ctx context.Context, log *slog.Logger) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.InfoContext(ctx, "No .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func buildPipeline(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
) (*pipeline.Pipeline, func(), error) {
	catalog, err := sources.Load(cfg.SourcesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load sources: %w", err)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create DB dir: %w", err)
		}
	}

	st, err := store.New(ctx, cfg.DBPath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize store: %w", err)
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close store",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}

	renderer := render.New(render.DefaultSections)

	registry := notify.NewRegistry()
	if strings.TrimSpace(cfg.TelegramToken) != "" {
		tg, err := notify.NewTelegramChannel(
			cfg.TelegramToken, cfg.TelegramChatID, renderer, log)
		if err != nil {
			// An unregistered channel surfaces as a per-channel failure
			// in the fanout, so the batch is held for the next run
			// instead of the whole process dying.
			log.WarnContext(ctx, "Failed to create telegram channel",
				"error", err)
		} else {
			registry.Register("telegram", tg)
		}
	}
	registry.Register("wechat", notify.NewServerChanChannel(
		cfg.ServerChanKey, renderer, log))
	registry.Register("email", notify.NewEmailChannel(notify.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		To:       cfg.EmailTo,
	}, renderer, log))

	deps := pipeline.Deps{
		Sources:     catalog,
		Fetcher:     fetcher.New(cfg.FetchConcurrency, cfg.FetchWindow, log),
		Timeline:    timelineFetcher(cfg, log),
		Store:       st,
		Summarizers: buildSummarizers(ctx, cfg, log),
		Fanout:      notify.NewFanout(registry, log),
		Log:         log,
	}

	opts := pipeline.Options{
		Provider:  cfg.AIProvider,
		Channels:  cfg.NotifyVia,
		Retention: retention(cfg),
		DryRun:    flagDryRun,
	}
	if flagProvider != "" {
		opts.Provider = flagProvider
	}
	if flagNotify != "" {
		opts.Channels = splitList(flagNotify)
	}

	return pipeline.New(deps, opts), closeFn, nil
}

func timelineFetcher(cfg *config.Config, log *slog.Logger) pipeline.TimelineFetcher {
	if strings.TrimSpace(cfg.TwitterBearerToken) == "" {
		return nil
	}

	return twitter.New(
		cfg.TwitterBearerToken,
		cfg.TwitterUsernames,
		cfg.FetchWindow,
		log,
	)
}

func buildSummarizers(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
) *summarizer.Registry {
	registry := summarizer.NewRegistry()

	providers := []struct {
		id      string
		apiKey  string
		baseURL string
		model   string
	}{
		{id: "openai", apiKey: cfg.OpenAIAPIKey, model: cfg.OpenAIModel},
		{id: "deepseek", apiKey: cfg.DeepseekAPIKey,
			baseURL: summarizer.DeepseekBaseURL, model: cfg.DeepseekModel},
		{id: "gemini", apiKey: cfg.GeminiAPIKey,
			baseURL: summarizer.GeminiBaseURL, model: cfg.GeminiModel},
	}

	for _, p := range providers {
		if strings.TrimSpace(p.apiKey) == "" {
			continue
		}

		s, err := summarizer.NewOpenAICompatible(summarizer.OpenAICompatibleConfig{
			APIKey:   p.apiKey,
			BaseURL:  p.baseURL,
			Model:    p.model,
			Lang:     cfg.DigestLang,
			MaxItems: cfg.MaxDigestItems,
			Sections: render.DefaultSections,
		})
		if err != nil {
			log.WarnContext(ctx, "Failed to create summarizer",
				"error", err,
				"provider", p.id)

			continue
		}

		registry.Register(p.id, s)
	}

	return registry
}

func retention(cfg *config.Config) time.Duration {
	return time.Duration(cfg.RetentionDays) * 24 * time.Hour
}

func splitList(raw string) []string {
	var list []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			list = append(list, part)
		}
	}

	return list
}
