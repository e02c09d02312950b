package summarizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"newsdigest/internal/domain"
)

const (
	// Google exposes an OpenAI-compatible surface for Gemini, so a single
	// client type covers all three providers.
	DeepseekBaseURL = "https://api.deepseek.com"
	GeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai/"

	requestTemperature = 0.3
)

// OpenAICompatible talks to any chat-completions endpoint that speaks the
// OpenAI wire format.
type OpenAICompatible struct {
	client   openai.Client
	model    string
	lang     string
	maxItems int
	sections []domain.Section
}

type OpenAICompatibleConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Lang     string
	MaxItems int
	Sections []domain.Section
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) (*OpenAICompatible, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAICompatible{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		lang:     cfg.Lang,
		maxItems: cfg.MaxItems,
		sections: cfg.Sections,
	}, nil
}

// Summarize sends the batch to the model and parses the returned digest.
func (s *OpenAICompatible) Summarize(
	ctx context.Context,
	articles []domain.Article,
) ([]domain.DigestItem, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(s.lang, s.maxItems, s.sections)),
			openai.UserMessage(userPrompt(articles, s.maxItems)),
		},
		Temperature: openai.Float(requestTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("response has no choices")
	}

	items, err := parseDigest(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return items, nil
}
