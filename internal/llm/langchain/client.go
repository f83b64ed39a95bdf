// Package langchain implements llm.Extractor on any langchaingo chat model.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

// Provider identifies the langchaingo backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderGoogleAI  Provider = "googleai"
)

type Config struct {
	Provider    Provider
	Model       string
	APIKey      string
	ServerURL   string // ollama only
	Temperature float32
}

type Client struct {
	cfg   Config
	model llms.Model
	log   *slog.Logger
}

// NewModel builds the langchaingo model for cfg.Provider.
func NewModel(ctx context.Context, cfg Config) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderOllama:
		m, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(cfg.ServerURL))
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return m, nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("OpenAI API key required")
		}
		m, err := openai.New(openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return m, nil
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, errors.New("Anthropic API key required")
		}
		m, err := anthropic.New(anthropic.WithToken(cfg.APIKey), anthropic.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return m, nil
	case ProviderGoogleAI:
		if cfg.APIKey == "" {
			return nil, errors.New("Google AI API key required")
		}
		m, err := googleai.New(ctx, googleai.WithAPIKey(cfg.APIKey), googleai.WithDefaultModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("create googleai model: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported langchain provider: %q", cfg.Provider)
	}
}

// NewClient wraps an existing model; use NewModel to build one from config.
func NewClient(cfg Config, model llms.Model, logger *slog.Logger) *Client {
	if cfg.Temperature <= 0 {
		cfg.Temperature = constants.DefaultTemperature
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, model: model, log: logger}
}

// Extract implements llm.Extractor.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (entity.Fields, []byte, error) {
	op := "langchain." + string(c.cfg.Provider)
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.NewString()
	}
	start := time.Now()
	mediaType := llm.ResolveMediaType(req)

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"provider", op,
		"model", c.cfg.Model,
		"filename", req.Filename,
		"media_type", mediaType,
		"bytes", len(req.Data),
	)

	messages := []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.BinaryPart(mediaType, req.Data),
			llms.TextPart(llm.ExtractionPrompt),
		},
	}}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(float64(c.cfg.Temperature)),
		llms.WithJSONMode(),
	)
	if err != nil {
		c.log.Error("llm.extract.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, llm.TransportError(op, 0, nil, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		c.log.Error("llm.extract.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, llm.MalformedResponseError(op, errors.New("no response choices"))
	}

	fields, cleaned, err := llm.ParseFields(op, resp.Choices[0].Content)
	if err != nil {
		c.log.Error("llm.extract.parse_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, cleaned, err
	}

	c.log.Info("llm.extract.ok", "req_id", rid, "keys", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds())
	return fields, cleaned, nil
}
