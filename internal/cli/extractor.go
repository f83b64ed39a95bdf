package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/llm/gemini"
	"github.com/joseph-ayodele/docextract/internal/llm/langchain"
	"github.com/joseph-ayodele/docextract/internal/llm/vertex"
)

// langchainModels is used when the configured model is still the Gemini default.
var langchainModels = map[langchain.Provider]string{
	langchain.ProviderOpenAI:    "gpt-4o-mini",
	langchain.ProviderAnthropic: "claude-3-5-sonnet-latest",
	langchain.ProviderOllama:    "llava",
	langchain.ProviderGoogleAI:  constants.DefaultGeminiModel,
}

// NewExtractor builds the extraction client selected by cfg.LLM.Provider.
// The returned close func releases provider connections.
func NewExtractor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (llm.Extractor, func() error, error) {
	noop := func() error { return nil }

	switch cfg.LLM.Provider {
	case common.ProviderGemini:
		c := gemini.NewClient(gemini.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		return c, noop, nil

	case common.ProviderVertex:
		c, err := vertex.NewClient(ctx, vertex.Config{
			ProjectID:   cfg.LLM.VertexProject,
			Location:    cfg.LLM.VertexLocation,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil

	case common.ProviderLangchain:
		p := langchain.Provider(cfg.LLM.LangchainProvider)
		model := cfg.LLM.Model
		if model == "" || (model == constants.DefaultGeminiModel && p != langchain.ProviderGoogleAI) {
			model = langchainModels[p]
		}
		lc := langchain.Config{
			Provider:    p,
			Model:       model,
			APIKey:      cfg.LangchainAPIKey(),
			ServerURL:   cfg.LLM.OllamaHost,
			Temperature: cfg.LLM.Temperature,
		}
		m, err := langchain.NewModel(ctx, lc)
		if err != nil {
			return nil, nil, err
		}
		return langchain.NewClient(lc, m, logger), noop, nil
	}
	return nil, nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown llm provider %q", cfg.LLM.Provider), common.ErrInvalidInput)
}
