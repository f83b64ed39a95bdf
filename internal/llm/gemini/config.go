package gemini

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
)

// Config for the Gemini REST client.
type Config struct {
	APIKey      string        // if empty, falls back to env GEMINI_API_KEY then API_KEY
	BaseURL     string        // default https://generativelanguage.googleapis.com
	Model       string        // e.g., "gemini-2.5-flash"
	Temperature float32       // 0..2, default 0.1
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultGeminiModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = constants.DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultLLMTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}
