// Package vertex implements llm.Extractor on Vertex AI Gemini models.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

const opGenerate = "vertex.generateContent"

type Config struct {
	ProjectID   string
	Location    string // e.g. "us-central1"
	Model       string
	Temperature float32
}

// generator is the part of *genai.GenerativeModel the client calls.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg   Config
	base  *genai.Client
	model generator
	log   *slog.Logger
}

// NewClient dials Vertex AI and configures the extraction model for JSON output.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ProjectID == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex: project and location cannot be empty")
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultGeminiModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = constants.DefaultTemperature
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := base.GenerativeModel(cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: constants.JSONMediaType,
		Temperature:      genai.Ptr(cfg.Temperature),
	}

	return &Client{cfg: cfg, base: base, model: model, log: logger}, nil
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// Extract implements llm.Extractor.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (entity.Fields, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.NewString()
	}
	start := time.Now()
	mediaType := llm.ResolveMediaType(req)

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"provider", "vertex",
		"model", c.cfg.Model,
		"filename", req.Filename,
		"media_type", mediaType,
		"bytes", len(req.Data),
	)

	resp, err := c.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mediaType, Data: req.Data},
		genai.Text(llm.ExtractionPrompt),
	)
	if err != nil {
		c.log.Error("llm.extract.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, llm.TransportError(opGenerate, 0, nil, err)
	}

	text, err := responseText(resp)
	if err != nil {
		c.log.Error("llm.extract.decode_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, err
	}

	fields, cleaned, err := llm.ParseFields(opGenerate, text)
	if err != nil {
		c.log.Error("llm.extract.parse_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, cleaned, err
	}

	c.log.Info("llm.extract.ok", "req_id", rid, "keys", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds())
	return fields, cleaned, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", llm.MalformedResponseError(opGenerate, errors.New("no candidates in vertex response"))
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", llm.MalformedResponseError(opGenerate, fmt.Errorf("empty candidate (finish reason %v)", cand.FinishReason))
	}

	var b strings.Builder
	for _, p := range cand.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}
