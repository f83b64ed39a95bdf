package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

const opGenerate = "gemini.generateContent"

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	InlineData *inlineData `json:"inline_data,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float32 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Extract implements llm.Extractor against the generateContent REST endpoint.
// No response schema is sent; the model chooses its own keys.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (entity.Fields, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.NewString()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()
	mediaType := llm.ResolveMediaType(req)

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"filename", req.Filename,
		"media_type", mediaType,
		"bytes", len(req.Data),
	)

	body := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mediaType, Data: llm.EncodeInline(req.Data)}},
				{Text: llm.ExtractionPrompt},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      c.cfg.Temperature,
			ResponseMimeType: constants.JSONMediaType,
		},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}

	raw, status, err := llm.SendJSON(ctx, c.httpClient, opGenerate, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, err
	}

	text, err := responseText(raw)
	if err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, err
	}

	fields, cleaned, err := llm.ParseFields(opGenerate, text)
	if err != nil {
		c.log.Error("llm.extract.parse_error",
			"req_id", rid, "error", err, "content_len", len(cleaned),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, cleaned, err
	}

	docType, _ := fields.DocumentType()
	score, _ := fields.ConfidenceScore()
	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"keys", len(fields),
		"document_type", docType,
		"confidence", score,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, cleaned, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(raw []byte) (string, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "", llm.MalformedResponseError(opGenerate, errors.New("empty response body"))
	}
	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", llm.MalformedResponseError(opGenerate, fmt.Errorf("decode gemini response: %w", err))
	}
	if len(gr.Candidates) == 0 {
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			return "", llm.MalformedResponseError(opGenerate, fmt.Errorf("prompt blocked: %s", gr.PromptFeedback.BlockReason))
		}
		return "", llm.MalformedResponseError(opGenerate, errors.New("no candidates in gemini response"))
	}

	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
