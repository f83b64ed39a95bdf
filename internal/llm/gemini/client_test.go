package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/llm"
)

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil).WithHTTPClient(server.Client())
}

func TestExtractSendsInlineDocument(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nrest")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)

		inline := req.Contents[0].Parts[0].InlineData
		require.NotNil(t, inline)
		assert.Equal(t, "image/png", inline.MimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(png), inline.Data)
		assert.Equal(t, llm.ExtractionPrompt, req.Contents[0].Parts[1].Text)
		assert.InDelta(t, 0.1, req.GenerationConfig.Temperature, 1e-6)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)

		_, _ = io.WriteString(w, candidateBody("```json\n{\"documentType\":\"Invoice\",\"total\":120.5,\"confidenceScore\":0.92}\n```"))
	})

	fields, raw, err := client.Extract(context.Background(), llm.ExtractRequest{Data: png, MediaType: "image/png", Filename: "inv.png"})
	require.NoError(t, err)
	assert.Equal(t, "Invoice", fields["documentType"])
	assert.Equal(t, 120.5, fields["total"])
	assert.Equal(t, 0.92, fields["confidenceScore"])
	assert.NotContains(t, string(raw), "```")
}

func TestExtractClassifiesFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{}}`, wantErr: llm.ErrTransport},
		{name: "empty body", status: http.StatusOK, body: "", wantErr: llm.ErrMalformedResponse},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, wantErr: llm.ErrMalformedResponse},
		{name: "blocked", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, wantErr: llm.ErrMalformedResponse},
		{name: "whitespace text", status: http.StatusOK, body: candidateBody("   "), wantErr: llm.ErrMalformedResponse},
		{name: "array text", status: http.StatusOK, body: candidateBody(`[1,2]`), wantErr: llm.ErrMalformedResponse},
		{name: "prose text", status: http.StatusOK, body: candidateBody("I cannot read this"), wantErr: llm.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			fields, _, err := client.Extract(context.Background(), llm.ExtractRequest{Data: []byte("%PDF-1.4"), MediaType: "application/pdf"})
			require.Error(t, err)
			assert.Nil(t, fields)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "from-env")

	c := NewClient(Config{}, nil)
	assert.Equal(t, "from-env", c.cfg.APIKey)
	assert.Equal(t, "gemini-2.5-flash", c.cfg.Model)
	assert.InDelta(t, 0.1, c.cfg.Temperature, 1e-6)
}
