package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/async"
	"github.com/joseph-ayodele/docextract/internal/core"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/store"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type harness struct {
	store *store.Store
	queue *async.ProcessorQueue
	srv   *httptest.Server
}

// newHarness wires a real store and queue behind the HTTP API with a scripted extractor.
func newHarness(t *testing.T, extract llm.ExtractorFunc) *harness {
	t.Helper()
	st := store.New(quiet())
	proc := core.NewProcessor(quiet(), extract, 0)
	q := async.NewProcessorQueue(proc, st, quiet(), async.WithMinInterval(0))
	api := NewHTTPServer(st, q, export.NewService(st, quiet()), quiet())
	srv := httptest.NewServer(api.Handler())

	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = q.Shutdown(ctx)
		st.Close()
	})
	return &harness{store: st, queue: q, srv: srv}
}

func invoiceExtractor(_ context.Context, req llm.ExtractRequest) (entity.Fields, []byte, error) {
	if req.Filename == "bad.png" {
		return nil, nil, llm.TransportError("stub", 500, nil, io.ErrUnexpectedEOF)
	}
	return llm.ParseFields("stub", "```json\n{\"documentType\":\"Invoice\",\"total\":42.5}\n```")
}

type part struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile("files", p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (h *harness) upload(t *testing.T, parts ...part) *http.Response {
	t.Helper()
	body, ct := multipartBody(t, parts...)
	resp, err := http.Post(h.srv.URL+"/api/v1/documents", ct, body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
