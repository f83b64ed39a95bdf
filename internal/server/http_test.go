package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

func decode[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

func TestUploadProcessAndExport(t *testing.T) {
	h := newHarness(t, invoiceExtractor)

	resp := h.upload(t, part{"invoice.png", pngHeader}, part{"bad.png", pngHeader})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	up := decode[uploadResponse](t, resp.Body)
	require.Len(t, up.Documents, 2)
	assert.Equal(t, "invoice.png", up.Documents[0].Filename)
	assert.Equal(t, "bad.png", up.Documents[1].Filename)
	assert.NotEmpty(t, up.Documents[0].PreviewRef)

	wait, err := http.Get(h.srv.URL + "/api/v1/batches/" + up.BatchID + "?wait=1")
	require.NoError(t, err)
	defer wait.Body.Close()
	require.Equal(t, http.StatusOK, wait.StatusCode)
	br := decode[batchResponse](t, wait.Body)
	assert.True(t, br.Done)
	assert.Equal(t, 1, br.Stats.Completed)
	assert.Equal(t, 1, br.Stats.Failed)

	doc, err := http.Get(h.srv.URL + "/api/v1/documents/" + up.Documents[1].ID)
	require.NoError(t, err)
	defer doc.Body.Close()
	got := decode[map[string]any](t, doc.Body)
	assert.Equal(t, string(constants.StatusError), got["status"])
	assert.Equal(t, constants.ExtractionFailedMessage, got["error_message"])

	ex, err := http.Get(h.srv.URL + "/api/v1/identities/export?download=1")
	require.NoError(t, err)
	defer ex.Body.Close()
	assert.Contains(t, ex.Header.Get("Content-Disposition"), export.DefaultFilename)
	raw, err := io.ReadAll(ex.Body)
	require.NoError(t, err)
	entries, err := export.ParseJSON(raw)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "invoice.png", entries[0].Filename)
	assert.Equal(t, "Invoice", entries[0].Extraction["documentType"])
	assert.Equal(t, 42.5, entries[0].Extraction["total"])
}

func TestEmptyExtractionStillCarriesData(t *testing.T) {
	h := newHarness(t, func(context.Context, llm.ExtractRequest) (entity.Fields, []byte, error) {
		return llm.ParseFields("stub", "{}")
	})

	resp := h.upload(t, part{"blank.png", pngHeader})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	up := decode[uploadResponse](t, resp.Body)
	require.Len(t, up.Documents, 1)

	wait := mustGet(t, h.srv.URL+"/api/v1/batches/"+up.BatchID+"?wait=1")
	require.True(t, decode[batchResponse](t, wait).Done)

	got := decode[map[string]any](t, mustGet(t, h.srv.URL+"/api/v1/documents/"+up.Documents[0].ID))
	assert.Equal(t, string(constants.StatusCompleted), got["status"])
	require.Contains(t, got, "data")
	assert.Equal(t, map[string]any{}, got["data"])
}

func mustGet(t *testing.T, url string) io.Reader {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return resp.Body
}

func TestUploadRejectsUnsupportedMedia(t *testing.T) {
	h := newHarness(t, invoiceExtractor)
	resp := h.upload(t, part{"card.png", pngHeader}, part{"notes.txt", []byte("hello")})
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Empty(t, h.store.Snapshot())
}

func TestUploadRequiresFiles(t *testing.T) {
	h := newHarness(t, invoiceExtractor)
	resp := h.upload(t)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decode[errorResponse](t, resp.Body)
	assert.Contains(t, e.Error, "files")
}

func TestUploadEmptyFile(t *testing.T) {
	h := newHarness(t, invoiceExtractor)
	resp := h.upload(t, part{"empty.png", nil})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotFoundRoutes(t *testing.T) {
	h := newHarness(t, invoiceExtractor)
	for _, path := range []string{"/api/v1/documents/missing", "/api/v1/batches/missing", "/preview/prv_missing"} {
		resp, err := http.Get(h.srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestPreviewRevokedOnClose(t *testing.T) {
	h := newHarness(t, invoiceExtractor)
	resp := h.upload(t, part{"card.png", pngHeader})
	up := decode[uploadResponse](t, resp.Body)
	ref := up.Documents[0].PreviewRef

	pv, err := http.Get(h.srv.URL + "/preview/" + ref)
	require.NoError(t, err)
	body, _ := io.ReadAll(pv.Body)
	_ = pv.Body.Close()
	assert.Equal(t, http.StatusOK, pv.StatusCode)
	assert.Equal(t, "image/png", pv.Header.Get("Content-Type"))
	assert.Equal(t, pngHeader, body)

	h.store.Close()
	pv, err = http.Get(h.srv.URL + "/preview/" + ref)
	require.NoError(t, err)
	_ = pv.Body.Close()
	assert.Equal(t, http.StatusNotFound, pv.StatusCode)
}

func TestStatsAndHealth(t *testing.T) {
	h := newHarness(t, invoiceExtractor)

	resp, err := http.Get(h.srv.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	st := decode[statsResponse](t, resp.Body)
	assert.Equal(t, 0, st.Total)
	assert.False(t, st.Processing)

	hr, err := http.Get(h.srv.URL + "/health")
	require.NoError(t, err)
	defer hr.Body.Close()
	assert.Equal(t, http.StatusOK, hr.StatusCode)
	assert.NotEmpty(t, hr.Header.Get("X-Request-ID"))
}

func TestExportXLSX(t *testing.T) {
	h := newHarness(t, invoiceExtractor)
	resp, err := http.Get(h.srv.URL + "/api/v1/identities/export.xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.XLSXContentType, resp.Header.Get("Content-Type"))
}

func TestEnqueueAfterShutdownIs503(t *testing.T) {
	h := newHarness(t, invoiceExtractor)
	require.NoError(t, h.queue.Shutdown(t.Context()))
	resp := h.upload(t, part{"card.png", pngHeader})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
