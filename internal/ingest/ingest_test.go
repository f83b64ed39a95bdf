package ingest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		declared string
		data     []byte
		want     string
		wantErr  bool
	}{
		{name: "declared wins", filename: "scan.bin", declared: "image/webp", data: []byte("x"), want: "image/webp"},
		{name: "declared with params", filename: "a", declared: "application/pdf; charset=binary", data: []byte("x"), want: "application/pdf"},
		{name: "extension", filename: "ID.JPG", data: []byte("x"), want: "image/jpeg"},
		{name: "sniffed png", filename: "noext", data: pngHeader, want: "image/png"},
		{name: "sniffed pdf", filename: "noext", data: []byte("%PDF-1.7\n"), want: "application/pdf"},
		{name: "declared text rejected", filename: "notes.txt", declared: "text/plain", data: []byte("hello"), wantErr: true},
		{name: "zip rejected", filename: "a.zip", data: []byte("PK\x03\x04"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectMediaType(tt.filename, tt.declared, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedMediaType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewUpload(t *testing.T) {
	u, err := NewUpload("card.png", "", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", u.MediaType)
	assert.Equal(t, int64(len(pngHeader)), u.Size)
	assert.Len(t, u.ContentHash, 64)

	_, err = NewUpload("empty.png", "", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestPageCountIsLenient(t *testing.T) {
	assert.Equal(t, 0, PageCount(Upload{MediaType: "image/png", Data: pngHeader}, quiet()))
	assert.Equal(t, 0, PageCount(Upload{Filename: "broken.pdf", MediaType: "application/pdf", Data: []byte("%PDF-garbage")}, quiet()))
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestFSIngestorDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.png", pngHeader)
	writeFile(t, dir, "b/passport.jpg", []byte("jpeg-bytes"))
	writeFile(t, dir, "notes.txt", []byte("skip"))
	writeFile(t, dir, ".hidden/c.png", pngHeader)
	writeFile(t, dir, "empty.png", nil)

	i := NewFSIngestor(quiet())
	results, stats, err := i.IngestDirectory(context.Background(), dir, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)
	require.Len(t, results, 3)
	assert.Equal(t, "a.png", results[0].Upload.Filename)
	assert.Equal(t, "passport.jpg", results[1].Upload.Filename)
	assert.NotEmpty(t, results[2].Err)
}

func TestFSIngestorPathsKeepOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "z.png", pngHeader)
	second := writeFile(t, dir, "a.pdf", []byte("%PDF-1.4 not really"))
	bad := writeFile(t, dir, "doc.docx", []byte("PK"))

	i := NewFSIngestor(quiet())
	uploads, failures, err := i.IngestPaths(context.Background(), []string{first, second, bad, filepath.Join(dir, "missing.png")}, true)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "z.png", uploads[0].Filename)
	assert.Equal(t, "a.pdf", uploads[1].Filename)
	assert.Equal(t, "application/pdf", uploads[1].MediaType)
	assert.Len(t, failures, 2)
}

func TestFromMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="license.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write(pngHeader)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	files := req.MultipartForm.File["files"]
	require.Len(t, files, 1)
	u, err := FromMultipart(files[0], quiet())
	require.NoError(t, err)
	assert.Equal(t, "license.png", u.Filename)
	assert.Equal(t, "image/png", u.MediaType)
	assert.Equal(t, pngHeader, u.Data)
}

func TestWatcherEmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	existing := writeFile(t, dir, "existing.png", pngHeader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true, Debounce: 20 * time.Millisecond}, quiet())
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	assert.Equal(t, existing, next())

	writeFile(t, dir, "ignored.txt", []byte("x"))
	created := writeFile(t, dir, "new.pdf", []byte("%PDF-1.4"))
	assert.Equal(t, created, next())

	cancel()
	for range events {
	}
}
