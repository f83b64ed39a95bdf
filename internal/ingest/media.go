package ingest

import (
	"bytes"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/docextract/constants"
)

// DetectMediaType picks the media type for a file: a declared allowed type wins,
// then the extension, then content sniffing. Anything that is not an image or PDF is rejected.
func DetectMediaType(filename, declared string, data []byte) (string, error) {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && constants.IsAllowedMediaType(mt) {
			return mt, nil
		}
	}
	if mt := constants.MediaTypeForExt(filepath.Ext(filename)); mt != "" {
		return mt, nil
	}
	if sniffed := http.DetectContentType(data); constants.IsAllowedMediaType(sniffed) {
		mt, _, _ := mime.ParseMediaType(sniffed)
		return mt, nil
	}
	return "", fmt.Errorf("%s: %w", filename, ErrUnsupportedMediaType)
}

// PageCount returns the number of pages of a PDF, or 0 for images and unreadable PDFs.
// The provider stays the judge of validity, so failures are only logged.
func PageCount(u Upload, logger *slog.Logger) int {
	if constants.MapMediaTypeToFormat(u.MediaType) != constants.PDF {
		return 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(u.Data), conf)
	if err != nil {
		logger.Warn("ingest.pdf.page_count_failed", "filename", u.Filename, "error", err)
		return 0
	}
	return n
}
