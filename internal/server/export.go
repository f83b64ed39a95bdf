package server

import (
	"fmt"
	"net/http"

	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/preview"
)

func (s *HTTPServer) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	b, err := s.exports.ExportJSON(r.Context())
	if err != nil {
		s.logger.Error("export.json.failed", "err", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", export.JSONContentType)
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFilename))
	}
	_, _ = w.Write(b)
}

func (s *HTTPServer) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	b, err := s.exports.ExportXLSX(r.Context())
	if err != nil {
		s.logger.Error("export.xlsx.failed", "err", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", export.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultXLSXFilename))
	_, _ = w.Write(b)
}

func (s *HTTPServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, mediaType, err := s.reader.OpenPreview(r.PathValue("ref"))
	if err != nil {
		s.logger.Debug("http.preview.miss", "ref", r.PathValue("ref"), "err", err)
		writeError(w, http.StatusNotFound, preview.ErrRevoked.Error())
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}
