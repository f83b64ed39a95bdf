package server

import (
	"fmt"
	"net/http"

	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/ingest"
)

type uploadResponse struct {
	BatchID   string            `json:"batch_id"`
	Documents []entity.Document `json:"documents"`
}

// handleUpload accepts a multipart form with one or more "files" parts.
// Either every file is accepted and enqueued, or none is.
func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, `no files in form field "files"`)
		return
	}

	uploads := make([]ingest.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := ingest.FromMultipart(fh, s.logger)
		if err != nil {
			s.logger.Warn("http.upload.rejected", "filename", fh.Filename, "error", err)
			code := statusFor(err)
			if code == http.StatusInternalServerError {
				code = http.StatusBadRequest
			}
			writeError(w, code, fmt.Sprintf("%s: %v", fh.Filename, err))
			return
		}
		uploads = append(uploads, u)
	}

	batch, err := s.queue.Enqueue(r.Context(), uploads)
	if err != nil {
		s.logger.Error("http.upload.enqueue_failed", "files", len(uploads), "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	docs := make([]entity.Document, 0, len(uploads))
	for _, id := range batch.DocumentIDs() {
		if d, ok := s.reader.Get(id); ok {
			docs = append(docs, d)
		}
	}
	s.logger.Info("http.upload.accepted", "batch_id", batch.ID(), "files", len(uploads))
	writeJSON(w, http.StatusAccepted, uploadResponse{BatchID: batch.ID(), Documents: docs})
}
