package server

import (
	"net/http"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

type listResponse struct {
	Stats      entity.Stats      `json:"stats"`
	Processing bool              `json:"processing"`
	Documents  []entity.Document `json:"documents"`
}

func (s *HTTPServer) snapshot() listResponse {
	docs := s.reader.Snapshot()
	stats := entity.CountStats(docs)
	return listResponse{Stats: stats, Processing: s.queue.Busy() || !stats.Terminal(), Documents: docs}
}

func (s *HTTPServer) handleListDocuments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *HTTPServer) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	d, ok := s.reader.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type statsResponse struct {
	entity.Stats
	Processing bool `json:"processing"`
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	st := s.reader.Stats()
	writeJSON(w, http.StatusOK, statsResponse{Stats: st, Processing: s.queue.Busy() || !st.Terminal()})
}

type batchResponse struct {
	ID          string       `json:"id"`
	Done        bool         `json:"done"`
	DocumentIDs []string     `json:"document_ids"`
	Stats       entity.Stats `json:"stats"`
}

// handleGetBatch reports batch progress. With ?wait=1 it blocks until the batch drains
// or the client goes away.
func (s *HTTPServer) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := s.queue.Batch(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	if r.URL.Query().Get("wait") == "1" {
		if err := b.Wait(r.Context()); err != nil {
			s.logger.Debug("http.batch.wait_aborted", "batch_id", b.ID(), "error", err)
			return
		}
	}

	ids := b.DocumentIDs()
	docs := make([]entity.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := s.reader.Get(id); ok {
			docs = append(docs, d)
		}
	}
	writeJSON(w, http.StatusOK, batchResponse{
		ID:          b.ID(),
		Done:        b.Finished(),
		DocumentIDs: ids,
		Stats:       entity.CountStats(docs),
	})
}
