// Package store keeps the in-memory document collection for one session.
// The processing queue is its only writer; views read snapshots.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/preview"
)

var (
	ErrInvalidTransition = errors.New("store: invalid status transition")
	ErrDuplicateID       = errors.New("store: duplicate document id")
)

// Reader is the read-only view handed to presentation layers.
type Reader interface {
	Snapshot() []entity.Document
	Get(id string) (entity.Document, bool)
	Stats() entity.Stats
	Subscribe() (<-chan struct{}, func())
	OpenPreview(ref string) ([]byte, string, error)
}

// Store is an append-only, insertion-ordered collection of document records.
type Store struct {
	mu       sync.RWMutex
	docs     []entity.Document
	index    map[string]int
	previews *preview.Registry
	logger   *slog.Logger
	now      func() time.Time

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
	closed  bool
}

func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		index:    make(map[string]int),
		previews: preview.NewRegistry(),
		logger:   logger,
		now:      time.Now,
		subs:     make(map[int]chan struct{}),
	}
}

// Append adds pending records in order and registers a preview reference for each.
// Either all records are appended or none are.
func (s *Store) Append(docs ...entity.Document) error {
	s.mu.Lock()
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if d.Status != constants.StatusPending {
			s.mu.Unlock()
			return fmt.Errorf("%w: new record %s must be pending, got %s", ErrInvalidTransition, d.ID, d.Status)
		}
		_, dupStored := s.index[d.ID]
		_, dupBatch := seen[d.ID]
		if dupStored || dupBatch {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	for _, d := range docs {
		if d.PreviewRef == "" && len(d.Source) > 0 {
			d.PreviewRef = s.previews.Create(d.Source, d.MediaType)
		}
		s.index[d.ID] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	s.mu.Unlock()

	s.logger.Debug("store.append", "count", len(docs))
	s.notify()
	return nil
}

// MarkProcessing moves a pending record to processing.
func (s *Store) MarkProcessing(id string) error {
	return s.transition(id, constants.StatusProcessing, func(d *entity.Document, now time.Time) {
		d.StartedAt = &now
	})
}

// Complete moves a processing record to completed and attaches its fields.
func (s *Store) Complete(id string, fields entity.Fields) error {
	if fields == nil {
		fields = entity.Fields{}
	}
	return s.transition(id, constants.StatusCompleted, func(d *entity.Document, now time.Time) {
		d.Data = fields
		d.FinishedAt = &now
	})
}

// Fail moves a processing record to error with a user-facing message; cause is kept for diagnostics.
func (s *Store) Fail(id, message string, cause error) error {
	return s.transition(id, constants.StatusError, func(d *entity.Document, now time.Time) {
		d.ErrorMessage = message
		d.Cause = cause
		d.FinishedAt = &now
	})
}

func (s *Store) transition(id string, to constants.DocumentStatus, apply func(*entity.Document, time.Time)) error {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	d := &s.docs[i]
	from := d.Status
	if !constants.CanTransition(from, to) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, from, to, id)
	}
	d.Status = to
	apply(d, s.now().UTC())
	s.mu.Unlock()

	s.logger.Debug("store.transition", "document_id", id, "from", from, "to", to)
	s.notify()
	return nil
}

// Snapshot returns copies of all records in insertion order.
func (s *Store) Snapshot() []entity.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Get returns a copy of one record.
func (s *Store) Get(id string) (entity.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return entity.Document{}, false
	}
	return s.docs[i], true
}

// Stats counts records by status.
func (s *Store) Stats() entity.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entity.CountStats(s.docs)
}

func (s *Store) OpenPreview(ref string) ([]byte, string, error) {
	return s.previews.Open(ref)
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce; readers should take a fresh Snapshot on each one.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan struct{}, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close ends the session: every preview reference is revoked and subscribers are released.
func (s *Store) Close() {
	revoked := s.previews.RevokeAll()

	s.subMu.Lock()
	if !s.closed {
		s.closed = true
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
	}
	s.subMu.Unlock()

	s.logger.Info("store.closed", "previews_revoked", revoked)
}
