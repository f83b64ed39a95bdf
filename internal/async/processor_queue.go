package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

type job struct {
	batch *Batch
	docs  []entity.Document
}

// ProcessorQueue appends records synchronously and extracts them on a single driver goroutine.
type ProcessorQueue struct {
	proc   Processor
	store  Writer
	logger *slog.Logger
	policy Policy
	now    func() time.Time

	ch         chan job
	sem        *semaphore.Weighted
	inflight   sync.WaitGroup
	driverDone chan struct{}
	once       sync.Once

	mu      sync.Mutex
	closed  bool
	batches map[string]*Batch
	// sendMu orders channel sends by append order without holding mu while blocked.
	sendMu sync.Mutex

	outstanding  atomic.Int64
	resolvedMu   sync.Mutex
	lastResolved time.Time
}

type Option func(*ProcessorQueue)

// WithPolicy replaces the whole admission policy.
func WithPolicy(p Policy) Option {
	return func(q *ProcessorQueue) {
		if p.MinInterval >= 0 {
			q.policy.MinInterval = p.MinInterval
		}
		if p.MaxInFlight > 0 {
			q.policy.MaxInFlight = p.MaxInFlight
		}
	}
}

// WithMinInterval sets the cooldown; zero disables it.
func WithMinInterval(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d >= 0 {
			q.policy.MinInterval = d
		}
	}
}

func WithMaxInFlight(n int64) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.policy.MaxInFlight = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan job, n)
		}
	}
}

func NewProcessorQueue(proc Processor, store Writer, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:       proc,
		store:      store,
		logger:     logger,
		policy:     DefaultPolicy(),
		now:        time.Now,
		ch:         make(chan job, 256),
		driverDone: make(chan struct{}),
		batches:    make(map[string]*Batch),
	}
	for _, o := range opts {
		o(q)
	}
	q.sem = semaphore.NewWeighted(q.policy.MaxInFlight)
	q.start()
	return q
}

// Policy returns the admission policy in effect.
func (q *ProcessorQueue) Policy() Policy { return q.policy }

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		go func() {
			defer close(q.driverDone)
			q.logger.Info("queue.driver.started",
				"min_interval", q.policy.MinInterval.String(),
				"max_in_flight", q.policy.MaxInFlight,
			)
			for j := range q.ch {
				for _, doc := range j.docs {
					q.admit(doc, j.batch)
				}
			}
			q.inflight.Wait()
			q.logger.Info("queue.driver.stopped")
		}()
	})
}

// Enqueue appends one pending record per upload, in order, before returning.
// Extraction happens later on the driver; use the returned Batch to await it.
func (q *ProcessorQueue) Enqueue(ctx context.Context, uploads []ingest.Upload) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "files", len(uploads))
		return nil, ErrQueueClosed
	}

	now := q.now()
	batchID := uuid.NewString()
	docs := make([]entity.Document, 0, len(uploads))
	ids := make([]string, 0, len(uploads))
	for _, u := range uploads {
		d := entity.NewDocument(u.Filename, u.MediaType, u.Data, now)
		d.BatchID = batchID
		d.ContentHash = u.ContentHash
		d.Pages = u.Pages
		docs = append(docs, d)
		ids = append(ids, d.ID)
	}

	batch := newBatch(batchID, ids, now)
	if len(docs) == 0 {
		q.mu.Unlock()
		return batch, nil
	}
	if err := q.store.Append(docs...); err != nil {
		q.mu.Unlock()
		return nil, fmt.Errorf("append records: %w", err)
	}
	q.outstanding.Add(int64(len(docs)))
	q.batches[batchID] = batch

	q.sendMu.Lock()
	q.mu.Unlock()
	j := job{batch: batch, docs: docs}
	select {
	case q.ch <- j:
	default:
		q.logger.Warn("queue full, applying backpressure", "batch_id", batchID)
		q.ch <- j
	}
	q.sendMu.Unlock()

	q.logger.Info("queue.enqueued",
		"batch_id", batchID,
		"request_id", common.RequestIDFromContext(ctx),
		"records", len(docs),
	)
	return batch, nil
}

// admit waits for a slot and the cooldown, marks the record processing and starts it.
func (q *ProcessorQueue) admit(doc entity.Document, batch *Batch) {
	_ = q.sem.Acquire(context.Background(), 1)
	q.waitCooldown()

	if err := q.store.MarkProcessing(doc.ID); err != nil {
		q.logger.Error("queue.record.transition_failed", "document_id", doc.ID, "error", err)
		q.sem.Release(1)
		q.resolved(batch)
		return
	}
	q.logger.Info("queue.record.processing", "document_id", doc.ID, "filename", doc.Filename, "batch_id", batch.id)

	q.inflight.Add(1)
	go func() {
		defer q.inflight.Done()
		defer q.sem.Release(1)
		q.run(doc, batch)
	}()
}

func (q *ProcessorQueue) run(doc entity.Document, batch *Batch) {
	defer q.resolved(batch)

	ctx := common.WithBatchID(context.Background(), batch.id)
	fields, err := q.proc.Process(ctx, doc)
	if err == nil {
		err = q.store.Complete(doc.ID, fields)
		if err == nil {
			q.logger.Info("queue.record.completed", "document_id", doc.ID, "filename", doc.Filename, "keys", len(fields))
			return
		}
		q.logger.Error("queue.record.transition_failed", "document_id", doc.ID, "error", err)
		return
	}

	q.logger.Error("queue.record.failed",
		"document_id", doc.ID,
		"filename", doc.Filename,
		"error_kind", llm.KindOf(err),
		"error", err,
	)
	if ferr := q.store.Fail(doc.ID, constants.ExtractionFailedMessage, err); ferr != nil {
		q.logger.Error("queue.record.transition_failed", "document_id", doc.ID, "error", ferr)
	}
}

func (q *ProcessorQueue) resolved(batch *Batch) {
	q.resolvedMu.Lock()
	q.lastResolved = q.now()
	q.resolvedMu.Unlock()

	q.outstanding.Add(-1)
	batch.resolve()
	if batch.Finished() {
		q.logger.Info("queue.batch.done", "batch_id", batch.id, "records", len(batch.docIDs))
	}
}

func (q *ProcessorQueue) waitCooldown() {
	if q.policy.MinInterval <= 0 {
		return
	}
	q.resolvedMu.Lock()
	last := q.lastResolved
	q.resolvedMu.Unlock()
	if last.IsZero() {
		return
	}
	if wait := q.policy.MinInterval - q.now().Sub(last); wait > 0 {
		q.logger.Debug("queue.cooldown", "wait_ms", wait.Milliseconds())
		time.Sleep(wait)
	}
}

// Busy reports whether any enqueued record is not yet terminal.
func (q *ProcessorQueue) Busy() bool {
	return q.outstanding.Load() > 0
}

// Batch looks up a batch handle by ID.
func (q *ProcessorQueue) Batch(id string) (*Batch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	b, ok := q.batches[id]
	return b, ok
}

// Shutdown stops intake and waits for every enqueued record to finish.
// In-flight extractions are never cancelled; if ctx ends first its error is returned
// and draining continues in the background.
func (q *ProcessorQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		go func() {
			q.sendMu.Lock()
			defer q.sendMu.Unlock()
			close(q.ch)
		}()
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context", "outstanding", q.outstanding.Load())
		return ctx.Err()
	case <-q.driverDone:
		q.logger.Info("queue drained, shutdown complete")
		return nil
	}
}
