package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/ingest"
)

var ErrQueueClosed = errors.New("queue: shutting down, not accepting documents")

// Queue accepts batches of uploads and processes their records one by one.
type Queue interface {
	Enqueue(ctx context.Context, uploads []ingest.Upload) (*Batch, error)
	Busy() bool
	Shutdown(ctx context.Context) error
}

// Processor extracts fields for one record.
type Processor interface {
	Process(ctx context.Context, doc entity.Document) (entity.Fields, error)
}

// Writer is the mutating side of the record store. The queue is its only caller.
type Writer interface {
	Append(docs ...entity.Document) error
	MarkProcessing(id string) error
	Complete(id string, fields entity.Fields) error
	Fail(id, message string, cause error) error
}

// Policy is the admission control applied before each record starts.
type Policy struct {
	// MinInterval is the cooldown between a record resolving and the next one starting.
	MinInterval time.Duration
	// MaxInFlight caps concurrent extractions. Starts always follow insertion order.
	MaxInFlight int64
}

// DefaultPolicy is one record at a time with a one second cooldown.
func DefaultPolicy() Policy {
	return Policy{MinInterval: constants.DefaultMinInterval, MaxInFlight: constants.DefaultMaxInFlight}
}

// Batch is the handle returned by Enqueue. It is done once every record in it is terminal.
type Batch struct {
	id        string
	docIDs    []string
	createdAt time.Time

	mu        sync.Mutex
	remaining int
	done      chan struct{}
}

func newBatch(id string, docIDs []string, now time.Time) *Batch {
	b := &Batch{id: id, docIDs: docIDs, createdAt: now, remaining: len(docIDs), done: make(chan struct{})}
	if b.remaining == 0 {
		close(b.done)
	}
	return b
}

func (b *Batch) ID() string { return b.id }

// DocumentIDs returns the record IDs in enqueue order.
func (b *Batch) DocumentIDs() []string {
	out := make([]string, len(b.docIDs))
	copy(out, b.docIDs)
	return out
}

func (b *Batch) CreatedAt() time.Time { return b.createdAt }

// Done is closed when the batch has drained.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Finished reports whether the batch has drained, without blocking.
func (b *Batch) Finished() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the batch drains or ctx ends.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Batch) resolve() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining == 0 {
		return
	}
	b.remaining--
	if b.remaining == 0 {
		close(b.done)
	}
}
