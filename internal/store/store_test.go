package store

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

func newTestStore() *Store {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func pending(name string) entity.Document {
	return entity.NewDocument(name, "image/png", []byte(name), time.Now())
}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	s := newTestStore()
	a, b, c := pending("a.png"), pending("b.png"), pending("c.png")
	require.NoError(t, s.Append(a, b))
	require.NoError(t, s.Append(c))

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, []string{snap[0].Filename, snap[1].Filename, snap[2].Filename})
	for _, d := range snap {
		assert.Equal(t, constants.StatusPending, d.Status)
		assert.NotEmpty(t, d.PreviewRef)
	}
}

func TestAppendRejectsDuplicatesAtomically(t *testing.T) {
	s := newTestStore()
	a := pending("a.png")
	require.NoError(t, s.Append(a))

	err := s.Append(pending("b.png"), a)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, s.Snapshot(), 1)

	done := pending("c.png")
	done.Status = constants.StatusCompleted
	assert.ErrorIs(t, s.Append(done), ErrInvalidTransition)
}

func TestTransitionsFollowLifecycle(t *testing.T) {
	s := newTestStore()
	a, b := pending("a.png"), pending("b.png")
	require.NoError(t, s.Append(a, b))

	assert.ErrorIs(t, s.Complete(a.ID, entity.Fields{}), ErrInvalidTransition)
	assert.ErrorIs(t, s.Fail(a.ID, "x", nil), ErrInvalidTransition)

	require.NoError(t, s.MarkProcessing(a.ID))
	assert.ErrorIs(t, s.MarkProcessing(a.ID), ErrInvalidTransition)
	require.NoError(t, s.Complete(a.ID, entity.Fields{"documentType": "Invoice"}))
	assert.ErrorIs(t, s.Fail(a.ID, "late", nil), ErrInvalidTransition)

	cause := errors.New("boom")
	require.NoError(t, s.MarkProcessing(b.ID))
	require.NoError(t, s.Fail(b.ID, constants.ExtractionFailedMessage, cause))

	gotA, ok := s.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, constants.StatusCompleted, gotA.Status)
	assert.NotNil(t, gotA.Data)
	assert.Empty(t, gotA.ErrorMessage)
	assert.NotNil(t, gotA.StartedAt)
	assert.NotNil(t, gotA.FinishedAt)

	gotB, _ := s.Get(b.ID)
	assert.Equal(t, constants.StatusError, gotB.Status)
	assert.Nil(t, gotB.Data)
	assert.Equal(t, "Failed to extract data", gotB.ErrorMessage)
	assert.ErrorIs(t, gotB.Cause, cause)

	assert.ErrorIs(t, s.MarkProcessing("missing"), common.ErrNotFound)
	assert.Equal(t, entity.Stats{Total: 2, Completed: 1, Failed: 1}, s.Stats())
}

func TestCompleteWithNilFieldsStillHasData(t *testing.T) {
	s := newTestStore()
	a := pending("a.png")
	require.NoError(t, s.Append(a))
	require.NoError(t, s.MarkProcessing(a.ID))
	require.NoError(t, s.Complete(a.ID, nil))

	got, _ := s.Get(a.ID)
	assert.NotNil(t, got.Data)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestStore()
	a := pending("a.png")
	require.NoError(t, s.Append(a))

	snap := s.Snapshot()
	snap[0].Filename = "mutated"
	got, _ := s.Get(a.ID)
	assert.Equal(t, "a.png", got.Filename)
}

func TestSubscribeAndClose(t *testing.T) {
	s := newTestStore()
	ch, cancel := s.Subscribe()
	defer cancel()

	a := pending("a.png")
	require.NoError(t, s.Append(a))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected change notification")
	}

	snap := s.Snapshot()
	_, _, err := s.OpenPreview(snap[0].PreviewRef)
	require.NoError(t, err)

	s.Close()
	_, _, err = s.OpenPreview(snap[0].PreviewRef)
	assert.Error(t, err)

	_, open := <-ch
	assert.False(t, open)
	cancel()

	late, lateCancel := s.Subscribe()
	defer lateCancel()
	_, open = <-late
	assert.False(t, open)
}
