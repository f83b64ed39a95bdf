package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewFileSink(dir, quiet())

	require.NoError(t, sink.Put(context.Background(), DefaultFilename, JSONContentType, []byte("[]")))
	b, err := os.ReadFile(filepath.Join(dir, DefaultFilename))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	_, err = os.Stat(filepath.Join(dir, DefaultFilename+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileSinkStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir, quiet())
	require.NoError(t, sink.Put(context.Background(), "../escape.json", JSONContentType, []byte("{}")))
	_, err := os.Stat(filepath.Join(dir, "escape.json"))
	assert.NoError(t, err)
}

func TestClipboardSink(t *testing.T) {
	var got string
	sink := &ClipboardSink{writeAll: func(s string) error { got = s; return nil }, logger: quiet()}
	require.NoError(t, sink.Put(context.Background(), DefaultFilename, JSONContentType, []byte(`[{"id":"a"}]`)))
	assert.Equal(t, `[{"id":"a"}]`, got)

	sink.writeAll = func(string) error { return errors.New("no display") }
	assert.ErrorContains(t, sink.Put(context.Background(), DefaultFilename, JSONContentType, nil), "no display")
}

func TestSinksHonorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewFileSink(t.TempDir(), quiet()).Put(ctx, "x.json", JSONContentType, nil), context.Canceled)
}
