package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
)

// Sink receives a finished export artifact.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
}

// FileSink writes artifacts into a local directory.
type FileSink struct {
	Dir    string
	logger *slog.Logger
}

func NewFileSink(dir string, logger *slog.Logger) *FileSink {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = "."
	}
	return &FileSink{Dir: dir, logger: logger}
}

func (s *FileSink) Put(ctx context.Context, name, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	s.logger.Info("export.sink.file.ok", "path", path, "bytes", len(data))
	return nil
}

// ClipboardSink copies the artifact text to the system clipboard.
type ClipboardSink struct {
	writeAll func(string) error
	system   bool
	logger   *slog.Logger
}

func NewClipboardSink(logger *slog.Logger) *ClipboardSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClipboardSink{writeAll: clipboard.WriteAll, system: true, logger: logger}
}

func (s *ClipboardSink) Put(ctx context.Context, name, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.system && clipboard.Unsupported {
		return fmt.Errorf("clipboard: no clipboard utility available")
	}
	if err := s.writeAll(string(data)); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	s.logger.Info("export.sink.clipboard.ok", "name", name, "bytes", len(data))
	return nil
}

