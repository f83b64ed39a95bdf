package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
)

// FromMultipart reads one uploaded form file. The part's Content-Type is treated as the declared type.
func FromMultipart(fh *multipart.FileHeader, logger *slog.Logger) (Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer func(f multipart.File) {
		if err := f.Close(); err != nil && logger != nil {
			logger.Warn("ingest.multipart.close_error", "filename", fh.Filename, "error", err)
		}
	}(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}

	u, err := NewUpload(filepath.Base(fh.Filename), fh.Header.Get("Content-Type"), data)
	if err != nil {
		return Upload{}, err
	}
	u.Pages = PageCount(u, logger)
	return u, nil
}
