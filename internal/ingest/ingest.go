package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type: only images and PDFs are accepted")
	ErrEmptyFile            = errors.New("empty file")
)

// Upload is one selected file, ready to become a document record.
type Upload struct {
	Filename    string
	MediaType   string
	Data        []byte
	Size        int64
	ContentHash string
	Pages       int
}

// Result is the per-file outcome of a directory ingest.
type Result struct {
	SourcePath string
	Upload     Upload
	Err        string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Ingestor is the behavior the CLI and the watcher depend on.
type Ingestor interface {
	// IngestPath reads a single file.
	IngestPath(ctx context.Context, path string) (Upload, error)
	// IngestDirectory reads all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Result, DirStats, error)
}

// NewUpload gates the media type and fills in size and content hash.
// declared may be empty; it is then derived from the filename and the bytes.
func NewUpload(filename, declared string, data []byte) (Upload, error) {
	if len(data) == 0 {
		return Upload{}, ErrEmptyFile
	}
	mt, err := DetectMediaType(filename, declared, data)
	if err != nil {
		return Upload{}, err
	}
	sum := sha256.Sum256(data)
	return Upload{
		Filename:    filename,
		MediaType:   mt,
		Data:        data,
		Size:        int64(len(data)),
		ContentHash: hex.EncodeToString(sum[:]),
	}, nil
}
