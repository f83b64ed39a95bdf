package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FSIngestor reads selected files from the local filesystem.
type FSIngestor struct {
	logger *slog.Logger
}

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (Upload, error) {
	if err := ctx.Err(); err != nil {
		return Upload{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("ingest.abs_path_error", "path", path, "error", err)
		return Upload{}, err
	}
	if !AllowedExt(filepath.Ext(abs)) {
		i.logger.Warn("ingest.unsupported_extension", "path", abs)
		return Upload{}, fmt.Errorf("%s: %w", filepath.Base(abs), ErrUnsupportedMediaType)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		i.logger.Error("ingest.read_error", "path", abs, "error", err)
		return Upload{}, err
	}

	u, err := NewUpload(filepath.Base(abs), "", data)
	if err != nil {
		return Upload{}, err
	}
	u.Pages = PageCount(u, i.logger)

	i.logger.Info("ingest.file.ok",
		"path", abs,
		"media_type", u.MediaType,
		"size", u.Size,
		"pages", u.Pages,
		"sha256", u.ContentHash,
	)
	return u, nil
}

// IngestDirectory walks root, skips hidden entries if requested,
// and calls IngestPath for each allowed file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []Result
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Result{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		u, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, Result{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, Result{SourcePath: path, Upload: u})
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	i.logger.Info("ingest.directory.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

// IngestPaths expands files and directories into uploads, preserving argument order.
// Directory contents follow lexical walk order. Unreadable or unsupported files are
// reported in the results and skipped.
func (i *FSIngestor) IngestPaths(ctx context.Context, paths []string, skipHidden bool) ([]Upload, []Result, error) {
	var uploads []Upload
	var failures []Result
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			failures = append(failures, Result{SourcePath: p, Err: err.Error()})
			continue
		}
		if st.IsDir() {
			results, _, err := i.IngestDirectory(ctx, p, skipHidden)
			if err != nil {
				return uploads, failures, err
			}
			for _, r := range results {
				if r.Err != "" {
					failures = append(failures, r)
					continue
				}
				uploads = append(uploads, r.Upload)
			}
			continue
		}
		u, err := i.IngestPath(ctx, p)
		if err != nil {
			failures = append(failures, Result{SourcePath: p, Err: err.Error()})
			continue
		}
		uploads = append(uploads, u)
	}
	return uploads, failures, nil
}
