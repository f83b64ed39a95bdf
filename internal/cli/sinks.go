package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/export"
)

const (
	sinkMinio = "minio"
	sinkGCS   = "gcs"
)

type artifact struct {
	name        string
	contentType string
	data        []byte
}

type target struct {
	sink export.Sink
	name string // overrides the artifact name when set
}

// remoteSink builds the object-store sink named by --sink.
func remoteSink(ctx context.Context, kind string, cfg *common.Config, logger *slog.Logger) (export.Sink, func() error, error) {
	noop := func() error { return nil }
	switch kind {
	case "":
		return nil, noop, nil
	case sinkMinio:
		s, err := export.NewMinioSink(ctx, export.MinioConfig{
			Endpoint:  cfg.Export.MinioEndpoint,
			AccessKey: cfg.Export.MinioAccessKey,
			SecretKey: cfg.Export.MinioSecretKey,
			Bucket:    cfg.Export.MinioBucket,
			UseSSL:    cfg.Export.MinioUseSSL,
		}, logger)
		return s, noop, err
	case sinkGCS:
		s, err := export.NewGCSSink(ctx, cfg.Export.GCSBucket, logger)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return nil, noop, common.NewAppError("INVALID_ARGUMENT", fmt.Sprintf("unknown sink %q (want minio or gcs)", kind), common.ErrInvalidInput)
}

// fileTarget writes to an explicit path, or to the export dir when path is "-".
func fileTarget(path, defaultName string, cfg *common.Config, logger *slog.Logger) target {
	if path == "-" {
		return target{sink: export.NewFileSink(cfg.Export.Dir, logger), name: defaultName}
	}
	return target{sink: export.NewFileSink(filepath.Dir(path), logger), name: filepath.Base(path)}
}

func deliver(ctx context.Context, a artifact, targets []target) error {
	for _, t := range targets {
		name := a.name
		if t.name != "" {
			name = t.name
		}
		if err := t.sink.Put(ctx, name, a.contentType, a.data); err != nil {
			return err
		}
	}
	return nil
}
