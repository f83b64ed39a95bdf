// Command llm runs the configured extraction backend against one file several times
// and logs the outcome of each attempt. Useful for comparing providers and prompts.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joseph-ayodele/docextract/internal/cli"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: llm <file> [times]")
		os.Exit(2)
	}
	path := os.Args[1]
	times := 3
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}

	cfg, err := common.LoadConfig(getenv("DOCEXTRACT_CONFIG", ""))
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(false); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	u, err := ingest.NewFSIngestor(logger).IngestPath(ctx, path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	extractor, closeFn, err := cli.NewExtractor(ctx, cfg, logger)
	if err != nil {
		logger.Error("init extractor", "provider", cfg.LLM.Provider, "error", err)
		os.Exit(1)
	}
	defer func() { _ = closeFn() }()

	base := filepath.Base(path)
	var ok, failed int
	for i := 1; i <= times; i++ {
		runCtx, cancelRun := context.WithTimeout(ctx, 2*time.Minute)
		start := time.Now()
		logger.Info("llm.run.start", "iter", i, "basename", base, "media_type", u.MediaType)

		fields, raw, err := extractor.Extract(runCtx, llm.ExtractRequest{Data: u.Data, MediaType: u.MediaType, Filename: base})
		cancelRun()

		if err != nil {
			failed++
			logger.Error("llm.run.error", "iter", i, "kind", llm.KindOf(err), "err", err)
		} else {
			ok++
			docType, _ := fields.DocumentType()
			logger.Info("llm.run.ok",
				"iter", i,
				"document_type", docType,
				"keys", len(fields),
				"raw_bytes", len(raw),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		}

		time.Sleep(cfg.Queue.MinInterval)
	}

	logger.Info("done", "path", path, "times", times, "ok", ok, "failed", failed)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
