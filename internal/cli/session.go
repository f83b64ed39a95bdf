package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docextract/internal/async"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/core"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/store"
)

// session is one run of the app: a record store, its queue and the export service.
type session struct {
	store   *store.Store
	queue   *async.ProcessorQueue
	exports *export.Service
	logger  *slog.Logger
	closeFn func() error
}

func newSession(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*session, error) {
	extractor, closeFn, err := NewExtractor(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}

	st := store.New(logger)
	proc := core.NewProcessor(logger, extractor, cfg.Queue.ProcessTimeout)
	q := async.NewProcessorQueue(proc, st, logger,
		async.WithMinInterval(cfg.Queue.MinInterval),
		async.WithMaxInFlight(int64(cfg.Queue.MaxInFlight)),
	)
	return &session{
		store:   st,
		queue:   q,
		exports: export.NewService(st, logger),
		logger:  logger,
		closeFn: closeFn,
	}, nil
}

// close drains the queue, then revokes previews and releases the provider.
func (s *session) close(ctx context.Context) error {
	err := s.queue.Shutdown(ctx)
	s.store.Close()
	if cerr := s.closeFn(); cerr != nil {
		s.logger.Warn("extractor close failed", "error", cerr)
	}
	return err
}
