package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/server"
)

var (
	serveWatch       []string
	serveInitialScan bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP/WebSocket and gRPC views",
	Long: `Run a long-lived session: upload files over HTTP, watch directories for new
files, and follow progress over WebSocket or gRPC.

Examples:
  docextract serve
  docextract serve --watch ./inbox --initial-scan`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringSliceVarP(&serveWatch, "watch", "w", nil, "directories to watch for new files")
	serveCmd.Flags().BoolVar(&serveInitialScan, "initial-scan", false, "enqueue files already present in watched directories")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	api := server.NewHTTPServer(sess.store, sess.queue, sess.exports, logger)
	httpSrv := api.NewServer(cfg.Server.HTTPAddr)
	grpcSrv, health := server.NewGRPCServer(sess.store, logger)

	var lis net.Listener
	if cfg.Server.GRPCAddr != "" {
		if lis, err = net.Listen("tcp", cfg.Server.GRPCAddr); err != nil {
			_ = sess.close(ctx)
			return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	if lis != nil {
		g.Go(func() error {
			logger.Info("gRPC serving", "addr", cfg.Server.GRPCAddr)
			if err := grpcSrv.Serve(lis); err != nil {
				return fmt.Errorf("grpc serve: %w", err)
			}
			return nil
		})
	}

	if len(serveWatch) > 0 {
		g.Go(func() error { return watchAndEnqueue(gctx, sess) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		grpcSrv.GracefulStop()
		if err := sess.close(shutdownCtx); err != nil {
			logger.Warn("queue did not drain before shutdown deadline", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "stopped.")
	return nil
}

// watchAndEnqueue turns every new file under the watched roots into a single-record batch.
func watchAndEnqueue(ctx context.Context, sess *session) error {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       serveWatch,
		InitialScan: serveInitialScan,
		Debounce:    500 * time.Millisecond,
		SkipHidden:  true,
	}, logger)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	ing := ingest.NewFSIngestor(logger)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher error", "error", err)
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			u, err := ing.IngestPath(ctx, p)
			if err != nil {
				logger.Warn("watch.ingest.skipped", "path", p, "error", err)
				continue
			}
			batch, err := sess.queue.Enqueue(ctx, []ingest.Upload{u})
			if err != nil {
				logger.Warn("watch.enqueue.failed", "path", p, "error", err)
				continue
			}
			logger.Info("watch.enqueued", "path", p, "batch_id", batch.ID())
		}
	}
}
