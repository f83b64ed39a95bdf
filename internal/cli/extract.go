package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/view"
)

var (
	extractOut        string
	extractXLSX       string
	extractCopy       bool
	extractSink       string
	extractNoTUI      bool
	extractPrintJSON  bool
	extractSkipHidden bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <path>...",
	Short: "Extract fields from files and directories",
	Long: `Extract structured data from document images and PDFs.

Every path is expanded (directories recursively) into a batch of records that
are processed one at a time. A live dashboard is shown when stdout is a
terminal; otherwise the cards are printed once the batch has drained.

Examples:
  docextract extract passport.jpg invoice.pdf
  docextract extract ./scans --out identity_export.json
  docextract extract ./scans --out - --xlsx - --copy
  docextract extract ./scans --sink minio --no-tui`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", `write the JSON export to this file ("-" for the export dir)`)
	extractCmd.Flags().StringVar(&extractXLSX, "xlsx", "", `write an XLSX workbook to this file ("-" for the export dir)`)
	extractCmd.Flags().BoolVar(&extractCopy, "copy", false, "copy the JSON export to the clipboard")
	extractCmd.Flags().StringVar(&extractSink, "sink", "", "also upload exports to an object store: minio or gcs")
	extractCmd.Flags().BoolVar(&extractNoTUI, "no-tui", false, "never show the live dashboard")
	extractCmd.Flags().BoolVar(&extractPrintJSON, "json", false, "print the JSON export instead of cards")
	extractCmd.Flags().BoolVar(&extractSkipHidden, "skip-hidden", true, "skip dot-files when walking directories")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uploads, failures, err := ingest.NewFSIngestor(logger).IngestPaths(ctx, args, extractSkipHidden)
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}
	for _, f := range failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", f.SourcePath, f.Err)
	}
	if len(uploads) == 0 {
		return errors.New("no supported files (images or PDFs) found")
	}

	remote, closeRemote, err := remoteSink(ctx, extractSink, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeRemote() }()

	sess, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sess.close(shutdownCtx)
	}()

	batch, err := sess.queue.Enqueue(ctx, uploads)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fd := int(os.Stdout.Fd())
	interactive := !extractNoTUI && term.IsTerminal(fd)
	width := 0
	if w, _, err := term.GetSize(fd); err == nil {
		width = w
	}

	if interactive {
		quit, err := view.RunDashboard(sess.store, batch.Done(), width)
		if err != nil {
			return err
		}
		if quit && !batch.Finished() {
			fmt.Fprintln(cmd.ErrOrStderr(), "waiting for the remaining files (Ctrl+C to abort)...")
		}
	}
	if err := batch.Wait(ctx); err != nil {
		return fmt.Errorf("interrupted before the batch finished: %w", err)
	}

	docs := sess.store.Snapshot()
	r := view.NewRenderer(view.DefaultTheme, width)
	if extractPrintJSON {
		js, err := export.MarshalJSON(export.BuildEntries(docs))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(js))
	} else if !interactive {
		fmt.Fprintln(out, r.Summary(docs))
	} else {
		fmt.Fprintln(out, r.Stats(sess.store.Stats()))
	}

	return writeExports(ctx, sess, remote)
}

func writeExports(ctx context.Context, sess *session, remote export.Sink) error {
	var jsonTargets, xlsxTargets []target
	if extractOut != "" {
		jsonTargets = append(jsonTargets, fileTarget(extractOut, export.DefaultFilename, cfg, logger))
	}
	if extractCopy {
		jsonTargets = append(jsonTargets, target{sink: export.NewClipboardSink(logger)})
	}
	if extractXLSX != "" {
		xlsxTargets = append(xlsxTargets, fileTarget(extractXLSX, export.DefaultXLSXFilename, cfg, logger))
	}
	if remote != nil {
		jsonTargets = append(jsonTargets, target{sink: remote})
		if extractXLSX != "" {
			xlsxTargets = append(xlsxTargets, target{sink: remote})
		}
	}

	if len(jsonTargets) > 0 {
		b, err := sess.exports.ExportJSON(ctx)
		if err != nil {
			return err
		}
		if err := deliver(ctx, artifact{export.DefaultFilename, export.JSONContentType, b}, jsonTargets); err != nil {
			return err
		}
	}
	if len(xlsxTargets) > 0 {
		b, err := sess.exports.ExportXLSX(ctx)
		if err != nil {
			return err
		}
		if err := deliver(ctx, artifact{export.DefaultXLSXFilename, export.XLSXContentType, b}, xlsxTargets); err != nil {
			return err
		}
	}
	return nil
}
