// Package cli provides the command-line interface for docextract.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/common"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	configPath string
	verbose    bool

	// Loaded in PersistentPreRunE
	cfg      *common.Config
	logger   *slog.Logger
	closeLog func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Extract structured data from document images and PDFs",
	Long: `docextract sends document images and PDFs to a multimodal model, one at a time,
and collects whatever fields the model finds into a JSON export.

Files are processed strictly in the order given, with a short cooldown between
extractions. A failed file is marked and never blocks the rest of the batch.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = common.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "DEBUG"
		}
		logger, closeLog = common.SetupLogger(cfg.Log)
		slog.SetDefault(logger)

		if err := cfg.Validate(cmd.Name() == "serve"); err != nil {
			return err
		}
		logger.Debug("config.loaded",
			"provider", cfg.LLM.Provider,
			"model", cfg.LLM.Model,
			"min_interval", cfg.Queue.MinInterval.String(),
			"max_in_flight", cfg.Queue.MaxInFlight,
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
