package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/app"
	"github.com/JakeFAU/trivia-archive/internal/archive"
	"github.com/JakeFAU/trivia-archive/internal/config"
	"github.com/JakeFAU/trivia-archive/internal/logging"
)

// cliState carries what the root command prepares for its subcommands.
type cliState struct {
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	rt := &cliState{}
	cmd := &cobra.Command{
		Use:   "archiver",
		Short: "Ingests J! Archive shows and serves boards and grading.",
		Long: `archiver mirrors show pages from the J! Archive site into a relational
dataset of shows, rounds, categories and clues, and grades free-text
responses against the archived correct responses.`,
		SilenceUsage: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(rt.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			rt.cfg = cfg
			rt.logger = logger
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if rt.logger == nil {
				return
			}
			if err := rt.logger.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
				fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", err)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&rt.cfgFile, "config", "", "path to a YAML config file")

	cmd.AddCommand(newIngestCmd(rt))
	cmd.AddCommand(newServeCmd(rt))
	return cmd
}

// openApp builds the application services. A missing schema is fatal.
func (rt *cliState) openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(cmd.Context(), rt.cfg, rt.logger)
	if errors.Is(err, archive.ErrSchemaMissing) {
		rt.logger.Fatal("schema unavailable", zap.Error(err))
	}
	if err != nil {
		return nil, fmt.Errorf("initialize application services: %w", err)
	}
	return a, nil
}
