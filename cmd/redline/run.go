package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/config"
	"github.com/jackzampolin/redline/internal/pipeline"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/trace"
)

var runCmd = &cobra.Command{
	Use:   "run <original_folder> <amendment_folder> <contract_id>",
	Short: "Compare an original contract against an amendment",
	Long: `Run the full comparison pipeline: extract text from the page images in
both folders, align the amendment against the relevant slice of the original,
and print the structured change summary.

Page images must be named so that lexicographic order equals page order
(e.g. page-0001.png, page-0002.png).`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		originalDir, amendmentDir, contractID := args[0], args[1], args[2]

		logger := newLogger()

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get().Resolved()
		if err := cfg.Validate(); err != nil {
			return err
		}

		client := providers.NewClient(providers.Config{
			APIKey:     cfg.Provider.APIKey,
			BaseURL:    cfg.Provider.BaseURL,
			Timeout:    time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
			RPM:        cfg.Provider.RateLimit,
			MaxRetries: cfg.Provider.MaxRetries,
		})

		// Long runs pick up rate-limit changes from the config file without
		// a restart. Model selection stays fixed for the run.
		cm.OnChange(func(changed *config.Config) {
			resolved := changed.Resolved()
			if err := resolved.Validate(); err != nil {
				logger.Warn("ignoring invalid config change", "error", err)
				return
			}
			client.SetRPM(resolved.Provider.RateLimit)
			logger.Info("configuration reloaded", "rate_limit", resolved.Provider.RateLimit)
		})
		cm.WatchConfig()

		p := pipeline.New(cfg, client, logger, trace.New(logger))
		summary, err := p.Run(cmd.Context(), originalDir, amendmentDir, contractID)
		if err != nil {
			return fmt.Errorf("pipeline failed: %w", err)
		}

		return api.Output(summary)
	},
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
