package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"medio/internal/index"
	"medio/internal/logging"
	"medio/internal/organize"
	"medio/internal/preflight"
	"medio/internal/services"
	"medio/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the source directory and organize files as they settle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			if !preflight.AllPassed(results) {
				fmt.Fprintln(cmd.ErrOrStderr(), renderPreflight(cmd.ErrOrStderr(), results))
				return fmt.Errorf("preflight checks failed")
			}

			logger, logPath, err := newRunLogger(cfg)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			runID := uuid.NewString()
			runCtx := services.WithRunID(signalCtx, runID)
			logger.Info("starting watch",
				logging.String("run_id", runID),
				logging.String("log_file", logPath),
			)

			var cache *index.Cache
			if cfg.Index.CacheEnabled {
				cache, err = index.OpenCache(cfg.Index.CachePath)
				if err != nil {
					return fmt.Errorf("open fingerprint cache: %w", err)
				}
				defer cache.Close()
			}

			ix := index.New(cfg.Organize.MaxCounterAttempts)
			if cfg.Index.Preseed {
				stats, err := index.Preseed(runCtx, ix, cfg.Paths.LibraryDir, cache, logger)
				if err != nil {
					return fmt.Errorf("pre-seed library index: %w", err)
				}
				logger.Info("library index pre-seeded",
					logging.Int("files", stats.Files),
					logging.Int("hashed", stats.Hashed),
					logging.Int("cache_hits", stats.CacheHits),
				)
			}

			var opts []organize.Option
			if cache != nil {
				opts = append(opts, organize.WithCache(cache))
			}
			pipeline, err := organize.New(cfg, ix, organize.NewMoveExecutor(), logger, opts...)
			if err != nil {
				return err
			}

			watcher, err := watch.New(cfg, pipeline.Run, logger)
			if err != nil {
				return err
			}

			err = watcher.Run(runCtx)
			if errors.Is(err, context.Canceled) {
				logger.Info("watch stopped")
				return nil
			}
			return err
		},
	}
}
