package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"medio/internal/index"
	"medio/internal/logging"
	"medio/internal/organize"
	"medio/internal/preflight"
	"medio/internal/scan"
	"medio/internal/services"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Organize source files into the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if !skipPreflight {
				results := preflight.RunAll(cmd.Context(), cfg)
				if !preflight.AllPassed(results) {
					fmt.Fprintln(cmd.ErrOrStderr(), renderPreflight(cmd.ErrOrStderr(), results))
					return fmt.Errorf("preflight checks failed")
				}
			}

			logger, logPath, err := newRunLogger(cfg)
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			runCtx := services.WithRunID(cmd.Context(), runID)
			logger.Info("starting organize run",
				logging.String("run_id", runID),
				logging.String("source_dir", cfg.Paths.SourceDir),
				logging.String("library_dir", cfg.Paths.LibraryDir),
				logging.String("log_file", logPath),
				logging.Bool("dry_run", dryRun),
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

			candidates, err := scan.Sources(cfg.Paths.SourceDir, cfg.AcceptsExtension)
			if err != nil {
				return fmt.Errorf("scan source directory: %w", err)
			}

			var exec organize.Executor
			var dryExec *organize.DryRunExecutor
			if dryRun {
				dryExec = organize.NewDryRunExecutor()
				exec = dryExec
			} else {
				exec = organize.NewMoveExecutor()
			}

			var opts []organize.Option
			if cache != nil {
				opts = append(opts, organize.WithCache(cache))
			}
			pipeline, err := organize.New(cfg, ix, exec, logger, opts...)
			if err != nil {
				return err
			}

			summary, runErr := pipeline.Run(runCtx, candidates)
			printSummary(cmd, summary, dryRun)
			if dryRun && dryExec != nil {
				printPlannedOps(cmd, dryExec.Ops())
			}
			return runErr
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report decisions without moving files")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before the run")
	return cmd
}

func printSummary(cmd *cobra.Command, summary *organize.Summary, dryRun bool) {
	if summary == nil {
		return
	}
	out := cmd.OutOrStdout()

	if dryRun {
		fmt.Fprintln(out, "Dry run; no files were moved.")
	}
	if isTerminal(out) {
		headers := []string{"Result", "Files"}
		rows := [][]string{
			{"Placed", strconv.Itoa(summary.Placed)},
			{"Duplicates", strconv.Itoa(summary.Duplicates)},
			{"Failed", strconv.Itoa(summary.Failed)},
			{"Total", strconv.Itoa(summary.Total())},
		}
		fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignRight}))
	} else {
		fmt.Fprintf(out, "placed=%d duplicates=%d failed=%d total=%d\n",
			summary.Placed, summary.Duplicates, summary.Failed, summary.Total())
	}

	for _, failure := range summary.Failures {
		fmt.Fprintf(out, "failed: %s: %v\n", failure.Source, failure.Err)
	}
}

func printPlannedOps(cmd *cobra.Command, ops []organize.PlannedOp) {
	out := cmd.OutOrStdout()
	for _, op := range ops {
		switch op.Op {
		case "move":
			fmt.Fprintf(out, "would move %s -> %s\n", op.Src, op.Dst)
		case "delete":
			fmt.Fprintf(out, "would delete %s\n", op.Src)
		}
	}
}