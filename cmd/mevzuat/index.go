package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mevzuatgpt/mevzuat/internal/config"
	"github.com/mevzuatgpt/mevzuat/internal/index"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
)

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <files|dirs...>",
		Short: "Parse statute files and write their chunks to the configured sinks",
		Long: `Parse every statute file given, directories recursively, and write the
chunks to each configured sink (json, redis, qdrant, bus).

Files whose content has not changed since the last run are skipped unless
--force is given. With --prune, files indexed earlier that are no longer
among the inputs are removed from the sinks.

Examples:
  mevzuat index kanunlar/
  mevzuat index --sinks json,qdrant --workers 8 kanunlar/
  mevzuat index --prune --force kanunlar/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIndex,
	}

	cmd.Flags().Bool("force", false, "re-index files even if unchanged")
	cmd.Flags().Bool("prune", false, "remove previously indexed files that are no longer present")
	cmd.Flags().Int("workers", 0, "documents parsed in parallel (default from config)")
	cmd.Flags().StringSlice("sinks", nil, "override the configured sinks")
	cmd.Flags().StringSlice("ext", nil, "file extensions to index in directories (default from config)")

	return cmd
}

// shutdownContext returns a context cancelled on SIGINT or SIGTERM.
func shutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// newPipeline builds the indexing pipeline on top of the configured sinks.
func (a *app) newPipeline(ctx context.Context, opts ...index.Option) (*index.Pipeline, func(), error) {
	sinks, closeSinks, err := a.sinks(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts = append(opts, index.WithRecorder(a.recorder()))
	pipeline, err := index.NewPipeline(index.PipelineConfig{
		Workers:       a.cfg.Index.Workers,
		RateLimit:     a.cfg.Index.RateLimit,
		SkipUnchanged: a.cfg.Index.SkipUnchanged,
		TrackerDir:    a.cfg.Index.TrackerDir,
	}, a.parser(), sinks, a.log, opts...)
	if err != nil {
		closeSinks()
		return nil, nil, err
	}

	return pipeline, closeSinks, nil
}

// applySinkFlags overrides the configured sinks from --sinks and re-checks
// the config.
func applySinkFlags(cmd *cobra.Command, cfg *config.Config) error {
	if !cmd.Flags().Changed("sinks") {
		return nil
	}
	cfg.Output.Sinks, _ = cmd.Flags().GetStringSlice("sinks")
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(errors.CodeValidation, "invalid --sinks", err)
	}
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.flushMetrics()

	force, _ := cmd.Flags().GetBool("force")
	prune, _ := cmd.Flags().GetBool("prune")
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		a.cfg.Index.Workers = workers
	}
	exts := a.cfg.Watch.Extensions
	if cmd.Flags().Changed("ext") {
		exts, _ = cmd.Flags().GetStringSlice("ext")
	}
	if err := applySinkFlags(cmd, a.cfg); err != nil {
		return err
	}

	ctx, stop := shutdownContext(cmd.Context())
	defer stop()

	files, err := index.CollectFiles(args, exts)
	if err != nil {
		return err
	}
	a.log.Info("collected statute files", "files", len(files))

	pipeline, closeSinks, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeSinks()

	if prune {
		res, err := pipeline.Prune(ctx, files)
		if err != nil {
			return err
		}
		if res.Removed > 0 {
			a.log.Info("pruned vanished files", "removed", res.Removed)
		}
	}

	result, err := pipeline.Index(ctx, index.IndexRequest{Paths: files, Force: force})
	if result != nil {
		if perr := a.printIndexResult(cmd.OutOrStdout(), result); perr != nil {
			a.log.Warn("failed to print result", "error", perr.Error())
		}
	}
	if err != nil {
		return err
	}

	if result.Failed > 0 {
		return errors.IndexingError(fmt.Sprintf("%d of %d documents failed", result.Failed, len(files)), nil)
	}
	return nil
}

func (a *app) printIndexResult(w io.Writer, result *index.IndexResult) error {
	if a.format == "json" {
		return writeJSON(w, result)
	}

	for _, doc := range result.Documents {
		if doc.Status == index.StatusSkipped {
			continue
		}
		fmt.Fprintf(w, "%-8s %4d chunk  %s", doc.Status, doc.ChunkCount, doc.Path)
		if doc.Title != "" {
			fmt.Fprintf(w, "  (%s)", doc.Title)
		}
		fmt.Fprintln(w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "error    %s: %s\n", e.Path, e.Message)
	}

	fmt.Fprintf(w, "\n%d indexed, %d skipped, %d failed, %d chunks in %s\n",
		result.Indexed, result.Skipped, result.Failed, result.Chunks, result.Duration.Round(time.Millisecond))
	return nil
}
