package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/middleware"
	"github.com/mevzuatgpt/mevzuat/internal/watch"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dirs...>",
		Short: "Index statute directories and keep them in sync",
		Long: `Index every statute file under the given directories, then re-index files
as they are created or changed and remove deleted ones from the sinks.

Paths matching .gitignore or .mevzuatignore in a watched directory are
skipped.

Examples:
  mevzuat watch kanunlar/                     # Run in the foreground
  mevzuat watch -d kanunlar/                  # Run as a background daemon
  mevzuat watch --metrics-addr :9090 kanunlar/
  mevzuat watch list
  mevzuat watch stop --all`,
		Args: cobra.MinimumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().BoolP("daemon", "d", false, "run in the background")
	cmd.Flags().Bool("foreground", false, "run in the foreground (used by --daemon)")
	_ = cmd.Flags().MarkHidden("foreground")
	cmd.Flags().Bool("prune", true, "remove indexed files that vanished while not watching")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringSlice("sinks", nil, "override the configured sinks")
	cmd.Flags().StringSlice("ext", nil, "file extensions to index (default from config)")

	cmd.AddCommand(watchListCmd(), watchStopCmd())

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	daemon, _ := cmd.Flags().GetBool("daemon")
	foreground, _ := cmd.Flags().GetBool("foreground")

	dirs := make([]string, len(args))
	for i, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return errors.IOError("resolving watch path", err).WithDetail("path", arg)
		}
		dirs[i] = abs
	}

	if daemon && !foreground {
		return startDaemon(cmd, dirs)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.flushMetrics()

	prune, _ := cmd.Flags().GetBool("prune")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	exts := a.cfg.Watch.Extensions
	if cmd.Flags().Changed("ext") {
		exts, _ = cmd.Flags().GetStringSlice("ext")
	}
	if err := applySinkFlags(cmd, a.cfg); err != nil {
		return err
	}

	ctx, stop := shutdownContext(cmd.Context())
	defer stop()

	pipeline, closeSinks, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeSinks()

	if metricsAddr != "" && a.metrics != nil {
		srv := a.serveMetrics(metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	state := &watch.WatcherState{
		PID:       os.Getpid(),
		Paths:     dirs,
		Sinks:     a.cfg.Output.Sinks,
		StartedAt: time.Now(),
	}
	if err := watch.SaveState(state); err != nil {
		a.log.Warn("failed to save watcher state", "error", err.Error())
	}
	defer func() { _ = watch.RemoveState(state.PID) }()

	w, err := watch.NewWatcher(watch.WatcherConfig{
		Paths:      dirs,
		Extensions: exts,
		Debounce:   a.cfg.WatchDebounce(),
		Prune:      prune,
		Indexer:    pipeline,
		Log:        a.log,
		OnSync: func(fileCount int, at time.Time) {
			state.FileCount = fileCount
			state.LastSync = at
			if err := watch.SaveState(state); err != nil {
				a.log.Warn("failed to save watcher state", "error", err.Error())
			}
			a.flushMetrics()
		},
	})
	if err != nil {
		return err
	}

	err = w.Start(ctx)
	if stderrors.Is(err, context.Canceled) {
		a.log.Info("watcher stopped")
		return nil
	}
	return err
}

// serveMetrics starts an HTTP server exposing /metrics in the background.
func (a *app) serveMetrics(addr string) *http.Server {
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	mux := http.NewServeMux()
	mux.Handle("/metrics", rl.Middleware(a.metrics.Handler()))

	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Logging(a.log)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv.RegisterOnShutdown(rl.Stop)

	go func() {
		a.log.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("metrics server error", "error", err.Error())
		}
	}()

	return srv
}

// startDaemon re-runs this watch command in the background with the same
// flags.
func startDaemon(cmd *cobra.Command, dirs []string) error {
	args := []string{"watch", "--foreground"}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "daemon" || f.Name == "foreground" {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			for _, v := range sv.GetSlice() {
				args = append(args, "--"+f.Name+"="+v)
			}
			return
		}
		args = append(args, "--"+f.Name+"="+f.Value.String())
	})
	args = append(args, dirs...)

	pid, err := watch.StartDaemon(args)
	if err != nil {
		return errors.InternalError("starting watcher daemon", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watcher started (pid %d)\n", pid)
	fmt.Fprintf(cmd.OutOrStdout(), "  log: %s\n", filepath.Join(watch.StateDir(), "daemon.log"))
	return nil
}

func watchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List running watchers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := watch.ListStates()
			if err != nil {
				return errors.IOError("listing watchers", err)
			}

			out := cmd.OutOrStdout()
			if format, _ := cmd.Flags().GetString("format"); format == "json" {
				if states == nil {
					states = []*watch.WatcherState{}
				}
				return writeJSON(out, states)
			}

			if len(states) == 0 {
				fmt.Fprintln(out, "no running watchers")
				return nil
			}
			for _, s := range states {
				lastSync := "never"
				if !s.LastSync.IsZero() {
					lastSync = s.LastSync.Format(time.RFC3339)
				}
				fmt.Fprintf(out, "%-8d files=%-5d last_sync=%s  %v\n", s.PID, s.FileCount, lastSync, s.Paths)
			}
			return nil
		},
	}
}

func watchStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [pid]",
		Short: "Stop a running watcher",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			out := cmd.OutOrStdout()

			if all {
				n, err := watch.StopAllDaemons()
				if err != nil {
					return errors.IOError("stopping watchers", err)
				}
				fmt.Fprintf(out, "stopped %d watcher(s)\n", n)
				return nil
			}

			if len(args) == 0 {
				return errors.ValidationError("give a pid or --all")
			}
			pid, err := strconv.Atoi(args[0])
			if err != nil || pid <= 0 {
				return errors.ValidationError("invalid pid: " + args[0])
			}
			if _, err := watch.LoadState(pid); err != nil {
				return errors.NotFoundError(fmt.Sprintf("watcher %d", pid))
			}
			if err := watch.StopDaemon(pid); err != nil {
				return errors.InternalError("stopping watcher", err)
			}
			fmt.Fprintf(out, "stopped watcher %d\n", pid)
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "stop all running watchers")
	return cmd
}
