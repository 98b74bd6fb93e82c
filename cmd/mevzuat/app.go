package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/mevzuatgpt/mevzuat/internal/bus"
	"github.com/mevzuatgpt/mevzuat/internal/config"
	"github.com/mevzuatgpt/mevzuat/internal/index"
	"github.com/mevzuatgpt/mevzuat/internal/metrics"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
	"github.com/mevzuatgpt/mevzuat/internal/qdrant"
	"github.com/mevzuatgpt/mevzuat/internal/sink"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

// app holds what every command needs: configuration, logging and metrics.
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	metrics     *metrics.Metrics
	metricsFile string
	format      string
}

// newApp loads .env, the config file and the environment, applying the
// global flags on top.
func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	format, _ := cmd.Flags().GetString("format")

	if err := config.LoadDotEnv(); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "loading .env", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "loading config", err)
	}

	// Setup logger
	logLevel := cfg.Log.Level
	if verbose {
		logLevel = "debug"
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), logLevel, cfg.Log.Format)

	if metricsFile == "" {
		metricsFile = cfg.Metrics.File
	}

	a := &app{
		cfg:         cfg,
		log:         log,
		metricsFile: metricsFile,
		format:      format,
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(cfg.Metrics.Namespace)
	}

	return a, nil
}

// parser builds a statute parser from the parse config.
func (a *app) parser() *statute.Parser {
	return statute.NewParser(statute.Options{
		NormalizeUnicode: a.cfg.Parse.NormalizeUnicode,
		StrictHierarchy:  a.cfg.Parse.StrictHierarchy,
		Encoding:         a.cfg.Parse.Encoding,
	})
}

// recorder returns the metrics as a pipeline recorder, or nil when metrics
// are disabled.
func (a *app) recorder() index.Recorder {
	if a.metrics == nil {
		return nil
	}
	return a.metrics
}

// flushMetrics writes the metrics textfile if one is configured.
func (a *app) flushMetrics() {
	if a.metrics == nil || a.metricsFile == "" {
		return
	}
	if err := a.metrics.WriteToTextfile(a.metricsFile); err != nil {
		a.log.Warn("failed to write metrics file", "path", a.metricsFile, "error", err.Error())
		return
	}
	a.log.Debug("metrics written", "path", a.metricsFile)
}

// qdrantClient connects to Qdrant using the qdrant config and checks that the
// server answers.
func (a *app) qdrantClient(ctx context.Context) (*qdrant.Client, error) {
	qc := a.cfg.Qdrant
	client, err := qdrant.NewClient(qdrant.ClientConfig{
		Host:             qc.Host,
		Port:             qc.Port,
		APIKey:           qc.APIKey,
		UseTLS:           qc.UseTLS,
		CollectionPrefix: qc.CollectionPrefix,
		Timeout:          a.cfg.QdrantTimeout(),
	})
	if err != nil {
		return nil, errors.QdrantError("connecting to qdrant", err)
	}

	version, err := client.ServerVersion(ctx)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(errors.CodeUnavailable, "qdrant not reachable", err).
			WithDetail("address", client.Address())
	}
	a.log.Debug("qdrant connected", "address", client.Address(), "version", version)
	return client, nil
}

// eventBus creates the configured bus, instrumented with metrics when they
// are enabled.
func (a *app) eventBus() (bus.Bus, error) {
	b, err := bus.NewBus(a.cfg.Bus, a.log)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		return bus.NewInstrumentedBus(b, a.metrics), nil
	}
	return b, nil
}

// sinks opens every configured sink together with the clients they need.
// The returned close function releases all of them.
func (a *app) sinks(ctx context.Context) (sink.Multi, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				a.log.Warn("error during shutdown", "error", err.Error())
			}
		}
	}

	deps := sink.Deps{Log: a.log}

	if a.cfg.HasSink(config.SinkBus) {
		b, err := a.eventBus()
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, b.Close)
		deps.Bus = b
	}

	if a.cfg.HasSink(config.SinkQdrant) {
		client, err := a.qdrantClient(ctx)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, client.Close)
		deps.Qdrant = client
	}

	sinks, err := sink.New(ctx, a.cfg, deps)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	// Sinks close before the clients they use.
	closers = append(closers, sinks.Close)

	a.log.Debug("sinks ready", "sinks", sinks.Name())
	return sinks, closeAll, nil
}

// writeJSON writes v to w as indented JSON with literal non-ASCII text.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
