package index

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	reqctx "github.com/mevzuatgpt/mevzuat/internal/pkg/context"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
	"github.com/mevzuatgpt/mevzuat/internal/sink"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

// Document statuses.
const (
	StatusIndexed = "indexed"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
	StatusRemoved = "removed"
)

// PipelineConfig configures the indexing pipeline.
type PipelineConfig struct {
	// Workers is the number of documents processed in parallel.
	Workers int

	// RateLimit caps sink writes per second; zero means unlimited.
	RateLimit float64

	// SkipUnchanged skips files whose content hash is already tracked.
	SkipUnchanged bool

	// TrackerDir persists the tracker between runs; empty keeps it in
	// memory only.
	TrackerDir string
}

// DefaultPipelineConfig returns sensible defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Workers:       4,
		SkipUnchanged: true,
	}
}

// Recorder receives pipeline measurements. It is implemented by the metrics
// package.
type Recorder interface {
	RecordDocument(status string, duration time.Duration)
	RecordParse(res *statute.Result)
	RecordSinkWrite(sink string, duration time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordDocument(string, time.Duration)         {}
func (nopRecorder) RecordParse(*statute.Result)                  {}
func (nopRecorder) RecordSinkWrite(string, time.Duration, error) {}

// ProgressFunc is called after each document finishes.
type ProgressFunc func(done, total int, info DocInfo)

// Pipeline orchestrates the indexing flow:
// file → parse → sinks → tracker
type Pipeline struct {
	cfg      PipelineConfig
	parser   *statute.Parser
	sink     sink.Sink
	tracker  *Tracker
	limiter  *rate.Limiter
	recorder Recorder
	progress ProgressFunc
	log      *logger.Logger

	// saveMu serializes tracker saves.
	saveMu sync.Mutex
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithProgress sets a per-document progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// NewPipeline creates an indexing pipeline writing to s. The tracker is
// loaded from cfg.TrackerDir when set.
func NewPipeline(cfg PipelineConfig, parser *statute.Parser, s sink.Sink, log *logger.Logger, opts ...Option) (*Pipeline, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if log == nil {
		log = logger.Default()
	}

	p := &Pipeline{
		cfg:      cfg,
		parser:   parser,
		sink:     s,
		tracker:  NewTracker(),
		limiter:  rate.NewLimiter(rate.Inf, 1),
		recorder: nopRecorder{},
		log:      log.WithComponent("index"),
	}
	if cfg.RateLimit > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	for _, opt := range opts {
		opt(p)
	}

	if cfg.TrackerDir != "" {
		if err := p.tracker.Load(cfg.TrackerDir); err != nil {
			return nil, errors.IOError("loading index tracker", err).WithDetail("dir", cfg.TrackerDir)
		}
	}

	return p, nil
}

// Tracker returns the pipeline's tracker.
func (p *Pipeline) Tracker() *Tracker {
	return p.tracker
}

// IndexRequest represents a request to index files.
type IndexRequest struct {
	Paths []string
	Force bool // Force re-index even if unchanged
}

// IndexResult represents the result of an indexing operation.
type IndexResult struct {
	RunID       string        `json:"run_id,omitempty"`
	Indexed     int           `json:"indexed"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Removed     int           `json:"removed"`
	Chunks      int           `json:"chunks"`
	Diagnostics int           `json:"diagnostics"`
	Duration    time.Duration `json:"duration"`
	Errors      []IndexError  `json:"errors,omitempty"`
	Documents   []DocInfo     `json:"documents,omitempty"`
}

// IndexError represents an error during indexing.
type IndexError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DocInfo contains info about one processed document.
type DocInfo struct {
	Path        string `json:"path"`
	Hash        string `json:"hash,omitempty"`
	Title       string `json:"kanun_adi,omitempty"`
	ChunkCount  int    `json:"chunk_count"`
	Diagnostics int    `json:"diagnostics"`
	Status      string `json:"status"`
}

// Index parses every file in req.Paths and writes it to the sink. A failing
// document is reported in the result and does not stop the others; only
// context cancellation aborts the run.
func (p *Pipeline) Index(ctx context.Context, req IndexRequest) (*IndexResult, error) {
	start := time.Now()
	ctx, runID := reqctx.EnsureRunID(ctx)
	result := &IndexResult{RunID: runID}

	if len(req.Paths) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for _, path := range req.Paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			info, err := p.indexFile(gctx, path, req.Force)

			mu.Lock()
			result.add(info, err)
			done++
			n := done
			mu.Unlock()

			if p.progress != nil {
				p.progress(n, len(req.Paths), info)
			}

			// Cancellation ends the run; document errors do not.
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return nil
		})
	}

	runErr := g.Wait()

	if err := p.saveTracker(); err != nil {
		p.log.Warn("failed to save index tracker", "error", err.Error())
	}

	slices.SortFunc(result.Documents, func(a, b DocInfo) int {
		return cmp.Compare(a.Path, b.Path)
	})
	result.Duration = time.Since(start)

	if runErr != nil {
		return result, errors.IndexingError("indexing interrupted", runErr)
	}

	p.log.Info("indexing complete",
		"run_id", runID,
		"indexed", result.Indexed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"chunks", result.Chunks,
		"duration", result.Duration.String(),
	)
	return result, nil
}

func (r *IndexResult) add(info DocInfo, err error) {
	r.Documents = append(r.Documents, info)
	switch info.Status {
	case StatusIndexed:
		r.Indexed++
		r.Chunks += info.ChunkCount
		r.Diagnostics += info.Diagnostics
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	if err != nil {
		r.Errors = append(r.Errors, IndexError{
			Path:    info.Path,
			Code:    errors.CodeOf(err),
			Message: err.Error(),
		})
	}
}

// indexFile runs one file through the pipeline.
func (p *Pipeline) indexFile(ctx context.Context, path string, force bool) (info DocInfo, err error) {
	start := time.Now()
	info = DocInfo{Path: path, Status: StatusFailed}
	log := p.log.WithDocument(path)

	defer func() {
		p.recorder.RecordDocument(info.Status, time.Since(start))
		if err != nil {
			log.Warn("document failed", "error", err.Error())
		}
	}()

	doc, err := LoadDocument(path)
	if err != nil {
		return info, err
	}
	info.Hash = doc.Hash

	if p.cfg.SkipUnchanged && !force && p.tracker.Unchanged(path, doc.Hash) {
		info.Status = StatusSkipped
		if e, ok := p.tracker.Get(path); ok {
			info.ChunkCount = e.Chunks
		}
		log.Debug("unchanged, skipping")
		return info, nil
	}

	res, err := p.parser.ParseBytes(doc.Content)
	if err != nil {
		return info, err
	}
	p.recorder.RecordParse(res)

	info.Title = res.Metadata.Title
	info.ChunkCount = len(res.Chunks)
	info.Diagnostics = len(res.Diagnostics)
	for _, d := range res.Diagnostics {
		log.Debug("line ignored", "line", d.Line, "reason", d.Reason)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return info, err
	}

	writeStart := time.Now()
	err = p.sink.Write(ctx, doc.Identity(), res)
	p.recorder.RecordSinkWrite(p.sink.Name(), time.Since(writeStart), err)
	if err != nil {
		return info, err
	}

	p.tracker.Record(path, Entry{
		Hash:       doc.Hash,
		DocumentID: doc.ID,
		Chunks:     len(res.Chunks),
	})

	info.Status = StatusIndexed
	log.Info("indexed", "chunks", info.ChunkCount, "diagnostics", info.Diagnostics)
	return info, nil
}

// Remove deletes files from the sinks and the tracker.
func (p *Pipeline) Remove(ctx context.Context, paths []string) (*IndexResult, error) {
	start := time.Now()
	ctx, runID := reqctx.EnsureRunID(ctx)
	result := &IndexResult{RunID: runID}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, errors.IndexingError("removal interrupted", err)
		}

		if err := p.sink.Remove(ctx, path); err != nil {
			result.add(DocInfo{Path: path, Status: StatusFailed}, err)
			continue
		}
		p.tracker.Forget(path)
		result.Removed++
		result.Documents = append(result.Documents, DocInfo{Path: path, Status: StatusRemoved})
		p.recorder.RecordDocument(StatusRemoved, 0)
		p.log.Info("removed", "path", path, "run_id", runID)
	}

	if err := p.saveTracker(); err != nil {
		p.log.Warn("failed to save index tracker", "error", err.Error())
	}

	result.Duration = time.Since(start)
	return result, nil
}

// Prune removes tracked files that are no longer among currentPaths.
func (p *Pipeline) Prune(ctx context.Context, currentPaths []string) (*IndexResult, error) {
	return p.Remove(ctx, p.tracker.Removed(currentPaths))
}

func (p *Pipeline) saveTracker() error {
	if p.cfg.TrackerDir == "" {
		return nil
	}
	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	return p.tracker.Save(p.cfg.TrackerDir)
}
