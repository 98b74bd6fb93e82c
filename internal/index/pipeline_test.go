package index

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
	"github.com/mevzuatgpt/mevzuat/internal/sink"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

const tckText = `TÜRK CEZA KANUNU
Kanun Numarası : 5237
MADDE 1 - (1) Ceza Kanununun amacı; kişi hak ve özgürlüklerini korumaktır.
MADDE 2 - (1) Kanunun açıkça suç saymadığı bir fiil için kimseye ceza verilemez.
`

const tbkText = `TÜRK BORÇLAR KANUNU
Kanun Numarası : 6098
MADDE 1 - (1) Sözleşme, tarafların iradelerini karşılıklı ve birbirine uygun olarak açıklamalarıyla kurulur.
`

// fakeSink records writes and removals in memory.
type fakeSink struct {
	mu      sync.Mutex
	writes  map[string]int // source -> chunk count
	removed []string
	failOn  string
}

func newFakeSink() *fakeSink {
	return &fakeSink{writes: make(map[string]int)}
}

func (s *fakeSink) Name() string { return "fake" }

func (s *fakeSink) Write(_ context.Context, doc sink.Document, res *statute.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && filepath.Base(doc.Source) == s.failOn {
		return errors.ExportError("sink unavailable", nil)
	}
	s.writes[doc.Source] = len(res.Chunks)
	return nil
}

func (s *fakeSink) Remove(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.writes, source)
	s.removed = append(s.removed, source)
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// fakeRecorder counts recorder calls.
type fakeRecorder struct {
	mu         sync.Mutex
	statuses   map[string]int
	parses     int
	sinkWrites int
}

func (r *fakeRecorder) RecordDocument(status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statuses == nil {
		r.statuses = make(map[string]int)
	}
	r.statuses[status]++
}

func (r *fakeRecorder) RecordParse(*statute.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parses++
}

func (r *fakeRecorder) RecordSinkWrite(string, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinkWrites++
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func newTestPipeline(t *testing.T, cfg PipelineConfig, s sink.Sink, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg, statute.NewParser(statute.Options{}), s, logger.Discard(), opts...)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p
}

func TestPipeline_Index(t *testing.T) {
	dir := t.TempDir()
	tck := writeFile(t, dir, "tck.txt", tckText)
	tbk := writeFile(t, dir, "tbk.txt", tbkText)

	s := newFakeSink()
	p := newTestPipeline(t, DefaultPipelineConfig(), s)

	result, err := p.Index(context.Background(), IndexRequest{Paths: []string{tck, tbk}})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	if result.Indexed != 2 || result.Failed != 0 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 2 indexed", result)
	}
	if result.Chunks != 3 {
		t.Errorf("Chunks = %d, want 3", result.Chunks)
	}
	if result.RunID == "" {
		t.Error("RunID is empty")
	}
	if s.writes[tck] != 2 || s.writes[tbk] != 1 {
		t.Errorf("sink writes = %v", s.writes)
	}

	// Documents are sorted by path.
	if len(result.Documents) != 2 || result.Documents[0].Path != tbk {
		t.Fatalf("Documents = %+v", result.Documents)
	}
	if result.Documents[1].Title != "TÜRK CEZA KANUNU" {
		t.Errorf("Title = %q", result.Documents[1].Title)
	}

	if e, ok := p.Tracker().Get(tck); !ok || e.Chunks != 2 || e.DocumentID == "" {
		t.Errorf("tracker entry = %+v, %v", e, ok)
	}
}

func TestPipeline_SkipUnchanged(t *testing.T) {
	dir := t.TempDir()
	tck := writeFile(t, dir, "tck.txt", tckText)

	s := newFakeSink()
	p := newTestPipeline(t, DefaultPipelineConfig(), s)
	ctx := context.Background()

	if _, err := p.Index(ctx, IndexRequest{Paths: []string{tck}}); err != nil {
		t.Fatalf("first Index() error = %v", err)
	}

	result, err := p.Index(ctx, IndexRequest{Paths: []string{tck}})
	if err != nil {
		t.Fatalf("second Index() error = %v", err)
	}
	if result.Skipped != 1 || result.Indexed != 0 {
		t.Errorf("second run = %+v, want 1 skipped", result)
	}
	if result.Documents[0].ChunkCount != 2 {
		t.Errorf("skipped ChunkCount = %d, want 2", result.Documents[0].ChunkCount)
	}

	result, err = p.Index(ctx, IndexRequest{Paths: []string{tck}, Force: true})
	if err != nil {
		t.Fatalf("forced Index() error = %v", err)
	}
	if result.Indexed != 1 {
		t.Errorf("forced run = %+v, want 1 indexed", result)
	}

	writeFile(t, dir, "tck.txt", tckText+"MADDE 3 - (1) Yeni madde.\n")
	result, err = p.Index(ctx, IndexRequest{Paths: []string{tck}})
	if err != nil {
		t.Fatalf("Index() after change error = %v", err)
	}
	if result.Indexed != 1 || result.Chunks != 3 {
		t.Errorf("changed run = %+v, want 1 indexed with 3 chunks", result)
	}
}

func TestPipeline_SkipUnchangedDisabled(t *testing.T) {
	dir := t.TempDir()
	tck := writeFile(t, dir, "tck.txt", tckText)

	cfg := DefaultPipelineConfig()
	cfg.SkipUnchanged = false
	p := newTestPipeline(t, cfg, newFakeSink())

	for i := 0; i < 2; i++ {
		result, err := p.Index(context.Background(), IndexRequest{Paths: []string{tck}})
		if err != nil {
			t.Fatalf("Index() error = %v", err)
		}
		if result.Indexed != 1 {
			t.Errorf("run %d = %+v, want 1 indexed", i, result)
		}
	}
}

func TestPipeline_Failures(t *testing.T) {
	dir := t.TempDir()
	tck := writeFile(t, dir, "tck.txt", tckText)
	bad := writeFile(t, dir, "bad.txt", "MADDE 1 - \xff\xfe")
	tbk := writeFile(t, dir, "tbk.txt", tbkText)
	missing := filepath.Join(dir, "missing.txt")

	s := newFakeSink()
	s.failOn = "tbk.txt"
	p := newTestPipeline(t, DefaultPipelineConfig(), s)

	result, err := p.Index(context.Background(), IndexRequest{Paths: []string{tck, bad, tbk, missing}})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	if result.Indexed != 1 || result.Failed != 3 {
		t.Errorf("result = %+v, want 1 indexed and 3 failed", result)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("Errors = %+v, want 3", result.Errors)
	}

	codes := make(map[string]string)
	for _, e := range result.Errors {
		codes[filepath.Base(e.Path)] = e.Code
	}
	if codes["bad.txt"] != errors.CodeIO {
		t.Errorf("bad.txt code = %s, want %s", codes["bad.txt"], errors.CodeIO)
	}
	if codes["tbk.txt"] != errors.CodeExport {
		t.Errorf("tbk.txt code = %s, want %s", codes["tbk.txt"], errors.CodeExport)
	}
	if codes["missing.txt"] != errors.CodeIO {
		t.Errorf("missing.txt code = %s, want %s", codes["missing.txt"], errors.CodeIO)
	}

	if _, ok := p.Tracker().Get(tbk); ok {
		t.Error("failed sink write should not be tracked")
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	dir := t.TempDir()
	tck := writeFile(t, dir, "tck.txt", tckText)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(t, DefaultPipelineConfig(), newFakeSink())
	_, err := p.Index(ctx, IndexRequest{Paths: []string{tck}})
	if err == nil {
		t.Fatal("Index() with cancelled context should fail")
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Index() error = %v, want context.Canceled", err)
	}
}

func TestPipeline_EmptyRequest(t *testing.T) {
	p := newTestPipeline(t, DefaultPipelineConfig(), newFakeSink())

	result, err := p.Index(context.Background(), IndexRequest{})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if result.Indexed != 0 || len(result.Documents) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestPipeline_RemoveAndPrune(t *testing.T) {
	dir := t.TempDir()
	tck := writeFile(t, dir, "tck.txt", tckText)
	tbk := writeFile(t, dir, "tbk.txt", tbkText)

	s := newFakeSink()
	p := newTestPipeline(t, DefaultPipelineConfig(), s)
	ctx := context.Background()

	if _, err := p.Index(ctx, IndexRequest{Paths: []string{tck, tbk}}); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	result, err := p.Remove(ctx, []string{tck})
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if result.Removed != 1 || s.count() != 1 {
		t.Errorf("Remove() = %+v, sink has %d docs", result, s.count())
	}
	if _, ok := p.Tracker().Get(tck); ok {
		t.Error("removed file still tracked")
	}

	result, err = p.Prune(ctx, nil)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Removed != 1 || result.Documents[0].Path != tbk {
		t.Errorf("Prune() = %+v, want tbk removed", result)
	}
	if s.count() != 0 || len(p.Tracker().Paths()) != 0 {
		t.Error("expected sink and tracker to be empty after prune")
	}
}

func TestPipeline_TrackerPersistence(t *testing.T) {
	dir := t.TempDir()
	trackerDir := filepath.Join(dir, ".mevzuat")
	tck := writeFile(t, dir, "tck.txt", tckText)

	cfg := DefaultPipelineConfig()
	cfg.TrackerDir = trackerDir

	p1 := newTestPipeline(t, cfg, newFakeSink())
	if _, err := p1.Index(context.Background(), IndexRequest{Paths: []string{tck}}); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(trackerDir, TrackerFile)); err != nil {
		t.Fatalf("tracker not saved: %v", err)
	}

	s2 := newFakeSink()
	p2 := newTestPipeline(t, cfg, s2)
	result, err := p2.Index(context.Background(), IndexRequest{Paths: []string{tck}})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if result.Skipped != 1 || s2.count() != 0 {
		t.Errorf("second pipeline result = %+v, want skip from persisted tracker", result)
	}
}

func TestPipeline_CorruptTracker(t *testing.T) {
	trackerDir := t.TempDir()
	writeFile(t, trackerDir, TrackerFile, "{")

	cfg := DefaultPipelineConfig()
	cfg.TrackerDir = trackerDir

	_, err := NewPipeline(cfg, statute.NewParser(statute.Options{}), newFakeSink(), logger.Discard())
	if !errors.IsIO(err) {
		t.Errorf("NewPipeline() error = %v, want IO error", err)
	}
}

func TestPipeline_ProgressAndRecorder(t *testing.T) {
	dir := t.TempDir()
	tck := writeFile(t, dir, "tck.txt", tckText)
	tbk := writeFile(t, dir, "tbk.txt", tbkText)
	bad := writeFile(t, dir, "bad.txt", "\xff")

	var mu sync.Mutex
	var calls []int
	total := 0
	progress := func(done, n int, info DocInfo) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		total = n
	}

	rec := &fakeRecorder{}
	cfg := DefaultPipelineConfig()
	cfg.RateLimit = 1000
	p := newTestPipeline(t, cfg, newFakeSink(), WithProgress(progress), WithRecorder(rec))

	if _, err := p.Index(context.Background(), IndexRequest{Paths: []string{tck, tbk, bad}}); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	if len(calls) != 3 || total != 3 {
		t.Errorf("progress calls = %v (total %d), want 3", calls, total)
	}

	if rec.statuses[StatusIndexed] != 2 || rec.statuses[StatusFailed] != 1 {
		t.Errorf("recorded statuses = %v", rec.statuses)
	}
	if rec.parses != 2 || rec.sinkWrites != 2 {
		t.Errorf("parses = %d, sink writes = %d, want 2 and 2", rec.parses, rec.sinkWrites)
	}
}
