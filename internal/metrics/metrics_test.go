package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mevzuatgpt/mevzuat/internal/bus"
	"github.com/mevzuatgpt/mevzuat/internal/index"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

var (
	_ index.Recorder      = (*Metrics)(nil)
	_ bus.MetricsRecorder = (*Metrics)(nil)
)

// value returns the counter value, or the histogram sample count, of the
// metric with the given name and labels.
func value(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			match := true
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}
			if !match {
				continue
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			if h := metric.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
		}
	}
	return 0
}

func TestNew(t *testing.T) {
	m := New("")

	if m.Registry() == nil {
		t.Fatal("Registry() = nil")
	}

	m.ChunksTotal.Inc()
	if got := value(t, m, "mevzuat_chunks_total", nil); got != 1 {
		t.Errorf("mevzuat_chunks_total = %v, want 1", got)
	}

	custom := New("test")
	custom.ChunksTotal.Inc()
	if got := value(t, custom, "test_chunks_total", nil); got != 1 {
		t.Errorf("test_chunks_total = %v, want 1", got)
	}

	if m.Uptime() < 0 {
		t.Error("Uptime() should not be negative")
	}
}

func TestRecordDocument(t *testing.T) {
	m := New("")

	m.RecordDocument(index.StatusIndexed, 10*time.Millisecond)
	m.RecordDocument(index.StatusIndexed, 20*time.Millisecond)
	m.RecordDocument(index.StatusFailed, time.Millisecond)

	if got := value(t, m, "mevzuat_documents_total", map[string]string{"status": "indexed"}); got != 2 {
		t.Errorf("indexed documents = %v, want 2", got)
	}
	if got := value(t, m, "mevzuat_documents_total", map[string]string{"status": "failed"}); got != 1 {
		t.Errorf("failed documents = %v, want 1", got)
	}
	if got := value(t, m, "mevzuat_document_duration_seconds", map[string]string{"status": "indexed"}); got != 2 {
		t.Errorf("duration samples = %v, want 2", got)
	}
}

func TestRecordParse(t *testing.T) {
	m := New("")

	res := statute.NewParser(statute.Options{}).Parse(`TÜRK CEZA KANUNU
MADDE 1 - (1) Birinci fıkra.
(2) İkinci fıkra.
MADDE 2 - Metin.
`)
	m.RecordParse(res)
	m.RecordParse(nil)

	if got := value(t, m, "mevzuat_chunks_total", nil); got != 2 {
		t.Errorf("chunks = %v, want 2", got)
	}
	if got := value(t, m, "mevzuat_clauses_total", nil); got != 2 {
		t.Errorf("clauses = %v, want 2", got)
	}
	if got := value(t, m, "mevzuat_rule_hits_total", map[string]string{"rule": string(statute.RuleArticle)}); got != 2 {
		t.Errorf("article rule hits = %v, want 2", got)
	}
	if got := value(t, m, "mevzuat_chunk_tokens", nil); got != 2 {
		t.Errorf("token samples = %v, want 2", got)
	}
	if got := value(t, m, "mevzuat_lines_parsed_total", nil); got != float64(res.Lines) {
		t.Errorf("lines = %v, want %d", got, res.Lines)
	}
}

func TestRecordSinkWrite(t *testing.T) {
	m := New("")

	m.RecordSinkWrite("json", time.Millisecond, nil)
	m.RecordSinkWrite("json", time.Millisecond, errors.New("disk full"))
	m.RecordSinkWrite("redis", time.Millisecond, nil)

	tests := []struct {
		sink, result string
		want         float64
	}{
		{"json", ResultOK, 1},
		{"json", ResultError, 1},
		{"redis", ResultOK, 1},
		{"redis", ResultError, 0},
	}
	for _, tt := range tests {
		got := value(t, m, "mevzuat_sink_writes_total", map[string]string{"sink": tt.sink, "result": tt.result})
		if got != tt.want {
			t.Errorf("sink_writes{%s,%s} = %v, want %v", tt.sink, tt.result, got, tt.want)
		}
	}
}

func TestRecordBusPublish(t *testing.T) {
	m := New("")

	m.RecordBusPublish(bus.TopicChunkCreated, time.Microsecond, nil)
	m.RecordBusPublish(bus.TopicChunkCreated, time.Microsecond, nil)
	m.RecordBusPublish(bus.TopicStatuteParsed, time.Microsecond, errors.New("broker down"))

	if got := value(t, m, "mevzuat_bus_events_published_total", map[string]string{"topic": bus.TopicChunkCreated}); got != 2 {
		t.Errorf("published = %v, want 2", got)
	}
	if got := value(t, m, "mevzuat_bus_errors_total", map[string]string{"topic": bus.TopicStatuteParsed}); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestRecordSearch(t *testing.T) {
	m := New("")

	m.RecordSearch(5*time.Millisecond, 3, nil)
	m.RecordSearch(time.Millisecond, 0, errors.New("unavailable"))

	if got := value(t, m, "mevzuat_search_requests_total", map[string]string{"result": ResultOK}); got != 1 {
		t.Errorf("ok searches = %v, want 1", got)
	}
	if got := value(t, m, "mevzuat_search_requests_total", map[string]string{"result": ResultError}); got != 1 {
		t.Errorf("failed searches = %v, want 1", got)
	}
	if got := value(t, m, "mevzuat_search_results", nil); got != 1 {
		t.Errorf("result samples = %v, want 1", got)
	}
}

func TestWriteToTextfile(t *testing.T) {
	m := New("")
	m.RecordDocument(index.StatusIndexed, time.Millisecond)

	path := filepath.Join(t.TempDir(), "mevzuat.prom")
	if err := m.WriteToTextfile(path); err != nil {
		t.Fatalf("WriteToTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}

	text := string(data)
	for _, want := range []string{
		"# TYPE mevzuat_documents_total counter",
		`mevzuat_documents_total{status="indexed"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestHandler(t *testing.T) {
	m := New("")
	m.RecordSinkWrite("qdrant", time.Millisecond, nil)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `mevzuat_sink_writes_total{result="ok",sink="qdrant"} 1`) {
		t.Errorf("body missing sink write metric:\n%s", body)
	}
}
