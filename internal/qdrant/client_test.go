package qdrant

import (
	"errors"
	"testing"
	"time"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/hash"
)

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()

	if cfg.Host != DefaultHost {
		t.Errorf("expected host %s, got %s", DefaultHost, cfg.Host)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected port %d, got %d", DefaultPort, cfg.Port)
	}

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}

	if cfg.CollectionPrefix != "mevzuat_" {
		t.Errorf("expected prefix mevzuat_, got %s", cfg.CollectionPrefix)
	}
}

func TestDefaultCollectionConfig(t *testing.T) {
	cfg := DefaultCollectionConfig("statutes")

	if cfg.Name != "statutes" {
		t.Errorf("expected name 'statutes', got %s", cfg.Name)
	}

	if !cfg.OnDiskPayload {
		t.Error("expected OnDiskPayload to be true")
	}

	if cfg.FullScanThreshold == 0 {
		t.Error("expected a full scan threshold")
	}
}

func TestCollectionName(t *testing.T) {
	c := &Client{config: ClientConfig{CollectionPrefix: "mevzuat_"}}

	tests := []struct {
		input    string
		expected string
	}{
		{"statutes", "mevzuat_statutes"},
		{"tck", "mevzuat_tck"},
	}

	for _, tt := range tests {
		if got := c.collectionName(tt.input); got != tt.expected {
			t.Errorf("collectionName(%s) = %s, expected %s", tt.input, got, tt.expected)
		}
	}

	bare := &Client{}
	if got := bare.collectionName("statutes"); got != "statutes" {
		t.Errorf("collectionName without prefix = %s, expected statutes", got)
	}
}

func TestTrimPrefixed(t *testing.T) {
	got := trimPrefixed([]string{"mevzuat_a", "other", "mevzuat_b"}, "mevzuat_")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("trimPrefixed() = %v, want [a b]", got)
	}
}

func TestClosedClient(t *testing.T) {
	c := &Client{closed: true, config: DefaultClientConfig()}

	if err := c.UpsertPoints(t.Context(), "statutes", []Point{{ID: "x"}}); !errors.Is(err, ErrClosed) {
		t.Errorf("UpsertPoints() error = %v, want ErrClosed", err)
	}
	if _, err := c.CountPoints(t.Context(), "statutes", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("CountPoints() error = %v, want ErrClosed", err)
	}
	if _, err := c.ServerVersion(t.Context()); !errors.Is(err, ErrClosed) {
		t.Errorf("ServerVersion() error = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on a closed client error = %v", err)
	}
}

func TestClientAddress(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", DefaultPort, "localhost:6334"},
		{"qdrant.internal", 7000, "qdrant.internal:7000"},
		{"::1", 6334, "[::1]:6334"},
	}

	for _, tt := range tests {
		c := &Client{config: ClientConfig{Host: tt.host, Port: tt.port}}
		if got := c.Address(); got != tt.want {
			t.Errorf("Address() = %s, want %s", got, tt.want)
		}
	}
}

func TestPointToQdrant(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := Point{
		ID:            hash.PointID("doc", "tck_m1"),
		SparseIndices: []uint32{1, 2},
		SparseValues:  []float32{1, 3},
		Payload: ChunkPayload{
			DocumentID:    "doc",
			ChunkID:       "tck_m1",
			Text:          "MADDE 1 - Metin.",
			StatuteName:   "TÜRK CEZA KANUNU",
			ArticleNumber: "1",
			ClauseCount:   2,
			IndexedAt:     now,
		},
	}

	ps := pointToQdrant(p)
	if ps.GetId().GetUuid() != p.ID {
		t.Errorf("point id = %s, want %s", ps.GetId().GetUuid(), p.ID)
	}

	back := extractPayload(ps.Payload)
	if back.ChunkID != "tck_m1" || back.StatuteName != "TÜRK CEZA KANUNU" || back.ArticleNumber != "1" {
		t.Errorf("payload round trip = %+v", back)
	}
	if back.ClauseCount != 2 {
		t.Errorf("bent_sayisi = %d, want 2", back.ClauseCount)
	}
	if !back.IndexedAt.Equal(now) {
		t.Errorf("indexed_at = %v, want %v", back.IndexedAt, now)
	}
}

func TestBuildPointsSelector(t *testing.T) {
	if _, err := buildPointsSelector(DeleteFilter{}); err == nil {
		t.Error("expected error for empty delete filter")
	}

	sel, err := buildPointsSelector(DeleteFilter{IDs: []string{hash.PointID("d", "c")}})
	if err != nil {
		t.Fatalf("buildPointsSelector() error = %v", err)
	}
	if sel.GetPoints() == nil || len(sel.GetPoints().Ids) != 1 {
		t.Error("expected an ID selector with one point")
	}

	sel, err = buildPointsSelector(DeleteFilter{Source: "kanunlar/tck.txt"})
	if err != nil {
		t.Fatalf("buildPointsSelector() error = %v", err)
	}
	if sel.GetFilter() == nil {
		t.Error("expected a filter selector")
	}
}

func TestBuildDeleteFilter(t *testing.T) {
	if buildDeleteFilter(DeleteFilter{}) != nil {
		t.Error("expected nil for empty filter")
	}

	result := buildDeleteFilter(DeleteFilter{DocumentID: "abc123"})
	if result == nil || len(result.Must) != 1 {
		t.Fatal("expected one condition for document filter")
	}

	result = buildDeleteFilter(DeleteFilter{DocumentID: "abc123", Source: "tck.txt"})
	if len(result.Must) != 2 {
		t.Errorf("expected 2 conditions, got %d", len(result.Must))
	}
}

func TestBuildSearchFilter(t *testing.T) {
	if buildSearchFilter(nil) != nil {
		t.Error("expected nil for nil filter")
	}

	if buildSearchFilter(&SearchFilter{}) != nil {
		t.Error("expected nil for empty filter")
	}

	result := buildSearchFilter(&SearchFilter{StatuteNumber: "5237", ArticleNumber: "1"})
	if result == nil {
		t.Fatal("expected non-nil for combined filter")
	}
	if len(result.Must) != 2 {
		t.Errorf("expected 2 conditions, got %d", len(result.Must))
	}
}
