package index

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTracker(t *testing.T) {
	tracker := NewTracker()

	tracker.Record("tck.txt", Entry{Hash: "abc123", Chunks: 3})
	if !tracker.Unchanged("tck.txt", "abc123") {
		t.Error("expected hash to match")
	}
	if tracker.Unchanged("tck.txt", "different") {
		t.Error("expected different hash to not match")
	}
	if tracker.Unchanged("tbk.txt", "abc123") {
		t.Error("expected different path to not exist")
	}

	e, ok := tracker.Get("tck.txt")
	if !ok || e.Chunks != 3 || e.IndexedAt.IsZero() {
		t.Errorf("Get() = %+v, %v", e, ok)
	}

	tracker.Record("tbk.txt", Entry{Hash: "def456", Chunks: 2})
	paths := tracker.Paths()
	if len(paths) != 2 || paths[0] != "tbk.txt" || paths[1] != "tck.txt" {
		t.Errorf("Paths() = %v, want [tbk.txt tck.txt]", paths)
	}

	if s := tracker.Stats(); s.Files != 2 || s.Chunks != 5 {
		t.Errorf("Stats() = %+v, want 2 files 5 chunks", s)
	}

	tracker.Forget("tck.txt")
	if tracker.Unchanged("tck.txt", "abc123") {
		t.Error("expected entry to be removed")
	}
}

func TestTrackerPersistence(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), ".mevzuat")

	tracker1 := NewTracker()
	tracker1.Record("kanunlar/tck.txt", Entry{Hash: "hash1", DocumentID: "doc1", Chunks: 4})
	tracker1.Record("kanunlar/tbk.txt", Entry{Hash: "hash2", DocumentID: "doc2", Chunks: 7})

	if err := tracker1.Save(tmpDir); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, TrackerFile)); err != nil {
		t.Fatalf("expected %s to exist: %v", TrackerFile, err)
	}

	tracker2 := NewTracker()
	if err := tracker2.Load(tmpDir); err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if !tracker2.Unchanged("kanunlar/tck.txt", "hash1") {
		t.Error("expected tck.txt hash after load")
	}
	e, _ := tracker2.Get("kanunlar/tbk.txt")
	if e.DocumentID != "doc2" || e.Chunks != 7 {
		t.Errorf("loaded entry = %+v", e)
	}
}

func TestTrackerLoadMissing(t *testing.T) {
	tracker := NewTracker()
	if err := tracker.Load(filepath.Join(t.TempDir(), "none")); err != nil {
		t.Fatalf("Load() of missing dir error = %v", err)
	}
	if len(tracker.Paths()) != 0 {
		t.Error("expected empty tracker")
	}
}

func TestTrackerLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, TrackerFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewTracker().Load(dir); err == nil {
		t.Error("expected error for corrupt tracker file")
	}

	if err := os.WriteFile(filepath.Join(dir, TrackerFile), []byte("null"), 0644); err != nil {
		t.Fatal(err)
	}
	tracker := NewTracker()
	if err := tracker.Load(dir); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tracker.Record("x.txt", Entry{Hash: "h"})
}

func TestTrackerChanged(t *testing.T) {
	tracker := NewTracker()
	tracker.Record("a.txt", Entry{Hash: "hash1"})
	tracker.Record("b.txt", Entry{Hash: "hash2"})

	changed := tracker.Changed(map[string]string{
		"a.txt": "hash1",   // unchanged
		"b.txt": "newhash", // changed
		"c.txt": "hash3",   // new
	})

	if len(changed) != 2 || changed[0] != "b.txt" || changed[1] != "c.txt" {
		t.Errorf("Changed() = %v, want [b.txt c.txt]", changed)
	}
}

func TestTrackerRemoved(t *testing.T) {
	tracker := NewTracker()
	tracker.Record("a.txt", Entry{Hash: "hash1"})
	tracker.Record("b.txt", Entry{Hash: "hash2"})
	tracker.Record("c.txt", Entry{Hash: "hash3"})

	removed := tracker.Removed([]string{"a.txt"})
	if len(removed) != 2 || removed[0] != "b.txt" || removed[1] != "c.txt" {
		t.Errorf("Removed() = %v, want [b.txt c.txt]", removed)
	}
}
