package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// TrackerFile is the file name of the persisted tracker inside its directory.
const TrackerFile = "tracker.json"

// Entry records the last indexed version of one file.
type Entry struct {
	Hash       string    `json:"hash"`
	DocumentID string    `json:"document_id"`
	Chunks     int       `json:"chunks"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// Tracker remembers content hashes of indexed files so unchanged files can
// be skipped and vanished files detected.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]Entry // path -> entry
}

// NewTracker creates a new tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]Entry),
	}
}

// Unchanged reports whether path was indexed with exactly this hash.
func (t *Tracker) Unchanged(path, hash string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[path]
	return ok && e.Hash == hash
}

// Record stores the indexed version of path.
func (t *Tracker) Record(path string, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e.IndexedAt.IsZero() {
		e.IndexedAt = time.Now()
	}
	t.entries[path] = e
}

// Forget removes path from tracking.
func (t *Tracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, path)
}

// Get returns the entry for path.
func (t *Tracker) Get(path string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[path]
	return e, ok
}

// Paths returns all tracked paths, sorted.
func (t *Tracker) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	paths := make([]string, 0, len(t.entries))
	for path := range t.entries {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// Changed returns the paths of files whose hash differs from the tracked
// one, including untracked files, sorted.
func (t *Tracker) Changed(files map[string]string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var changed []string
	for path, newHash := range files {
		e, exists := t.entries[path]
		if !exists || e.Hash != newHash {
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	return changed
}

// Removed returns tracked paths missing from currentPaths, sorted.
func (t *Tracker) Removed(currentPaths []string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	current := make(map[string]struct{}, len(currentPaths))
	for _, path := range currentPaths {
		current[path] = struct{}{}
	}

	var removed []string
	for path := range t.entries {
		if _, exists := current[path]; !exists {
			removed = append(removed, path)
		}
	}
	slices.Sort(removed)
	return removed
}

// Stats summarizes tracked documents.
type Stats struct {
	Files  int `json:"files"`
	Chunks int `json:"chunks"`
}

// Stats returns statistics about tracked documents.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{Files: len(t.entries)}
	for _, e := range t.entries {
		s.Chunks += e.Chunks
	}
	return s
}

// Save persists the tracker to dir/TrackerFile, replacing it atomically.
func (t *Tracker) Save(dir string) error {
	t.mu.RLock()
	data, err := json.MarshalIndent(t.entries, "", "  ")
	t.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dir, TrackerFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load restores the tracker from dir. A missing file leaves it empty.
func (t *Tracker) Load(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, TrackerFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	if entries == nil {
		entries = make(map[string]Entry)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = entries
	return nil
}
