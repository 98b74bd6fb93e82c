package watch

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFile is the per-directory file listing extra ignore patterns, in
// .gitignore syntax.
const IgnoreFile = ".mevzuatignore"

// defaultPatterns are always ignored under a watched root.
var defaultPatterns = []string{
	".git",
	".mevzuat",
	"*.chunks.json",
	"*.tmp",
	"*.swp",
	"*~",
	".#*",
	".DS_Store",
}

// IgnoreFilter decides which paths under root the watcher skips.
type IgnoreFilter struct {
	root     string
	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

// NewIgnoreFilter builds a filter from the default patterns plus the
// .gitignore and .mevzuatignore files found directly in root.
func NewIgnoreFilter(root string) (*IgnoreFilter, error) {
	f := &IgnoreFilter{root: root}

	for _, p := range defaultPatterns {
		f.patterns = append(f.patterns, gitignore.ParsePattern(p, nil))
	}

	for _, name := range []string{".gitignore", IgnoreFile} {
		if err := f.loadFile(filepath.Join(root, name)); err != nil {
			return nil, err
		}
	}
	f.matcher = gitignore.NewMatcher(f.patterns)

	return f, nil
}

func (f *IgnoreFilter) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f.patterns = append(f.patterns, gitignore.ParsePattern(line, nil))
	}
	return scanner.Err()
}

// Root returns the directory the filter applies to.
func (f *IgnoreFilter) Root() string {
	return f.root
}

// Contains reports whether path lies under the filter's root.
func (f *IgnoreFilter) Contains(path string) bool {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ShouldIgnore reports whether path matches an ignore pattern. Paths outside
// the root are never ignored.
func (f *IgnoreFilter) ShouldIgnore(path string, isDir bool) bool {
	if !f.Contains(path) {
		return false
	}
	rel, _ := filepath.Rel(f.root, path)
	if rel == "." {
		return false
	}

	return f.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}
