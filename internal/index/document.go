// Package index runs statute files through the parser and into the
// configured sinks, skipping files whose content has not changed.
package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/security"
	"github.com/mevzuatgpt/mevzuat/internal/sink"
)

// Content limits
const (
	MaxDocumentSize = 32 * 1024 * 1024 // 32MB
	MaxPathLength   = 1024
)

// Document is one statute file read from disk.
type Document struct {
	Path    string
	Content []byte
	Hash    string
	ID      string
}

// NewDocument creates a document from its path and raw content.
func NewDocument(path string, content []byte) *Document {
	id := sink.NewDocument(path, content)
	return &Document{
		Path:    path,
		Content: content,
		Hash:    id.Hash,
		ID:      id.ID,
	}
}

// LoadDocument reads and validates the file at path.
func LoadDocument(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.IOError("reading statute file", err).WithDetail("path", path)
	}
	if info.IsDir() {
		return nil, errors.ValidationError("path is a directory").WithDetail("path", path)
	}
	if info.Size() > MaxDocumentSize {
		return nil, errors.ValidationError(fmt.Sprintf("document size %d exceeds maximum of %d bytes", info.Size(), MaxDocumentSize)).
			WithDetail("path", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError("reading statute file", err).WithDetail("path", path)
	}
	if security.IsBinaryContent(content) {
		return nil, errors.ValidationError("not a text file").WithDetail("path", path)
	}

	doc := NewDocument(path, content)
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ValidateDocument validates a document for indexing.
func ValidateDocument(doc *Document) error {
	if doc.Path == "" {
		return errors.ValidationError("document path cannot be empty")
	}

	if len(doc.Path) > MaxPathLength {
		return errors.ValidationError(fmt.Sprintf("path exceeds maximum length of %d", MaxPathLength))
	}

	if len(doc.Content) > MaxDocumentSize {
		return errors.ValidationError(fmt.Sprintf("document size %d exceeds maximum of %d bytes", len(doc.Content), MaxDocumentSize))
	}

	return nil
}

// Identity returns the sink view of the document.
func (d *Document) Identity() sink.Document {
	return sink.Document{ID: d.ID, Source: d.Path, Hash: d.Hash}
}

// HasExtension reports whether path ends in one of exts, ignoring case. An
// empty list accepts every path.
func HasExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// CollectFiles expands roots into a sorted, de-duplicated list of absolute
// file paths. Directories are walked recursively, skipping hidden entries; files inside
// them are kept only when they match exts. Roots naming a file are kept as
// given.
func CollectFiles(roots []string, exts []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range roots {
		root, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.IOError("resolving input path", err).WithDetail("path", root)
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.IOError("reading input path", err).WithDetail("path", root)
		}

		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && HasExtension(path, exts) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.IOError("walking input directory", err).WithDetail("path", root)
		}
	}

	slices.Sort(files)
	return files, nil
}
