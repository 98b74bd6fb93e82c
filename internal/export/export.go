// Package export writes parsed statute chunks as JSON documents.
package export

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

// Indent is the indentation of exported JSON.
const Indent = "  "

// Encode writes chunks to w as an indented JSON array. Non-ASCII text is
// written literally, not as \u escapes. A nil slice encodes as [].
func Encode(w io.Writer, chunks []statute.Chunk) error {
	if chunks == nil {
		chunks = []statute.Chunk{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	return enc.Encode(chunks)
}

// Marshal returns the JSON encoding used by Encode.
func Marshal(chunks []statute.Chunk) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, chunks); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes chunks to path, creating parent directories, and returns
// the number of chunks written. The file is replaced atomically.
func WriteJSON(path string, chunks []statute.Chunk, log *logger.Logger) (int, error) {
	data, err := Marshal(chunks)
	if err != nil {
		return 0, errors.ExportError("encoding chunks", err).WithDetail("path", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, errors.ExportError("creating output directory", err).WithDetail("path", path)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return 0, errors.ExportError("writing chunks", err).WithDetail("path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, errors.ExportError("writing chunks", err).WithDetail("path", path)
	}

	if log != nil {
		log.Info("saved chunks", "count", len(chunks), "path", path)
	}
	return len(chunks), nil
}

// ReadJSON loads chunks previously written by WriteJSON.
func ReadJSON(path string) ([]statute.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError("reading chunk file", err).WithDetail("path", path)
	}

	var chunks []statute.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "decoding chunk file", err).WithDetail("path", path)
	}
	return chunks, nil
}

// OutputPath returns the JSON file name used for a source document in dir,
// e.g. "out/tck.chunks.json" for "in/tck.txt".
func OutputPath(dir, source string) string {
	base := filepath.Base(source)
	base = base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(dir, base+".chunks.json")
}
