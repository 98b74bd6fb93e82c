package sink

import (
	"context"
	"os"

	"github.com/mevzuatgpt/mevzuat/internal/export"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

// JSONSink writes one "<name>.chunks.json" file per source into a directory.
type JSONSink struct {
	dir string
	log *logger.Logger
}

// NewJSONSink creates a JSON file sink rooted at dir.
func NewJSONSink(dir string, log *logger.Logger) *JSONSink {
	if log == nil {
		log = logger.Default()
	}
	return &JSONSink{dir: dir, log: log.WithComponent("json-sink")}
}

func (s *JSONSink) Name() string { return "json" }

// Path returns the output file for source.
func (s *JSONSink) Path(source string) string {
	return export.OutputPath(s.dir, source)
}

func (s *JSONSink) Write(_ context.Context, doc Document, res *statute.Result) error {
	_, err := export.WriteJSON(s.Path(doc.Source), res.Chunks, s.log)
	return err
}

func (s *JSONSink) Remove(_ context.Context, source string) error {
	err := os.Remove(s.Path(source))
	if err != nil && !os.IsNotExist(err) {
		return errors.ExportError("removing chunk file", err).WithDetail("path", s.Path(source))
	}
	return nil
}

func (s *JSONSink) Close() error { return nil }
