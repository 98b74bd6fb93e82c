// Package sink delivers parsed statutes to their destinations: JSON files,
// Redis, Qdrant and the event bus.
package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/hash"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

// Document identifies the source of a parse result.
type Document struct {
	// ID is stable for one version of one file.
	ID string `json:"document_id"`

	// Source is the path the text was read from.
	Source string `json:"source"`

	// Hash is the SHA-256 of the raw file content.
	Hash string `json:"document_hash"`
}

// NewDocument builds the identity of a file version from its path and raw
// content.
func NewDocument(source string, content []byte) Document {
	h := hash.SHA256(content)
	return Document{
		ID:     hash.DocumentID(source, h),
		Source: source,
		Hash:   h,
	}
}

// Sink receives the chunks of parsed documents.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Write stores the result for doc, replacing any earlier version of
	// the same source.
	Write(ctx context.Context, doc Document, res *statute.Result) error

	// Remove deletes everything stored for source.
	Remove(ctx context.Context, source string) error

	Close() error
}

// Multi fans every call out to all of its sinks. A failing sink does not
// stop the others.
type Multi []Sink

// Name joins the member names.
func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, s := range m {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Write writes to every sink.
func (m Multi) Write(ctx context.Context, doc Document, res *statute.Result) error {
	return m.each(func(s Sink) error { return s.Write(ctx, doc, res) })
}

// Remove removes from every sink.
func (m Multi) Remove(ctx context.Context, source string) error {
	return m.each(func(s Sink) error { return s.Remove(ctx, source) })
}

// Close closes every sink.
func (m Multi) Close() error {
	return m.each(func(s Sink) error { return s.Close() })
}

func (m Multi) each(fn func(Sink) error) error {
	var failed []string
	var first error
	for _, s := range m {
		if err := fn(s); err != nil {
			failed = append(failed, s.Name())
			if first == nil {
				first = err
			}
		}
	}
	if first == nil {
		return nil
	}
	if len(failed) == 1 {
		return first
	}
	return errors.IndexingError(fmt.Sprintf("%d sinks failed (%s)", len(failed), strings.Join(failed, ", ")), first)
}
