package bus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
)

// maxLogLine bounds one event log line; chunk events carry full article text.
const maxLogLine = 1024 * 1024

// LoggedEvent is one line of the event log.
type LoggedEvent struct {
	Event     Event     `json:"event"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
}

// DecodePayload unmarshals the event payload into v. Payloads read back from
// the log are plain JSON values and are re-encoded first.
func (e LoggedEvent) DecodePayload(v any) error {
	if e.Event.Payload == nil {
		return errors.New(errors.CodeValidation, "event has no payload").WithDetail("event_id", e.Event.ID)
	}
	data, err := json.Marshal(e.Event.Payload)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "encoding event payload", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.CodeValidation, "decoding event payload", err).
			WithDetail("event_id", e.Event.ID).
			WithDetail("topic", e.Topic)
	}
	return nil
}

// runID reads the run_id field statute.parsed and statute.removed payloads carry.
func (e LoggedEvent) runID() string {
	var p struct {
		RunID string `json:"run_id"`
	}
	if e.DecodePayload(&p) != nil {
		return ""
	}
	return p.RunID
}

// EventFilter selects events from the log. Zero fields match everything.
type EventFilter struct {
	// Since keeps events logged strictly after this time.
	Since time.Time

	// Topic keeps events of one topic, e.g. TopicStatuteParsed.
	Topic string

	// CorrelationID is a document ID for chunk and parsed events and the
	// run ID for removals.
	CorrelationID string

	// RunID keeps the parsed and removed events of one indexing run.
	// Chunk events carry no run ID and never match.
	RunID string

	// Limit caps the number of events returned when positive.
	Limit int
}

// Match reports whether e passes every set field except Limit.
func (f EventFilter) Match(e LoggedEvent) bool {
	if !e.Timestamp.After(f.Since) {
		return false
	}
	if f.Topic != "" && e.Topic != f.Topic {
		return false
	}
	if f.CorrelationID != "" && e.Event.CorrelationID != f.CorrelationID {
		return false
	}
	if f.RunID != "" && e.runID() != f.RunID {
		return false
	}
	return true
}

// EventLogger appends published events to a JSON lines file.
type EventLogger struct {
	path    string
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewEventLogger opens path for appending, creating it and its directory.
func NewEventLogger(path string) (*EventLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.IOError("creating event log directory", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.IOError("opening event log", err)
	}

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	return &EventLogger{path: path, file: file, encoder: enc}, nil
}

// Path returns the log file path.
func (l *EventLogger) Path() string {
	return l.path
}

// Log appends one event and syncs the file.
func (l *EventLogger) Log(topic string, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return errors.New(errors.CodeInternal, "event log closed")
	}

	if err := l.encoder.Encode(LoggedEvent{Event: event, Topic: topic, Timestamp: time.Now()}); err != nil {
		return fmt.Errorf("encoding event %s: %w", event.ID, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("syncing event log: %w", err)
	}
	return nil
}

// Events reads the events logged so far that pass f.
func (l *EventLogger) Events(f EventFilter) ([]LoggedEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ReadEvents(l.path, f)
}

// Close closes the log file. Further Log calls fail.
func (l *EventLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.encoder = nil
	if err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

// ReadEvents reads the event log at path in logged order and returns the
// events passing f. A missing file holds no events. Malformed lines, such as
// a line cut short by a crash, are skipped.
func ReadEvents(path string, f EventFilter) ([]LoggedEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []LoggedEvent{}, nil
		}
		return nil, errors.IOError("opening event log", err)
	}
	defer file.Close()

	events := []LoggedEvent{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLogLine)

	for scanner.Scan() {
		var e LoggedEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if !f.Match(e) {
			continue
		}
		events = append(events, e)
		if f.Limit > 0 && len(events) >= f.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.IOError("reading event log", err)
	}
	return events, nil
}

// Replay publishes events on b in order, each on the topic it was logged
// under. It stops at the first publish error or when ctx is done.
func Replay(ctx context.Context, b Bus, events []LoggedEvent) error {
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.Publish(ctx, e.Topic, e.Event); err != nil {
			return fmt.Errorf("replaying event %s: %w", e.Event.ID, err)
		}
	}
	return nil
}
