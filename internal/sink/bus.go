package sink

import (
	"context"

	"github.com/mevzuatgpt/mevzuat/internal/bus"
	reqctx "github.com/mevzuatgpt/mevzuat/internal/pkg/context"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

// EventSource is the Source of every event published by BusSink.
const EventSource = "mevzuat-indexer"

// ChunkEvent is the payload of bus.TopicChunkCreated.
type ChunkEvent struct {
	Document
	Index int           `json:"index"`
	Chunk statute.Chunk `json:"chunk"`
}

// ParsedEvent is the payload of bus.TopicStatuteParsed.
type ParsedEvent struct {
	Document
	Metadata    statute.Metadata `json:"metadata"`
	ChunkCount  int              `json:"chunk_count"`
	Diagnostics int              `json:"diagnostics"`
	RuleHits    map[string]int   `json:"rule_hits"`
	RunID       string           `json:"run_id,omitempty"`
}

// RemovedEvent is the payload of bus.TopicStatuteRemoved.
type RemovedEvent struct {
	Source string `json:"source"`
	RunID  string `json:"run_id,omitempty"`
}

// BusSink publishes one event per chunk followed by a document summary.
// All events of a document share its ID as correlation ID; removals are
// correlated by the indexing run that issued them.
type BusSink struct {
	bus bus.Bus
}

// NewBusSink creates a sink publishing to b.
func NewBusSink(b bus.Bus) *BusSink {
	return &BusSink{bus: b}
}

func (s *BusSink) Name() string { return "bus" }

func (s *BusSink) Write(ctx context.Context, doc Document, res *statute.Result) error {
	for i, c := range res.Chunks {
		event := bus.NewEvent(bus.TopicChunkCreated, EventSource, doc.ID, ChunkEvent{
			Document: doc,
			Index:    i,
			Chunk:    c,
		})
		if err := s.bus.Publish(ctx, bus.TopicChunkCreated, event); err != nil {
			return errors.Wrap(errors.CodeUnavailable, "publishing chunk", err).WithDetail("chunk_id", c.ChunkID)
		}
	}

	summary := bus.NewEvent(bus.TopicStatuteParsed, EventSource, doc.ID, ParsedEvent{
		Document:    doc,
		Metadata:    res.Metadata,
		ChunkCount:  len(res.Chunks),
		Diagnostics: len(res.Diagnostics),
		RuleHits:    res.RuleHits,
		RunID:       reqctx.GetRunID(ctx),
	})
	if err := s.bus.Publish(ctx, bus.TopicStatuteParsed, summary); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "publishing summary", err)
	}
	return nil
}

func (s *BusSink) Remove(ctx context.Context, source string) error {
	runID := reqctx.GetRunID(ctx)
	event := bus.NewEvent(bus.TopicStatuteRemoved, EventSource, runID, RemovedEvent{Source: source, RunID: runID})
	if err := s.bus.Publish(ctx, bus.TopicStatuteRemoved, event); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "publishing removal", err)
	}
	return nil
}

// Close leaves the bus open; its owner closes it.
func (s *BusSink) Close() error { return nil }

// DecodeLogged returns the typed payload of an event read back from the bus
// event log: a ChunkEvent, ParsedEvent or RemovedEvent depending on its topic.
func DecodeLogged(e bus.LoggedEvent) (any, error) {
	switch e.Topic {
	case bus.TopicChunkCreated:
		var p ChunkEvent
		if err := e.DecodePayload(&p); err != nil {
			return nil, err
		}
		return p, nil
	case bus.TopicStatuteParsed:
		var p ParsedEvent
		if err := e.DecodePayload(&p); err != nil {
			return nil, err
		}
		return p, nil
	case bus.TopicStatuteRemoved:
		var p RemovedEvent
		if err := e.DecodePayload(&p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.New(errors.CodeValidation, "unknown event topic").WithDetail("topic", e.Topic)
	}
}
