package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mevzuatgpt/mevzuat/internal/bus"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/sink"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print or replay the bus event log",
		Long: `Print the events recorded in the bus event log (bus.event_log), oldest
first. Text output is one line per event; --format json prints the logged
events as they are stored. With --replay the selected events are published
again on the configured bus instead, e.g. to feed a Kafka consumer that
missed them.

--document selects the events of one document ID, --run the summaries and
removals of one indexing run.

Examples:
  mevzuat events --since 1h --limit 20
  mevzuat events --topic statute.parsed --run 5f0c...
  mevzuat events --replay --since 24h`,
		Args: cobra.NoArgs,
		RunE: runEvents,
	}

	cmd.Flags().Duration("since", 0, "only events newer than this (default all)")
	cmd.Flags().Int("limit", 0, "maximum number of events")
	cmd.Flags().String("topic", "", "only events of this topic (statute.parsed, statute.chunk.created, statute.removed)")
	cmd.Flags().String("document", "", "only events correlated with this document ID")
	cmd.Flags().String("run", "", "only summaries and removals of this indexing run")
	cmd.Flags().Bool("replay", false, "publish the events on the configured bus")

	return cmd
}

var eventTopics = map[string]bool{
	bus.TopicStatuteParsed:  true,
	bus.TopicChunkCreated:   true,
	bus.TopicStatuteRemoved: true,
}

func runEvents(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.flushMetrics()

	if a.cfg.Bus.EventLog == "" {
		return errors.ValidationError("no bus event log configured (bus.event_log)")
	}

	sinceDur, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")
	topic, _ := cmd.Flags().GetString("topic")
	document, _ := cmd.Flags().GetString("document")
	runID, _ := cmd.Flags().GetString("run")
	replay, _ := cmd.Flags().GetBool("replay")

	if topic != "" && !eventTopics[topic] {
		return errors.ValidationError(fmt.Sprintf("unknown event topic %q", topic))
	}
	if limit < 0 {
		return errors.ValidationError("limit must not be negative")
	}

	filter := bus.EventFilter{
		Topic:         topic,
		CorrelationID: document,
		RunID:         runID,
		Limit:         limit,
	}
	if sinceDur > 0 {
		filter.Since = time.Now().Add(-sinceDur)
	}

	events, err := bus.ReadEvents(a.cfg.Bus.EventLog, filter)
	if err != nil {
		return err
	}

	if !replay {
		if a.format == "json" {
			return writeJSON(cmd.OutOrStdout(), events)
		}
		printEvents(cmd.OutOrStdout(), events)
		return nil
	}

	// Replay must not log the events a second time.
	busCfg := a.cfg.Bus
	busCfg.EventLog = ""
	b, err := bus.NewBus(busCfg, a.log)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := shutdownContext(cmd.Context())
	defer stop()

	if err := bus.Replay(ctx, b, events); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "replaying events", err)
	}
	a.log.Info("events replayed", "bus", busCfg.Type, "events", len(events))
	return nil
}

func printEvents(w io.Writer, events []bus.LoggedEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "no events")
		return
	}

	for _, e := range events {
		fmt.Fprintf(w, "%s  %-22s  ", e.Timestamp.Format(time.RFC3339), e.Topic)

		payload, err := sink.DecodeLogged(e)
		if err != nil {
			fmt.Fprintf(w, "%s (undecodable payload)\n", e.Event.ID)
			continue
		}

		switch p := payload.(type) {
		case sink.ChunkEvent:
			fmt.Fprintf(w, "%s #%d %s\n", p.Source, p.Index, p.Chunk.ChunkID)
		case sink.ParsedEvent:
			fmt.Fprintf(w, "%s", p.Source)
			if p.Metadata.Number != "" {
				fmt.Fprintf(w, " (%s)", p.Metadata.Number)
			}
			fmt.Fprintf(w, " chunks=%d diagnostics=%d", p.ChunkCount, p.Diagnostics)
			if p.RunID != "" {
				fmt.Fprintf(w, " run=%s", p.RunID)
			}
			fmt.Fprintln(w)
		case sink.RemovedEvent:
			fmt.Fprintf(w, "%s", p.Source)
			if p.RunID != "" {
				fmt.Fprintf(w, " run=%s", p.RunID)
			}
			fmt.Fprintln(w)
		}
	}
}
