package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rajuthattil19-prog/datacol/internal/idgen"
	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// Reader is the read side of the store that an export needs.
type Reader interface {
	ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)
	ListAggregates(ctx context.Context, originID *int64) ([]*model.ActorAggregate, error)
	LoadCursor(ctx context.Context, name string) (*int64, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version        string    `json:"version"`
	Type           string    `json:"type"`
	SnapshotID     string    `json:"snapshot_id"`
	Timestamp      time.Time `json:"timestamp"`
	EventCount     int       `json:"event_count"`
	AggregateCount int       `json:"aggregate_count"`
	Cursor         *int64    `json:"cursor"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// eventLine is an event with its occurrence time rendered as ISO 8601.
type eventLine struct {
	*model.Event
	ISO string `json:"iso"`
}

// ExportJSONL writes every event and aggregate from r as JSONL to w.
// Events are ordered by (origin, sequence), aggregates by (origin, actor).
func ExportJSONL(ctx context.Context, r Reader, w io.Writer) error {
	events, err := r.ListEvents(ctx, model.EventFilter{})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].OriginID != events[j].OriginID {
			return events[i].OriginID < events[j].OriginID
		}
		return events[i].SequenceID < events[j].SequenceID
	})

	aggs, err := r.ListAggregates(ctx, nil)
	if err != nil {
		return fmt.Errorf("list aggregates: %w", err)
	}
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].OriginID != aggs[j].OriginID {
			return aggs[i].OriginID < aggs[j].OriginID
		}
		return aggs[i].ActorID < aggs[j].ActorID
	})

	cursor, err := r.LoadCursor(ctx, model.CursorTelegram)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:        "1",
		Type:           "header",
		SnapshotID:     idgen.Snapshot(),
		Timestamp:      time.Now().UTC(),
		EventCount:     len(events),
		AggregateCount: len(aggs),
		Cursor:         cursor,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, e := range events {
		if err := enc.Encode(record{Type: "event", Data: eventLine{Event: e, ISO: e.ISO()}}); err != nil {
			return fmt.Errorf("encode event %d/%d: %w", e.OriginID, e.SequenceID, err)
		}
	}
	for _, a := range aggs {
		if err := enc.Encode(record{Type: "aggregate", Data: a}); err != nil {
			return fmt.Errorf("encode aggregate %d/%d: %w", a.OriginID, a.ActorID, err)
		}
	}

	return nil
}
