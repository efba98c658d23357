package events

import (
	"context"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// Event topic constants
const (
	TopicEventIngested  = "datacol.event.ingested"
	TopicEventDuplicate = "datacol.event.duplicate"

	// Pipeline progress events
	TopicBatchProcessed = "datacol.batch.processed"
	TopicCursorAdvanced = "datacol.cursor.advanced"

	// TopicAll matches every datacol subject.
	TopicAll = "datacol.>"
)

// Event types

type EventIngested struct {
	Event *model.Event `json:"event"`
}

type EventDuplicate struct {
	OriginID   int64 `json:"origin_id"`
	SequenceID int64 `json:"sequence_id"`
}

type BatchProcessed struct {
	BatchID string            `json:"batch_id"`
	Mode    string            `json:"mode"`
	Result  model.BatchResult `json:"result"`
}

type CursorAdvanced struct {
	Name     string `json:"name"`
	Position int64  `json:"position"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
