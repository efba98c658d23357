package model

import "time"

// Event is a single ingested chat message. Events are keyed by
// (OriginID, SequenceID) and never mutated once stored.
type Event struct {
	OriginID      int64      `json:"origin_id"`
	SequenceID    int64      `json:"sequence_id"`
	ActorID       int64      `json:"actor_id"`
	ActorUsername string     `json:"actor_username,omitempty"`
	ActorDisplay  string     `json:"actor_display,omitempty"`
	OccurredAt    int64      `json:"occurred_at"` // epoch seconds
	Content       string     `json:"content,omitempty"`
	OriginKind    OriginKind `json:"origin_kind"`
	IngestedAt    time.Time  `json:"ingested_at"`
}

// ISOTime formats epoch seconds as RFC 3339 UTC with a Z suffix.
func ISOTime(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format("2006-01-02T15:04:05Z")
}

// ISO returns the occurrence time formatted by ISOTime.
func (e *Event) ISO() string {
	return ISOTime(e.OccurredAt)
}

// EventFilter holds criteria for listing events.
type EventFilter struct {
	OriginID *int64 `json:"origin_id,omitempty"`
	ActorID  *int64 `json:"actor_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}
