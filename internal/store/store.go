package store

import (
	"context"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// CursorStore persists the delivery cursor. Positions only move forward.
type CursorStore interface {
	// LoadCursor returns the stored position, or nil if none has been stored.
	LoadCursor(ctx context.Context, name string) (*int64, error)
	StoreCursor(ctx context.Context, name string, position int64) error
}

// Store defines the persistence interface for ingested events.
type Store interface {
	CursorStore

	// Events. InsertEvent reports false when (origin_id, sequence_id) already exists.
	InsertEvent(ctx context.Context, event *model.Event) (bool, error)
	ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)

	// Aggregates
	UpsertAggregate(ctx context.Context, event *model.Event) error
	GetAggregate(ctx context.Context, originID, actorID int64) (*model.ActorAggregate, error)
	ListAggregates(ctx context.Context, originID *int64) ([]*model.ActorAggregate, error)

	// Stats
	GlobalStats(ctx context.Context) (*model.GlobalStats, error)
	OriginStats(ctx context.Context, originID int64, topN int) (*model.OriginStats, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
