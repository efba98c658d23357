package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/store"
)

type eventKey struct{ origin, seq int64 }
type actorKey struct{ origin, actor int64 }

// mockStore is an in-memory store that enforces the (origin, sequence)
// uniqueness at write time and applies transactions atomically.
type mockStore struct {
	mu      sync.Mutex
	events  map[eventKey]*model.Event
	aggs    map[actorKey]*model.ActorAggregate
	cursors map[string]int64

	// failInsert makes InsertEvent fail for the given sequence ids.
	failInsert map[int64]error
	// failCursor makes StoreCursor fail.
	failCursor error
	// log records write operations in order.
	log []string
}

func newMockStore() *mockStore {
	return &mockStore{
		events:     make(map[eventKey]*model.Event),
		aggs:       make(map[actorKey]*model.ActorAggregate),
		cursors:    make(map[string]int64),
		failInsert: make(map[int64]error),
	}
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) InsertEvent(ctx context.Context, e *model.Event) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedStore)(m).InsertEvent(ctx, e)
}

func (m *mockStore) ListEvents(ctx context.Context, f model.EventFilter) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedStore)(m).ListEvents(ctx, f)
}

func (m *mockStore) UpsertAggregate(ctx context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedStore)(m).UpsertAggregate(ctx, e)
}

func (m *mockStore) GetAggregate(ctx context.Context, originID, actorID int64) (*model.ActorAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedStore)(m).GetAggregate(ctx, originID, actorID)
}

func (m *mockStore) ListAggregates(ctx context.Context, originID *int64) ([]*model.ActorAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedStore)(m).ListAggregates(ctx, originID)
}

func (m *mockStore) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedStore)(m).GlobalStats(ctx)
}

func (m *mockStore) OriginStats(ctx context.Context, originID int64, topN int) (*model.OriginStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedStore)(m).OriginStats(ctx, originID, topN)
}

func (m *mockStore) LoadCursor(ctx context.Context, name string) (*int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedStore)(m).LoadCursor(ctx, name)
}

func (m *mockStore) StoreCursor(ctx context.Context, name string, position int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedStore)(m).StoreCursor(ctx, name, position)
}

// RunInTransaction holds the store lock for the whole of fn and restores
// the previous state if fn fails.
func (m *mockStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := maps.Clone(m.events)
	aggs := make(map[actorKey]*model.ActorAggregate, len(m.aggs))
	for k, a := range m.aggs {
		cp := *a
		aggs[k] = &cp
	}

	if err := fn((*lockedStore)(m)); err != nil {
		m.events = events
		m.aggs = aggs
		m.log = append(m.log, "rollback")
		return err
	}
	return nil
}

func (m *mockStore) Ping(context.Context) error { return nil }
func (m *mockStore) Close() error               { return nil }

func (m *mockStore) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockStore) ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.log...)
}

// lockedStore is the view of mockStore used while the lock is held.
type lockedStore mockStore

func (s *lockedStore) InsertEvent(_ context.Context, e *model.Event) (bool, error) {
	if err := s.failInsert[e.SequenceID]; err != nil {
		return false, err
	}
	k := eventKey{e.OriginID, e.SequenceID}
	if _, ok := s.events[k]; ok {
		return false, nil
	}
	cp := *e
	s.events[k] = &cp
	s.log = append(s.log, fmt.Sprintf("insert %d/%d", e.OriginID, e.SequenceID))
	return true, nil
}

func (s *lockedStore) ListEvents(_ context.Context, f model.EventFilter) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range s.events {
		if f.OriginID != nil && e.OriginID != *f.OriginID {
			continue
		}
		if f.ActorID != nil && e.ActorID != *f.ActorID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OriginID != out[j].OriginID {
			return out[i].OriginID < out[j].OriginID
		}
		return out[i].SequenceID < out[j].SequenceID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *lockedStore) UpsertAggregate(_ context.Context, e *model.Event) error {
	k := actorKey{e.OriginID, e.ActorID}
	a, ok := s.aggs[k]
	if !ok {
		a = &model.ActorAggregate{}
		s.aggs[k] = a
	}
	applyEvent(a, e)
	s.log = append(s.log, fmt.Sprintf("aggregate %d/%d", e.OriginID, e.ActorID))
	return nil
}

func (s *lockedStore) GetAggregate(_ context.Context, originID, actorID int64) (*model.ActorAggregate, error) {
	a, ok := s.aggs[actorKey{originID, actorID}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (s *lockedStore) ListAggregates(_ context.Context, originID *int64) ([]*model.ActorAggregate, error) {
	var out []*model.ActorAggregate
	for _, a := range s.aggs {
		if originID != nil && a.OriginID != *originID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventCount != out[j].EventCount {
			return out[i].EventCount > out[j].EventCount
		}
		return out[i].ActorID < out[j].ActorID
	})
	return out, nil
}

func (s *lockedStore) GlobalStats(_ context.Context) (*model.GlobalStats, error) {
	origins := map[int64]bool{}
	for k := range s.events {
		origins[k.origin] = true
	}
	actors := map[int64]bool{}
	for k := range s.aggs {
		actors[k.actor] = true
	}
	return &model.GlobalStats{
		TotalEvents:  int64(len(s.events)),
		TotalOrigins: int64(len(origins)),
		TotalActors:  int64(len(actors)),
	}, nil
}

func (s *lockedStore) OriginStats(ctx context.Context, originID int64, topN int) (*model.OriginStats, error) {
	stats := &model.OriginStats{OriginID: originID, TopActors: []model.ActorCount{}}
	for k := range s.events {
		if k.origin == originID {
			stats.EventCount++
		}
	}
	aggs, _ := s.ListAggregates(ctx, &originID)
	stats.ActorCount = int64(len(aggs))
	for i, a := range aggs {
		if i >= topN {
			break
		}
		stats.TopActors = append(stats.TopActors, model.ActorCount{
			ActorID:    a.ActorID,
			Display:    a.Name(),
			EventCount: a.EventCount,
		})
	}
	return stats, nil
}

func (s *lockedStore) LoadCursor(_ context.Context, name string) (*int64, error) {
	p, ok := s.cursors[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *lockedStore) StoreCursor(_ context.Context, name string, position int64) error {
	if s.failCursor != nil {
		return s.failCursor
	}
	if cur, ok := s.cursors[name]; !ok || position > cur {
		s.cursors[name] = position
	}
	s.log = append(s.log, fmt.Sprintf("cursor %d", position))
	return nil
}

func (s *lockedStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (s *lockedStore) Ping(context.Context) error { return nil }
func (s *lockedStore) Close() error               { return nil }

// applyEvent mirrors the aggregate upsert statement of the Postgres store.
func applyEvent(a *model.ActorAggregate, e *model.Event) {
	if a.EventCount == 0 {
		a.OriginID = e.OriginID
		a.ActorID = e.ActorID
		a.FirstSeen = e.OccurredAt
		a.LastSeen = e.OccurredAt
	}
	a.FirstSeen = min(a.FirstSeen, e.OccurredAt)
	a.LastSeen = max(a.LastSeen, e.OccurredAt)
	a.ActorUsername = e.ActorUsername
	a.ActorDisplay = e.ActorDisplay
	a.EventCount++
}
