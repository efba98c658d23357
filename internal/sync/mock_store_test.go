package sync

import (
	"context"
	"errors"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// mockReader is a minimal in-memory Reader for sync tests.
type mockReader struct {
	events []*model.Event
	aggs   []*model.ActorAggregate
	cursor *int64
	err    error
}

func (m *mockReader) ListEvents(_ context.Context, _ model.EventFilter) ([]*model.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]*model.Event(nil), m.events...), nil
}

func (m *mockReader) ListAggregates(_ context.Context, _ *int64) ([]*model.ActorAggregate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]*model.ActorAggregate(nil), m.aggs...), nil
}

func (m *mockReader) LoadCursor(_ context.Context, _ string) (*int64, error) {
	return m.cursor, nil
}

var errBroken = errors.New("connection reset")
