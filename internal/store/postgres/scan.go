package postgres

import (
	"database/sql"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a model.Event.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		username sql.NullString
		display  sql.NullString
		content  sql.NullString
		kind     sql.NullString
	)
	err := row.Scan(
		&e.OriginID,
		&e.SequenceID,
		&e.ActorID,
		&username,
		&display,
		&e.OccurredAt,
		&content,
		&kind,
		&e.IngestedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ActorUsername = username.String
	e.ActorDisplay = display.String
	e.Content = content.String
	e.OriginKind = model.OriginKind(kind.String)
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// scanAggregate scans a single row into a model.ActorAggregate.
// The row must contain columns in the order defined by aggregateColumns.
func scanAggregate(row scannable) (*model.ActorAggregate, error) {
	var a model.ActorAggregate
	var username, display sql.NullString
	err := row.Scan(
		&a.OriginID,
		&a.ActorID,
		&username,
		&display,
		&a.FirstSeen,
		&a.LastSeen,
		&a.EventCount,
	)
	if err != nil {
		return nil, err
	}
	a.ActorUsername = username.String
	a.ActorDisplay = display.String
	return &a, nil
}

// scanAggregates scans multiple rows into a slice of model.ActorAggregate pointers.
func scanAggregates(rows *sql.Rows) ([]*model.ActorAggregate, error) {
	var aggs []*model.ActorAggregate
	for rows.Next() {
		a, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aggs, nil
}
