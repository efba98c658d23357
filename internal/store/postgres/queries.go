package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// eventColumns is the column list used for SELECT statements on the events table.
const eventColumns = `origin_id, sequence_id, actor_id, actor_username, actor_display,
	occurred_at, content, origin_kind, ingested_at`

// aggregateColumns is the column list used for SELECT statements on actor_aggregates.
const aggregateColumns = `origin_id, actor_id, actor_username, actor_display,
	first_seen, last_seen, event_count`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryInsertEvent inserts an event, relying on the primary key to reject
// duplicates at write time. It returns false when the row already existed.
func queryInsertEvent(ctx context.Context, db executor, e *model.Event) (bool, error) {
	if e.IngestedAt.IsZero() {
		e.IngestedAt = time.Now().UTC()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO events (
			origin_id, sequence_id, actor_id, actor_username, actor_display,
			occurred_at, content, origin_kind, ingested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (origin_id, sequence_id) DO NOTHING`,
		e.OriginID,
		e.SequenceID,
		e.ActorID,
		e.ActorUsername,
		e.ActorDisplay,
		e.OccurredAt,
		e.Content,
		string(e.OriginKind),
		e.IngestedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func queryListEvents(ctx context.Context, db executor, filter model.EventFilter) ([]*model.Event, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.OriginID != nil {
		whereClauses = append(whereClauses, "origin_id = "+nextArg())
		args = append(args, *filter.OriginID)
	}
	if filter.ActorID != nil {
		whereClauses = append(whereClauses, "actor_id = "+nextArg())
		args = append(args, *filter.ActorID)
	}

	q := "SELECT " + eventColumns + " FROM events"
	if len(whereClauses) > 0 {
		q += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	q += " ORDER BY origin_id ASC, sequence_id ASC"
	if filter.Limit > 0 {
		q += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// queryUpsertAggregate applies one fresh event to its (origin, actor)
// aggregate in a single statement. The counter, display name and time
// bounds change together or not at all.
func queryUpsertAggregate(ctx context.Context, db executor, e *model.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO actor_aggregates (
			origin_id, actor_id, actor_username, actor_display,
			first_seen, last_seen, event_count
		) VALUES ($1, $2, $3, $4, $5, $5, 1)
		ON CONFLICT (origin_id, actor_id) DO UPDATE SET
			actor_username = EXCLUDED.actor_username,
			actor_display = EXCLUDED.actor_display,
			first_seen = LEAST(actor_aggregates.first_seen, EXCLUDED.first_seen),
			last_seen = GREATEST(actor_aggregates.last_seen, EXCLUDED.last_seen),
			event_count = actor_aggregates.event_count + 1`,
		e.OriginID,
		e.ActorID,
		e.ActorUsername,
		e.ActorDisplay,
		e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("upsert aggregate: %w", err)
	}
	return nil
}

func queryGetAggregate(ctx context.Context, db executor, originID, actorID int64) (*model.ActorAggregate, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+aggregateColumns+`
		FROM actor_aggregates
		WHERE origin_id = $1 AND actor_id = $2`,
		originID, actorID,
	)
	return scanAggregate(row)
}

func queryListAggregates(ctx context.Context, db executor, originID *int64) ([]*model.ActorAggregate, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if originID != nil {
		rows, err = db.QueryContext(ctx, `
			SELECT `+aggregateColumns+`
			FROM actor_aggregates
			WHERE origin_id = $1
			ORDER BY event_count DESC, actor_id ASC`, *originID)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT `+aggregateColumns+`
			FROM actor_aggregates
			ORDER BY origin_id ASC, actor_id ASC`)
	}
	if err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	defer rows.Close()
	return scanAggregates(rows)
}

func queryGlobalStats(ctx context.Context, db executor) (*model.GlobalStats, error) {
	stats := &model.GlobalStats{}
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(DISTINCT origin_id) FROM events),
			(SELECT COUNT(DISTINCT actor_id) FROM actor_aggregates)`).Scan(
		&stats.TotalEvents,
		&stats.TotalOrigins,
		&stats.TotalActors,
	)
	if err != nil {
		return nil, fmt.Errorf("global stats: %w", err)
	}
	return stats, nil
}

func queryOriginStats(ctx context.Context, db executor, originID int64, topN int) (*model.OriginStats, error) {
	if topN <= 0 {
		topN = model.DefaultTopActors
	}

	stats := &model.OriginStats{OriginID: originID}
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events WHERE origin_id = $1),
			(SELECT COUNT(*) FROM actor_aggregates WHERE origin_id = $1)`,
		originID,
	).Scan(&stats.EventCount, &stats.ActorCount)
	if err != nil {
		return nil, fmt.Errorf("origin stats: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT actor_id, actor_username, actor_display, event_count
		FROM actor_aggregates
		WHERE origin_id = $1
		ORDER BY event_count DESC, actor_id ASC
		LIMIT $2`,
		originID, topN,
	)
	if err != nil {
		return nil, fmt.Errorf("origin stats: top actors: %w", err)
	}
	defer rows.Close()

	stats.TopActors = []model.ActorCount{}
	for rows.Next() {
		var (
			a                 model.ActorAggregate
			username, display sql.NullString
		)
		if err := rows.Scan(&a.ActorID, &username, &display, &a.EventCount); err != nil {
			return nil, fmt.Errorf("origin stats: scan actor: %w", err)
		}
		a.ActorUsername = username.String
		a.ActorDisplay = display.String
		stats.TopActors = append(stats.TopActors, model.ActorCount{
			ActorID:    a.ActorID,
			Display:    a.Name(),
			EventCount: a.EventCount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("origin stats: actor rows: %w", err)
	}
	return stats, nil
}

func queryLoadCursor(ctx context.Context, db executor, name string) (*int64, error) {
	var position int64
	err := db.QueryRowContext(ctx, `SELECT position FROM cursors WHERE name = $1`, name).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cursor %s: %w", name, err)
	}
	return &position, nil
}

// queryStoreCursor writes the cursor, never moving it backwards.
func queryStoreCursor(ctx context.Context, db executor, name string, position int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cursors (name, position, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET
			position = GREATEST(cursors.position, EXCLUDED.position),
			updated_at = NOW()`,
		name, position,
	)
	if err != nil {
		return fmt.Errorf("store cursor %s: %w", name, err)
	}
	return nil
}
