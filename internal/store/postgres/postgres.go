// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an already opened database without running migrations.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) InsertEvent(ctx context.Context, event *model.Event) (bool, error) {
	return queryInsertEvent(ctx, s.db, event)
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	return queryListEvents(ctx, s.db, filter)
}

func (s *PostgresStore) UpsertAggregate(ctx context.Context, event *model.Event) error {
	return queryUpsertAggregate(ctx, s.db, event)
}

func (s *PostgresStore) GetAggregate(ctx context.Context, originID, actorID int64) (*model.ActorAggregate, error) {
	return queryGetAggregate(ctx, s.db, originID, actorID)
}

func (s *PostgresStore) ListAggregates(ctx context.Context, originID *int64) ([]*model.ActorAggregate, error) {
	return queryListAggregates(ctx, s.db, originID)
}

func (s *PostgresStore) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	return queryGlobalStats(ctx, s.db)
}

func (s *PostgresStore) OriginStats(ctx context.Context, originID int64, topN int) (*model.OriginStats, error) {
	return queryOriginStats(ctx, s.db, originID, topN)
}

func (s *PostgresStore) LoadCursor(ctx context.Context, name string) (*int64, error) {
	return queryLoadCursor(ctx, s.db, name)
}

func (s *PostgresStore) StoreCursor(ctx context.Context, name string, position int64) error {
	return queryStoreCursor(ctx, s.db, name, position)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) InsertEvent(ctx context.Context, event *model.Event) (bool, error) {
	return queryInsertEvent(ctx, s.tx, event)
}

func (s *txStore) ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	return queryListEvents(ctx, s.tx, filter)
}

func (s *txStore) UpsertAggregate(ctx context.Context, event *model.Event) error {
	return queryUpsertAggregate(ctx, s.tx, event)
}

func (s *txStore) GetAggregate(ctx context.Context, originID, actorID int64) (*model.ActorAggregate, error) {
	return queryGetAggregate(ctx, s.tx, originID, actorID)
}

func (s *txStore) ListAggregates(ctx context.Context, originID *int64) ([]*model.ActorAggregate, error) {
	return queryListAggregates(ctx, s.tx, originID)
}

func (s *txStore) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	return queryGlobalStats(ctx, s.tx)
}

func (s *txStore) OriginStats(ctx context.Context, originID int64, topN int) (*model.OriginStats, error) {
	return queryOriginStats(ctx, s.tx, originID, topN)
}

func (s *txStore) LoadCursor(ctx context.Context, name string) (*int64, error) {
	return queryLoadCursor(ctx, s.tx, name)
}

func (s *txStore) StoreCursor(ctx context.Context, name string, position int64) error {
	return queryStoreCursor(ctx, s.tx, name, position)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Ping is a no-op inside a transaction.
func (s *txStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
