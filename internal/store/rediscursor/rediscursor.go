// Package rediscursor implements store.CursorStore backed by Redis.
package rediscursor

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rajuthattil19-prog/datacol/internal/store"
)

// maxRetries bounds the optimistic WATCH/MULTI loop in StoreCursor.
const maxRetries = 32

// Store keeps delivery cursors in Redis string keys.
type Store struct {
	client *redis.Client
}

// Compile-time check that Store implements store.CursorStore.
var _ store.CursorStore = (*Store)(nil)

// New connects to the Redis server at redisURL and verifies the connection.
func New(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// cursorKey returns the key holding the named cursor.
func cursorKey(name string) string {
	return fmt.Sprintf("datacol:cursor:%s", name)
}

// LoadCursor returns the persisted position, or nil when none was ever stored.
func (s *Store) LoadCursor(ctx context.Context, name string) (*int64, error) {
	val, err := s.client.Get(ctx, cursorKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cursor %s: %w", name, err)
	}
	pos, err := parsePosition(val)
	if err != nil {
		return nil, fmt.Errorf("load cursor %s: %w", name, err)
	}
	return &pos, nil
}

// StoreCursor writes position unless the stored value is already greater.
func (s *Store) StoreCursor(ctx context.Context, name string, position int64) error {
	key := cursorKey(name)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			existing, err := parsePosition(current)
			if err != nil {
				return err
			}
			if !advances(existing, position) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, strconv.FormatInt(position, 10), 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("store cursor %s: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("store cursor %s: too many concurrent updates", name)
}

func parsePosition(val string) (int64, error) {
	pos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor value %q: %w", val, err)
	}
	return pos, nil
}

// advances reports whether next would move the cursor forward.
func advances(existing, next int64) bool {
	return next > existing
}
