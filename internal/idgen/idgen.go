// Package idgen generates short, URL-safe identifiers for delivery batches
// and export snapshots. IDs only correlate log lines; nothing is keyed on them.
package idgen

import (
	"fmt"
	"strconv"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the kinds of IDs datacol hands out.
const (
	BatchPrefix    = "b-"
	SnapshotPrefix = "snap-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// GenerateWithPrefix returns a new random ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// Batch returns an ID for a delivery batch. If the random source fails the
// ID falls back to a nanosecond timestamp so callers never have to handle an error.
func Batch() string {
	return orTimestamp(BatchPrefix)
}

// Snapshot returns an ID for an export snapshot.
func Snapshot() string {
	return orTimestamp(SnapshotPrefix)
}

func orTimestamp(prefix string) string {
	id, err := GenerateWithPrefix(prefix)
	if err != nil {
		return prefix + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}
