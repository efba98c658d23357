package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestBatch_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(BatchPrefix) + `[a-zA-Z0-9]{10}$`)
	for i := 0; i < 100; i++ {
		id := Batch()
		if !pattern.MatchString(id) {
			t.Fatalf("Batch() = %q, does not match expected pattern", id)
		}
	}
}

func TestSnapshot_Prefix(t *testing.T) {
	if id := Snapshot(); !strings.HasPrefix(id, SnapshotPrefix) {
		t.Errorf("Snapshot() = %q, want prefix %q", id, SnapshotPrefix)
	}
}

func TestBatch_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id := Batch()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	prefix := "test-"
	id, err := GenerateWithPrefix(prefix)
	if err != nil {
		t.Fatalf("GenerateWithPrefix(%q) error: %v", prefix, err)
	}
	if wantLen := len(prefix) + Length; len(id) != wantLen {
		t.Errorf("GenerateWithPrefix(%q) length = %d, want %d (id=%q)", prefix, len(id), wantLen, id)
	}
}

func TestOrTimestamp_Prefix(t *testing.T) {
	if id := orTimestamp("x-"); !strings.HasPrefix(id, "x-") {
		t.Errorf("orTimestamp = %q", id)
	}
}
