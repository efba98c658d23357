package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/rajuthattil19-prog/datacol/internal/events"
	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/ui"
)

func TestMain(m *testing.M) {
	ui.ForceNoColor()
	os.Exit(m.Run())
}

func withJSON(t *testing.T) {
	t.Helper()
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
}

type fakeHealth struct {
	status string
	err    error
}

func (f fakeHealth) Health(context.Context) (string, error) { return f.status, f.err }
func (f fakeHealth) Close() error                          { return nil }

func TestRunHealth(t *testing.T) {
	tests := []struct {
		name    string
		checker fakeHealth
		wantErr bool
		want    string
	}{
		{name: "HTTP ok", checker: fakeHealth{status: "OK"}, want: "http://x OK\n"},
		{name: "gRPC serving", checker: fakeHealth{status: "SERVING"}, want: "http://x SERVING\n"},
		{name: "not serving", checker: fakeHealth{status: "NOT_SERVING"}, wantErr: true, want: "http://x NOT_SERVING\n"},
		{name: "unreachable", checker: fakeHealth{err: errors.New("connection refused")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := runHealth(context.Background(), &buf, tt.checker, "http://x")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestRunHealth_JSON(t *testing.T) {
	withJSON(t)
	var buf bytes.Buffer
	if err := runHealth(context.Background(), &buf, fakeHealth{status: "OK"}, "http://x"); err != nil {
		t.Fatalf("runHealth: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if out["healthy"] != true || out["status"] != "OK" {
		t.Errorf("unexpected output %v", out)
	}
}

type fakeStats struct {
	origins map[int64]*model.OriginStats
	actors  map[[2]int64]*model.ActorAggregate
}

func (f fakeStats) GlobalStats(context.Context) (*model.GlobalStats, error) {
	return &model.GlobalStats{TotalEvents: 10, TotalOrigins: 2, TotalActors: 3}, nil
}

func (f fakeStats) OriginStats(_ context.Context, id int64) (*model.OriginStats, error) {
	o, ok := f.origins[id]
	if !ok {
		return nil, errors.New("HTTP 404: not found")
	}
	return o, nil
}

func (f fakeStats) ActorStats(_ context.Context, origin, actor int64) (*model.ActorAggregate, error) {
	a, ok := f.actors[[2]int64{origin, actor}]
	if !ok {
		return nil, errors.New("HTTP 404: actor has no events in this origin")
	}
	return a, nil
}

func (f fakeStats) Close() error { return nil }

func TestRunStats(t *testing.T) {
	c := fakeStats{origins: map[int64]*model.OriginStats{
		-100: {OriginID: -100, EventCount: 7, ActorCount: 2, TopActors: []model.ActorCount{{ActorID: 1, Display: "@alice", EventCount: 5}}},
	}}

	var buf bytes.Buffer
	if err := runStats(context.Background(), &buf, c, nil); err != nil {
		t.Fatalf("runStats: %v", err)
	}
	if !strings.Contains(buf.String(), "Total msgs: 10") || strings.Contains(buf.String(), "This chat") {
		t.Errorf("global output = %q", buf.String())
	}

	buf.Reset()
	origin := int64(-100)
	if err := runStats(context.Background(), &buf, c, &origin); err != nil {
		t.Fatalf("runStats: %v", err)
	}
	if !strings.Contains(buf.String(), "1. @alice (5)") {
		t.Errorf("origin output = %q", buf.String())
	}

	missing := int64(5)
	if err := runStats(context.Background(), &buf, c, &missing); err == nil {
		t.Fatal("expected error for unknown origin")
	}
}

func TestRunStats_JSON(t *testing.T) {
	withJSON(t)
	var buf bytes.Buffer
	if err := runStats(context.Background(), &buf, fakeStats{}, nil); err != nil {
		t.Fatalf("runStats: %v", err)
	}
	var out struct {
		Global *model.GlobalStats `json:"global"`
		Origin *model.OriginStats `json:"origin"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Global == nil || out.Global.TotalActors != 3 || out.Origin != nil {
		t.Errorf("unexpected output %+v", out)
	}
}

func TestRunActorStats(t *testing.T) {
	c := fakeStats{actors: map[[2]int64]*model.ActorAggregate{
		{-100, 1}: {OriginID: -100, ActorID: 1, ActorUsername: "alice", FirstSeen: 0, LastSeen: 60, EventCount: 5},
	}}

	var buf bytes.Buffer
	if err := runActorStats(context.Background(), &buf, c, -100, 1); err != nil {
		t.Fatalf("runActorStats: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "@alice in chat -100") || !strings.Contains(out, "Last seen: 1970-01-01T00:01:00Z") {
		t.Errorf("output = %q", out)
	}

	if err := runActorStats(context.Background(), &buf, c, -100, 2); err == nil {
		t.Fatal("expected error for unknown actor")
	}
}

func TestRunActorStats_JSON(t *testing.T) {
	withJSON(t)
	c := fakeStats{actors: map[[2]int64]*model.ActorAggregate{
		{7, 3}: {OriginID: 7, ActorID: 3, EventCount: 2},
	}}

	var buf bytes.Buffer
	if err := runActorStats(context.Background(), &buf, c, 7, 3); err != nil {
		t.Fatalf("runActorStats: %v", err)
	}
	var got model.ActorAggregate
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.ActorID != 3 || got.EventCount != 2 {
		t.Errorf("unexpected output %+v", got)
	}
}

type fakeCursors struct {
	pos *int64
	err error
}

func (f fakeCursors) LoadCursor(context.Context, string) (*int64, error) { return f.pos, f.err }
func (f fakeCursors) StoreCursor(context.Context, string, int64) error  { return nil }

func TestRunCursor(t *testing.T) {
	pos := int64(812)
	var buf bytes.Buffer
	if err := runCursor(context.Background(), &buf, fakeCursors{pos: &pos}, "redis", "telegram"); err != nil {
		t.Fatalf("runCursor: %v", err)
	}
	if got := buf.String(); got != "telegram (redis): 812\n" {
		t.Errorf("output = %q", got)
	}

	buf.Reset()
	if err := runCursor(context.Background(), &buf, fakeCursors{}, "postgres", "telegram"); err != nil {
		t.Fatalf("runCursor: %v", err)
	}
	if got := buf.String(); got != "telegram (postgres): not set\n" {
		t.Errorf("output = %q", got)
	}

	if err := runCursor(context.Background(), &buf, fakeCursors{err: errors.New("down")}, "redis", "telegram"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     events.Message
		want    string
		wantErr bool
	}{
		{
			name: "ingested",
			msg:  events.Message{Topic: events.TopicEventIngested, Data: []byte(`{"event":{"origin_id":-1,"sequence_id":4,"actor_id":9,"occurred_at":1,"origin_kind":"supergroup","ingested_at":"2024-01-01T00:00:00Z"}}`)},
			want: "origin=-1 seq=4 actor=9 kind=supergroup",
		},
		{
			name: "duplicate",
			msg:  events.Message{Topic: events.TopicEventDuplicate, Data: []byte(`{"origin_id":-1,"sequence_id":4}`)},
			want: "origin=-1 seq=4",
		},
		{
			name: "batch",
			msg:  events.Message{Topic: events.TopicBatchProcessed, Data: []byte(`{"batch_id":"b1","mode":"pull","result":{"stored":2,"duplicates":1,"dropped":0,"failures":0}}`)},
			want: "batch=b1 mode=pull stored=2 duplicates=1 dropped=0 failures=0",
		},
		{
			name: "cursor",
			msg:  events.Message{Topic: events.TopicCursorAdvanced, Data: []byte(`{"name":"telegram","position":33}`)},
			want: "cursor=telegram position=33",
		},
		{
			name:    "ingested without event",
			msg:     events.Message{Topic: events.TopicEventIngested, Data: []byte(`{}`)},
			wantErr: true,
		},
		{
			name:    "unknown topic",
			msg:     events.Message{Topic: "other", Data: []byte(`{}`)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatMessage(tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

type chanSubscriber struct {
	ch chan events.Message
}

func (s *chanSubscriber) Subscribe(string) (<-chan events.Message, func(), error) {
	return s.ch, func() {}, nil
}

func (s *chanSubscriber) Close() error { return nil }

func TestRunWatch_PrintsUntilClosed(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan events.Message, 3)}
	sub.ch <- events.Message{Topic: events.TopicCursorAdvanced, Data: []byte(`{"name":"telegram","position":1}`)}
	sub.ch <- events.Message{Topic: "datacol.unknown", Data: []byte(`{}`)}
	sub.ch <- events.Message{Topic: events.TopicEventDuplicate, Data: []byte(`{"origin_id":2,"sequence_id":3}`)}
	close(sub.ch)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := runWatch(context.Background(), &buf, sub, events.TopicAll, logger); err != nil {
		t.Fatalf("runWatch: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasSuffix(lines[0], events.TopicCursorAdvanced+" cursor=telegram position=1") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "origin=2 seq=3") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestRunWatch_JSONPassesThrough(t *testing.T) {
	withJSON(t)
	sub := &chanSubscriber{ch: make(chan events.Message, 1)}
	sub.ch <- events.Message{Topic: events.TopicCursorAdvanced, Data: []byte(`{"name":"telegram","position":1}`)}
	close(sub.ch)

	var buf bytes.Buffer
	if err := runWatch(context.Background(), &buf, sub, events.TopicAll, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("runWatch: %v", err)
	}
	var out struct {
		Topic string                `json:"topic"`
		Data  events.CursorAdvanced `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if out.Topic != events.TopicCursorAdvanced || out.Data.Position != 1 {
		t.Errorf("unexpected output %+v", out)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record logged at warn level: %q", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", out, err)
	}
	if rec["msg"] != "shown" {
		t.Errorf("msg = %v", rec["msg"])
	}
}

func TestColorizeHelp_NoColorIsIdentity(t *testing.T) {
	in := "Usage:\n  datacol <command>\n\nService:\n  serve       Run the collector\n\nFlags:\n      --origin int64   origin\n"
	if got := colorizeHelp(in); got != in {
		t.Errorf("colorizeHelp changed text without color:\n%q", got)
	}
}
