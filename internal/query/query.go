// Package query answers read-only statistics requests over the event and
// aggregate stores. Results are point-in-time snapshots.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/store"
)

// Stats is the read side of the store used by Service.
type Stats interface {
	GlobalStats(ctx context.Context) (*model.GlobalStats, error)
	OriginStats(ctx context.Context, originID int64, topN int) (*model.OriginStats, error)
	GetAggregate(ctx context.Context, originID, actorID int64) (*model.ActorAggregate, error)
}

// ErrNotFound is returned by ActorStats when the actor has no stored events
// in the origin.
var ErrNotFound = errors.New("query: not found")

var _ Stats = (store.Store)(nil)

// Service computes global and per-origin statistics.
type Service struct {
	stats Stats
	topN  int
}

// NewService creates a query service reporting up to model.DefaultTopActors
// actors per origin.
func NewService(s Stats) *Service {
	return &Service{stats: s, topN: model.DefaultTopActors}
}

// GlobalStats returns totals across every origin.
func (s *Service) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	g, err := s.stats.GlobalStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("global stats: %w", err)
	}
	return g, nil
}

// OriginStats returns counts and the most active actors for one origin.
func (s *Service) OriginStats(ctx context.Context, originID int64) (*model.OriginStats, error) {
	o, err := s.stats.OriginStats(ctx, originID, s.topN)
	if err != nil {
		return nil, fmt.Errorf("origin stats %d: %w", originID, err)
	}
	if len(o.TopActors) > s.topN {
		o.TopActors = o.TopActors[:s.topN]
	}
	return o, nil
}

// ActorStats returns the running counters for one actor in one origin.
func (s *Service) ActorStats(ctx context.Context, originID, actorID int64) (*model.ActorAggregate, error) {
	a, err := s.stats.GetAggregate(ctx, originID, actorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("actor stats %d/%d: %w", originID, actorID, err)
	}
	return a, nil
}

// Report returns the plain-text stats reply for a chat.
func (s *Service) Report(ctx context.Context, originID int64) (string, error) {
	g, err := s.GlobalStats(ctx)
	if err != nil {
		return "", err
	}
	o, err := s.OriginStats(ctx, originID)
	if err != nil {
		return "", err
	}
	return FormatStats(g, o), nil
}

// FormatStats renders the stats reply. A nil origin omits the chat section.
func FormatStats(g *model.GlobalStats, o *model.OriginStats) string {
	var b strings.Builder
	b.WriteString("Stats\n\n")
	if g != nil {
		fmt.Fprintf(&b, "Total users: %d\n", g.TotalActors)
		fmt.Fprintf(&b, "Total msgs: %d\n", g.TotalEvents)
		fmt.Fprintf(&b, "Total chats: %d\n", g.TotalOrigins)
	}
	if o != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "This chat users: %d\n", o.ActorCount)
		fmt.Fprintf(&b, "This chat msgs: %d\n", o.EventCount)
		if len(o.TopActors) > 0 {
			b.WriteString("Top:\n")
			for i, a := range o.TopActors {
				name := a.Display
				if name == "" {
					name = fmt.Sprintf("user %d", a.ActorID)
				}
				fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, name, a.EventCount)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatActor renders one actor's counters in the layout of FormatStats.
func FormatActor(a *model.ActorAggregate) string {
	name := a.Name()
	if name == "" {
		name = fmt.Sprintf("user %d", a.ActorID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s in chat %d\n\n", name, a.OriginID)
	fmt.Fprintf(&b, "Msgs: %d\n", a.EventCount)
	fmt.Fprintf(&b, "First seen: %s\n", model.ISOTime(a.FirstSeen))
	fmt.Fprintf(&b, "Last seen: %s", model.ISOTime(a.LastSeen))
	return b.String()
}
