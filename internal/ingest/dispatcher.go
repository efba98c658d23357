// Package ingest turns raw upstream updates into stored events and
// aggregate increments, answers chat commands, and drives the delivery loop.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/rajuthattil19-prog/datacol/internal/events"
	"github.com/rajuthattil19-prog/datacol/internal/metrics"
	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/store"
	"github.com/rajuthattil19-prog/datacol/internal/telegram"
)

// Replier sends a plain-text chat message.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Reporter renders the stats reply for a chat.
type Reporter interface {
	Report(ctx context.Context, originID int64) (string, error)
}

// Options configures a Dispatcher. Nil collaborators are replaced by no-ops.
type Options struct {
	Policy      Policy
	Replier     Replier
	Reporter    Reporter
	Publisher   events.Publisher
	BotUsername string
	Logger      *slog.Logger
}

// Dispatcher is the sole writer of events and aggregates.
type Dispatcher struct {
	store       store.Store
	policy      Policy
	replier     Replier
	reporter    Reporter
	publisher   events.Publisher
	botUsername string
	logger      *slog.Logger
	now         func() time.Time
}

// NewDispatcher creates a dispatcher writing to s.
func NewDispatcher(s store.Store, opts Options) *Dispatcher {
	if opts.Publisher == nil {
		opts.Publisher = &events.NoopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		store:       s,
		policy:      opts.Policy,
		replier:     opts.Replier,
		reporter:    opts.Reporter,
		publisher:   opts.Publisher,
		botUsername: opts.BotUsername,
		logger:      opts.Logger,
		now:         time.Now,
	}
}

// Process ingests updates in delivery order. A failing update never stops
// the rest of the batch.
func (d *Dispatcher) Process(ctx context.Context, updates []json.RawMessage) model.BatchResult {
	var res model.BatchResult
	for _, raw := range updates {
		r := d.ProcessOne(ctx, raw)
		metrics.UpdatesTotal.WithLabelValues(string(r.Outcome), r.Reason).Inc()
		res.Add(r)
	}
	return res
}

// ProcessOne ingests a single raw update.
func (d *Dispatcher) ProcessOne(ctx context.Context, raw json.RawMessage) model.IngestResult {
	var u telegram.Update
	if err := json.Unmarshal(raw, &u); err != nil {
		d.logger.Debug("dropping undecodable update", "err", err)
		return dropped(model.DropUndecodable)
	}

	msg := u.Message
	if msg == nil {
		msg = u.ChannelPost
	}
	if msg == nil || msg.Chat == nil {
		return dropped(model.DropNoMessage)
	}
	if msg.IsService() {
		return dropped(model.DropService)
	}

	e, ok := d.buildEvent(msg)
	if !ok {
		return dropped(model.DropService)
	}

	if name, isCommand := parseCommand(e.Content, d.botUsername); isCommand {
		d.handleCommand(ctx, name, e.OriginID)
		return dropped(model.DropCommand)
	}

	if err := model.ValidateEvent(e); err != nil {
		d.logger.Warn("dropping invalid event", "origin", e.OriginID, "sequence", e.SequenceID, "err", err)
		return dropped(model.DropInvalid)
	}

	if !d.policy.Allows(e.OriginKind) {
		d.logger.Debug("dropping event by policy",
			"origin", e.OriginID, "kind", e.OriginKind, "policy", d.policy.String())
		return dropped(model.DropPolicy)
	}

	return d.persist(ctx, e)
}

// buildEvent maps a message onto an Event. ok is false when the message has
// no author at all.
func (d *Dispatcher) buildEvent(msg *telegram.Message) (*model.Event, bool) {
	e := &model.Event{
		OriginID:   msg.Chat.ID,
		SequenceID: msg.MessageID,
		OccurredAt: msg.Date,
		Content:    msg.TextOrCaption(),
		OriginKind: model.OriginKind(strings.ToLower(msg.Chat.Type)),
	}
	if e.OccurredAt == 0 {
		e.OccurredAt = d.now().Unix()
	}

	switch {
	case msg.From != nil:
		e.ActorID = msg.From.ID
		e.ActorUsername = msg.From.Username
		e.ActorDisplay = msg.From.FullName()
	case msg.SenderChat != nil:
		// Channel posts and anonymous admins are authored by a chat.
		e.ActorID = msg.SenderChat.ID
		e.ActorUsername = msg.SenderChat.Username
		e.ActorDisplay = strings.TrimSpace(msg.SenderChat.Title)
		if e.ActorDisplay == "" {
			e.ActorDisplay = e.ActorUsername
		}
	default:
		return nil, false
	}
	return e, true
}

// persist inserts the event and, only when it is new, applies it to the
// actor aggregate in the same transaction.
func (d *Dispatcher) persist(ctx context.Context, e *model.Event) model.IngestResult {
	var inserted bool
	err := d.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		inserted, err = tx.InsertEvent(ctx, e)
		if err != nil || !inserted {
			return err
		}
		return tx.UpsertAggregate(ctx, e)
	})
	if err != nil {
		d.logger.Error("failed to store event",
			"origin", e.OriginID, "sequence", e.SequenceID, "err", err)
		return model.IngestResult{Outcome: model.OutcomeFailed, Err: err}
	}

	if !inserted {
		d.logger.Debug("duplicate event suppressed", "origin", e.OriginID, "sequence", e.SequenceID)
		d.publish(ctx, events.TopicEventDuplicate, events.EventDuplicate{
			OriginID:   e.OriginID,
			SequenceID: e.SequenceID,
		})
		return model.IngestResult{Outcome: model.OutcomeDuplicate}
	}

	d.publish(ctx, events.TopicEventIngested, events.EventIngested{Event: e})
	return model.IngestResult{Outcome: model.OutcomeStored}
}

func (d *Dispatcher) handleCommand(ctx context.Context, name string, chatID int64) {
	var text string
	switch name {
	case CommandStart:
		text = StartReply
	case CommandStats:
		if d.reporter == nil {
			return
		}
		report, err := d.reporter.Report(ctx, chatID)
		if err != nil {
			d.logger.Error("failed to build stats reply", "origin", chatID, "err", err)
			return
		}
		text = report
	default:
		return
	}
	metrics.CommandsTotal.WithLabelValues(name).Inc()

	if d.replier == nil {
		return
	}
	if err := d.replier.SendMessage(ctx, chatID, text); err != nil {
		d.logger.Warn("failed to send command reply", "command", name, "origin", chatID, "err", err)
	}
}

func (d *Dispatcher) publish(ctx context.Context, topic string, event any) {
	if err := d.publisher.Publish(ctx, topic, event); err != nil {
		d.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}

func dropped(reason string) model.IngestResult {
	return model.IngestResult{Outcome: model.OutcomeDropped, Reason: reason}
}
