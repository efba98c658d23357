// Package delivery turns the two upstream delivery styles, webhook push and
// long-poll pull, into one ordered stream of update batches.
package delivery

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rajuthattil19-prog/datacol/internal/model"
)

// Delivery modes.
const (
	ModePush = "push"
	ModePull = "pull"
)

// ErrSourceClosed is returned by a source that has been shut down.
var ErrSourceClosed = errors.New("delivery: source closed")

// Batch is a group of raw updates in upstream delivery order.
type Batch struct {
	ID      string
	Updates []json.RawMessage
	// Cursor is the position to persist once every update in the batch
	// has been processed. Nil when the source has no cursor (push).
	Cursor *int64

	ack chan model.BatchResult
}

// Source yields batches to the ingestion runner. Next and Complete are
// called from a single goroutine.
type Source interface {
	// Next blocks until a batch is available or ctx is done.
	Next(ctx context.Context) (*Batch, error)
	// Complete is called after the batch has been processed and its
	// cursor, if any, persisted.
	Complete(b *Batch, res model.BatchResult)
	// Mode returns ModePush or ModePull.
	Mode() string
}

// WebhookRegistrar manages the upstream webhook registration.
type WebhookRegistrar interface {
	SetWebhook(ctx context.Context, url, secret string) error
	DeleteWebhook(ctx context.Context, dropPending bool) error
}

// Claim makes mode the only active delivery claim for the bot: push mode
// registers url as the webhook, pull mode removes any registered webhook
// so that getUpdates is accepted. Pending updates are kept in both cases.
func Claim(ctx context.Context, r WebhookRegistrar, mode, url, secret string) error {
	switch mode {
	case ModePush:
		return r.SetWebhook(ctx, url, secret)
	case ModePull:
		return r.DeleteWebhook(ctx, false)
	default:
		return errors.New("delivery: unknown mode " + mode)
	}
}
