package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rajuthattil19-prog/datacol/internal/idgen"
	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/telegram"
)

// ErrInvalidPayload is returned by Intake when the body does not decode as
// an update.
var ErrInvalidPayload = errors.New("delivery: invalid payload")

// PushSource receives updates from the webhook handler. Each Intake call
// becomes a one-update batch and blocks until the runner completes it, so
// the HTTP response is only sent after the update was persisted.
type PushSource struct {
	queue     chan *Batch
	closed    chan struct{}
	closeOnce sync.Once
}

var _ Source = (*PushSource)(nil)

// NewPushSource creates a push source whose queue holds up to size pending
// batches before Intake blocks.
func NewPushSource(size int) *PushSource {
	if size < 0 {
		size = 0
	}
	return &PushSource{
		queue:  make(chan *Batch, size),
		closed: make(chan struct{}),
	}
}

func (p *PushSource) Mode() string { return ModePush }

// Intake hands one raw update to the runner and waits for its result.
func (p *PushSource) Intake(ctx context.Context, raw json.RawMessage) (model.BatchResult, error) {
	var u *telegram.Update
	if err := json.Unmarshal(raw, &u); err != nil {
		return model.BatchResult{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if u == nil {
		return model.BatchResult{}, fmt.Errorf("%w: null update", ErrInvalidPayload)
	}

	b := &Batch{
		ID:      idgen.Batch(),
		Updates: []json.RawMessage{raw},
		ack:     make(chan model.BatchResult, 1),
	}

	select {
	case <-p.closed:
		return model.BatchResult{}, ErrSourceClosed
	default:
	}

	select {
	case p.queue <- b:
	case <-ctx.Done():
		return model.BatchResult{}, ctx.Err()
	case <-p.closed:
		return model.BatchResult{}, ErrSourceClosed
	}

	select {
	case res := <-b.ack:
		return res, nil
	case <-ctx.Done():
		return model.BatchResult{}, ctx.Err()
	case <-p.closed:
		return model.BatchResult{}, ErrSourceClosed
	}
}

// Next returns the next queued webhook batch.
func (p *PushSource) Next(ctx context.Context) (*Batch, error) {
	select {
	case b := <-p.queue:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.closed:
		return nil, ErrSourceClosed
	}
}

// Complete releases the Intake call waiting on b.
func (p *PushSource) Complete(b *Batch, res model.BatchResult) {
	if b == nil || b.ack == nil {
		return
	}
	select {
	case b.ack <- res:
	default:
	}
}

// Close stops accepting updates and unblocks pending Intake and Next calls.
func (p *PushSource) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
}
