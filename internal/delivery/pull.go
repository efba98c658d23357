package delivery

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rajuthattil19-prog/datacol/internal/idgen"
	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/store"
	"github.com/rajuthattil19-prog/datacol/internal/telegram"
)

// Default duty cycle for long-polling.
const (
	DefaultActiveWindow = 1200 * time.Millisecond
	DefaultFetchTimeout = 6 * time.Second
	DefaultIdleWindow   = 3 * time.Second

	minLoadRetry = 100 * time.Millisecond
)

// Poller fetches updates starting at offset.
type Poller interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.RawUpdate, error)
}

// PullConfig controls the long-poll duty cycle.
type PullConfig struct {
	// ActiveWindow is how long the upstream holds a fetch open waiting for updates.
	ActiveWindow time.Duration
	// FetchTimeout bounds a single fetch end to end.
	FetchTimeout time.Duration
	// IdleWindow is the pause between the end of one fetch and the start of the next.
	IdleWindow time.Duration
	// CursorName identifies the persisted cursor. Defaults to model.CursorTelegram.
	CursorName string
}

func (c *PullConfig) applyDefaults() {
	if c.ActiveWindow <= 0 {
		c.ActiveWindow = DefaultActiveWindow
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.IdleWindow < 0 {
		c.IdleWindow = 0
	}
	if c.CursorName == "" {
		c.CursorName = model.CursorTelegram
	}
}

// PullSource long-polls the upstream on a duty cycle. It keeps a working
// cursor in memory, seeded once from the cursor store; the runner persists
// each batch's cursor after processing it.
type PullSource struct {
	poller  Poller
	cursors store.CursorStore
	cfg     PullConfig
	logger  *slog.Logger

	loaded    bool
	cursor    *int64
	lastFetch time.Time
}

var _ Source = (*PullSource)(nil)

// NewPullSource creates a pull source.
func NewPullSource(poller Poller, cursors store.CursorStore, cfg PullConfig, logger *slog.Logger) *PullSource {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &PullSource{
		poller:  poller,
		cursors: cursors,
		cfg:     cfg,
		logger:  logger,
	}
}

func (p *PullSource) Mode() string { return ModePull }

// Cursor returns the working cursor, or nil before the first batch when no
// cursor was persisted.
func (p *PullSource) Cursor() *int64 {
	if p.cursor == nil {
		return nil
	}
	c := *p.cursor
	return &c
}

// Next fetches until at least one update arrives. Fetch errors are logged
// and retried; only ctx cancellation ends the loop.
func (p *PullSource) Next(ctx context.Context) (*Batch, error) {
	if err := p.load(ctx); err != nil {
		return nil, err
	}

	for {
		if err := p.pause(ctx); err != nil {
			return nil, err
		}

		var offset int64
		if p.cursor != nil {
			offset = *p.cursor
		}

		fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
		updates, err := p.poller.GetUpdates(fetchCtx, offset, p.cfg.ActiveWindow)
		cancel()
		p.lastFetch = time.Now()

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if telegram.IsTimeout(err) {
				p.logger.Debug("poll timed out", "offset", offset)
			} else {
				p.logger.Warn("poll failed", "offset", offset, "err", err)
			}
			continue
		}
		if len(updates) == 0 {
			continue
		}

		next := offset
		payloads := make([]json.RawMessage, 0, len(updates))
		for _, u := range updates {
			payloads = append(payloads, u.Payload)
			if u.UpdateID+1 > next {
				next = u.UpdateID + 1
			}
		}
		p.cursor = &next

		b := &Batch{
			ID:      idgen.Batch(),
			Updates: payloads,
			Cursor:  p.Cursor(),
		}
		p.logger.Debug("poll batch", "batch", b.ID, "updates", len(payloads), "cursor", next)
		return b, nil
	}
}

// Complete is a no-op; the upstream treats the next fetch's offset as the
// acknowledgement.
func (p *PullSource) Complete(*Batch, model.BatchResult) {}

// load seeds the working cursor from the store exactly once, retrying on
// failure every idle window.
func (p *PullSource) load(ctx context.Context) error {
	for !p.loaded {
		pos, err := p.cursors.LoadCursor(ctx, p.cfg.CursorName)
		if err == nil {
			p.cursor = pos
			p.loaded = true
			if pos != nil {
				p.logger.Info("resuming from cursor", "cursor", *pos)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("load cursor failed", "err", err)
		if err := sleepCtx(ctx, max(p.cfg.IdleWindow, minLoadRetry)); err != nil {
			return err
		}
	}
	return nil
}

// pause enforces the idle window since the previous fetch.
func (p *PullSource) pause(ctx context.Context) error {
	if p.lastFetch.IsZero() {
		return nil
	}
	wait := p.cfg.IdleWindow - time.Since(p.lastFetch)
	return sleepCtx(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
