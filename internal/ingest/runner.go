package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rajuthattil19-prog/datacol/internal/delivery"
	"github.com/rajuthattil19-prog/datacol/internal/events"
	"github.com/rajuthattil19-prog/datacol/internal/metrics"
	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/store"
)

// Processor ingests one batch of raw updates.
type Processor interface {
	Process(ctx context.Context, updates []json.RawMessage) model.BatchResult
}

// Runner pulls batches from a delivery source, hands them to the processor
// and persists the batch cursor afterwards. It can be started once.
type Runner struct {
	processor  Processor
	cursors    store.CursorStore
	publisher  events.Publisher
	cursorName string
	logger     *slog.Logger

	once    sync.Once
	started atomic.Bool
	done    chan struct{}
	err     error
}

// NewRunner creates a runner. A nil publisher disables progress events.
func NewRunner(p Processor, cursors store.CursorStore, publisher events.Publisher, logger *slog.Logger) *Runner {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		processor:  p,
		cursors:    cursors,
		publisher:  publisher,
		cursorName: model.CursorTelegram,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start launches the delivery loop in the background. Only the first call
// has any effect; it reports whether this call started the loop.
func (r *Runner) Start(ctx context.Context, src delivery.Source) bool {
	started := false
	r.once.Do(func() {
		started = true
		r.started.Store(true)
		r.logger.Info("ingestion started", "mode", src.Mode())
		go func() {
			defer close(r.done)
			r.err = r.run(ctx, src)
		}()
	})
	if !started {
		r.logger.Warn("ingestion already running, ignoring start")
	}
	return started
}

// Wait blocks until the loop exits. It returns nil for a normal shutdown
// (context cancellation or a closed source) and immediately if the runner
// was never started.
func (r *Runner) Wait() error {
	if !r.started.Load() {
		return nil
	}
	<-r.done
	return r.err
}

func (r *Runner) run(ctx context.Context, src delivery.Source) error {
	for {
		b, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, delivery.ErrSourceClosed) {
				r.logger.Info("ingestion stopped", "mode", src.Mode())
				return nil
			}
			return err
		}
		r.handle(ctx, src, b)
	}
}

// handle processes one batch. The cursor is written only after every
// update in the batch went through the processor.
func (r *Runner) handle(ctx context.Context, src delivery.Source, b *delivery.Batch) {
	start := time.Now()
	res := r.processor.Process(ctx, b.Updates)

	if b.Cursor != nil {
		r.storeCursor(ctx, *b.Cursor)
	}
	src.Complete(b, res)

	elapsed := time.Since(start)
	metrics.BatchesTotal.WithLabelValues(src.Mode()).Inc()
	metrics.BatchDuration.WithLabelValues(src.Mode()).Observe(elapsed.Seconds())

	if err := r.publisher.Publish(ctx, events.TopicBatchProcessed, events.BatchProcessed{
		BatchID: b.ID,
		Mode:    src.Mode(),
		Result:  res,
	}); err != nil {
		r.logger.Warn("failed to publish batch event", "batch", b.ID, "err", err)
	}

	r.logger.Debug("batch processed",
		"batch", b.ID,
		"mode", src.Mode(),
		"updates", res.Total(),
		"stored", res.Stored,
		"duplicates", res.Duplicates,
		"dropped", res.Dropped,
		"failures", res.Failures,
		"elapsed", elapsed,
	)
}

func (r *Runner) storeCursor(ctx context.Context, position int64) {
	// A cancelled batch may have skipped updates; leave the cursor so they
	// are delivered again after restart.
	if ctx.Err() != nil {
		return
	}
	if err := r.cursors.StoreCursor(ctx, r.cursorName, position); err != nil {
		metrics.CursorStoreErrors.Inc()
		r.logger.Error("failed to store cursor", "cursor", position, "err", err)
		return
	}
	metrics.CursorPosition.Set(float64(position))
	if err := r.publisher.Publish(ctx, events.TopicCursorAdvanced, events.CursorAdvanced{
		Name:     r.cursorName,
		Position: position,
	}); err != nil {
		r.logger.Warn("failed to publish cursor event", "err", err)
	}
}
