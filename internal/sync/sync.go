// Package sync periodically exports the collected data as JSONL to backup
// destinations.
package sync

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rajuthattil19-prog/datacol/internal/metrics"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	reader       Reader
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from r to the given
// destinations at the specified interval.
func NewScheduler(r Reader, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		reader:       r,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncOnce(ctx)
		}
	}
}

// SyncOnce exports once and writes the result to every destination. A
// failing destination does not stop the others.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.reader, &buf); err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		s.logger.Error("sync export failed", "err", err)
		return err
	}
	data := buf.Bytes()

	var failed int
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			failed++
			s.logger.Error("sync destination write failed", "destination", destName(i, dest), "err", err)
		}
	}
	if failed > 0 {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("%d of %d destinations failed", failed, len(s.destinations))
	}

	metrics.SyncRuns.WithLabelValues("ok").Inc()
	s.logger.Info("sync completed", "destinations", len(s.destinations), "bytes", len(data))
	return nil
}

func destName(i int, dest Destination) string {
	if st, ok := dest.(fmt.Stringer); ok {
		return st.String()
	}
	return fmt.Sprintf("#%d", i)
}
