// Package flush periodically persists the progression cache in transactional batches.
package flush

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
	customerrors "github.com/AccelByte/extend-level-progression/pkg/errors"
	"github.com/AccelByte/extend-level-progression/pkg/metrics"
)

// minInterval is the shortest allowed flush period.
var minInterval = time.Second

var tracer = otel.Tracer("levelstar.flush")

// Snapshotter produces the rows to persist.
type Snapshotter interface {
	Snapshot() []domain.UserProgression
}

// BatchWriter persists a snapshot atomically.
type BatchWriter interface {
	UpsertBatch(ctx context.Context, entries []domain.UserProgression) error
}

// Scheduler runs the background flush loop.
//
// The loop has fixed-delay semantics: the next cycle starts one interval after
// the previous flush completes, so cycles never overlap. Flush calls from
// outside the loop (shutdown) are serialized with it.
type Scheduler struct {
	source   Snapshotter
	sink     BatchWriter
	interval atomic.Int64 // time.Duration
	flushMu  sync.Mutex
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex // guards the lifecycle fields below
	started bool
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewScheduler creates a stopped scheduler. m may be nil.
func NewScheduler(source Snapshotter, sink BatchWriter, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	s := &Scheduler{
		source:  source,
		sink:    sink,
		logger:  logger,
		metrics: m,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.interval.Store(int64(floorInterval(interval)))

	return s
}

func floorInterval(d time.Duration) time.Duration {
	if d < minInterval {
		return minInterval
	}
	return d
}

// Interval returns the current flush period.
func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetInterval changes the flush period starting with the next cycle.
func (s *Scheduler) SetInterval(d time.Duration) {
	d = floorInterval(d)
	if old := time.Duration(s.interval.Swap(int64(d))); old != d {
		s.logger.Info("Flush interval updated", "old", old, "new", d)
	}
}

// Start launches the flush loop. It returns an error if called more than once.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("flush scheduler already started")
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.run(runCtx)

	s.logger.Info("Flush scheduler started", "interval", s.Interval())
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.Interval())
	defer timer.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			select {
			case <-s.stopCh:
				return
			default:
			}

			// Errors are logged and counted inside Flush; the cache stays the
			// source of truth and the next cycle retries.
			_, _ = s.Flush(ctx)
			timer.Reset(s.Interval())
		}
	}
}

// Flush persists one snapshot of the cache and returns the number of rows written.
// An empty snapshot skips the store entirely.
func (s *Scheduler) Flush(ctx context.Context) (int, error) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	ctx, span := tracer.Start(ctx, "flush.Scheduler.Flush", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	start := time.Now()
	snapshot := s.source.Snapshot()
	rows := len(snapshot)
	span.SetAttributes(attribute.Int("flush.rows", rows))

	if rows == 0 {
		s.metrics.ObserveFlush(metrics.StatusEmpty, time.Since(start).Seconds(), 0)
		return 0, nil
	}

	if err := s.sink.UpsertBatch(ctx, snapshot); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert batch failed")
		s.metrics.ObserveFlush(metrics.StatusFailure, time.Since(start).Seconds(), rows)

		s.logger.Error("Flush failed, retrying next cycle",
			"rows", rows,
			"error", err,
		)
		return 0, fmt.Errorf("flush %d rows: %w", rows, err)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveFlush(metrics.StatusSuccess, elapsed.Seconds(), rows)

	s.logger.Debug("Flush completed",
		"rows", rows,
		"duration_ms", elapsed.Milliseconds(),
	)
	return rows, nil
}

// Stop signals the loop and waits up to grace for an in-flight flush.
//
// If the flush does not finish in time its context is canceled and an
// INTERRUPTED_SHUTDOWN error is returned without waiting further. A later
// Flush call still waits for the canceled flush to release the flush lock.
// Stop on a scheduler that was never started, or a second Stop, returns nil.
func (s *Scheduler) Stop(grace time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopCh)
	cancel := s.cancel
	s.mu.Unlock()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-s.done:
		cancel()
		s.logger.Info("Flush scheduler stopped")
		return nil
	case <-timer.C:
		cancel()
		s.logger.Warn("Flush scheduler did not stop in time, in-flight flush canceled", "grace", grace)
		return customerrors.ErrInterruptedShutdown(grace)
	}
}
