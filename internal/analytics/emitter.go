package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Recorder persists search events.
type Recorder interface {
	Record(ctx context.Context, ev SearchEvent) error
}

const recordTimeout = 5 * time.Second

// Emitter hands events to a Recorder on a bounded worker pool. Emit never
// blocks the caller: when every worker is busy the event is dropped and counted.
type Emitter struct {
	rec    Recorder
	pool   *ants.Pool
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewEmitter creates an emitter with size workers.
func NewEmitter(rec Recorder, size int, logger *slog.Logger) (*Emitter, error) {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Emitter{rec: rec, pool: pool, logger: logger}, nil
}

// Emit schedules ev for recording.
func (e *Emitter) Emit(ev SearchEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.dropped.Add(1)
		return
	}

	e.wg.Add(1)
	err := e.pool.Submit(func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := e.rec.Record(ctx, ev); err != nil {
			e.failed.Add(1)
			e.logger.Warn("analytics: record failed",
				slog.String("request_id", ev.RequestID),
				slog.String("error", err.Error()))
		}
	})
	if err != nil {
		e.wg.Done()
		e.dropped.Add(1)
		e.logger.Debug("analytics: event dropped",
			slog.String("request_id", ev.RequestID),
			slog.String("error", err.Error()))
	}
}

// Dropped returns how many events were discarded without being recorded.
func (e *Emitter) Dropped() int64 { return e.dropped.Load() }

// Failed returns how many events the Recorder rejected.
func (e *Emitter) Failed() int64 { return e.failed.Load() }

// Close waits for in-flight events and releases the pool.
func (e *Emitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	e.pool.Release()
}
