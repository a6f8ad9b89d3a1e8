// Package pipeline batches history entries off the request path and loads
// them into a sink such as Kafka.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/impact-atlas/internal/history"
	"github.com/couchcryptid/impact-atlas/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// ErrQueueFull is returned by Record when the publisher cannot accept more entries.
var ErrQueueFull = errors.New("history queue full")

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// defaultDrainTimeout bounds the final flush after Run's context is cancelled.
	defaultDrainTimeout = 5 * time.Second
)

// BatchLoader writes multiple history entries to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, entries []history.Entry) error
}

// Publisher queues history entries and loads them in batches. It implements
// history.Recorder.
type Publisher struct {
	loader        BatchLoader
	logger        *slog.Logger
	metrics       *observability.Metrics
	queue         chan history.Entry
	ready         atomic.Bool
	batchSize     int
	flushInterval time.Duration
	drainTimeout  time.Duration
}

// New creates a Publisher. A batch is loaded when it reaches batchSize or
// when flushInterval has passed since its first entry.
func New(l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, flushInterval time.Duration, queueSize int) *Publisher {
	if batchSize < 1 {
		batchSize = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Publisher{
		loader:        l,
		logger:        logger,
		metrics:       metrics,
		queue:         make(chan history.Entry, queueSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		drainTimeout:  defaultDrainTimeout,
	}
}

// Record enqueues e without blocking. When the queue is full the entry is
// dropped and ErrQueueFull returned.
func (p *Publisher) Record(_ context.Context, e history.Entry) error {
	select {
	case p.queue <- e:
		return nil
	default:
		p.metrics.HistoryDropped.Inc()
		return ErrQueueFull
	}
}

// CheckReadiness returns nil while Run is active.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("history publisher is not running")
	}
	return nil
}

// Run loads batches until the context is cancelled, then flushes whatever
// is still queued.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("history publisher started", "batch_size", p.batchSize, "flush_interval", p.flushInterval)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)
	p.ready.Store(true)
	defer p.ready.Store(false)

	backoff := initialBackoff
	for {
		batch, ok := p.collect(ctx)
		if !ok {
			p.logger.Info("history publisher stopping", "reason", ctx.Err())
			p.drain(batch)
			return nil
		}
		if !p.publish(ctx, batch, &backoff) {
			p.drain(batch)
			return nil
		}
	}
}

// collect waits for the first entry, then gathers more until the batch is
// full or the flush interval elapses. Returns false once ctx is done, along
// with any entries gathered so far.
func (p *Publisher) collect(ctx context.Context) ([]history.Entry, bool) {
	batch := make([]history.Entry, 0, p.batchSize)

	select {
	case <-ctx.Done():
		return batch, false
	case e := <-p.queue:
		batch = append(batch, e)
	}

	timer := time.NewTimer(p.flushInterval)
	defer timer.Stop()

	for len(batch) < p.batchSize {
		select {
		case <-ctx.Done():
			return batch, false
		case e := <-p.queue:
			batch = append(batch, e)
		case <-timer.C:
			return batch, true
		}
	}
	return batch, true
}

// publish loads batch, retrying with exponential backoff. Returns false if
// ctx was cancelled before the batch could be loaded.
func (p *Publisher) publish(ctx context.Context, batch []history.Entry, backoff *time.Duration) bool {
	for {
		if p.load(ctx, batch) {
			*backoff = initialBackoff
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if !retry.SleepWithContext(ctx, *backoff) {
			return false
		}
		*backoff = retry.NextBackoff(*backoff, maxBackoff)
	}
}

func (p *Publisher) load(ctx context.Context, batch []history.Entry) bool {
	start := time.Now()
	if err := p.loader.LoadBatch(ctx, batch); err != nil {
		p.metrics.HistoryPublishErrors.Inc()
		if ctx.Err() == nil {
			p.logger.Error("load history batch failed", "error", err, "batch_size", len(batch))
		}
		return false
	}
	p.metrics.HistoryPublished.Add(float64(len(batch)))
	p.metrics.HistoryBatchSize.Observe(float64(len(batch)))
	p.metrics.HistoryFlushDuration.Observe(time.Since(start).Seconds())
	return true
}

// drain makes one attempt to load pending plus everything left in the
// queue. Entries that fail, or are still queued when the drain timeout
// expires, are counted as dropped.
func (p *Publisher) drain(pending []history.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), p.drainTimeout)
	defer cancel()

	for {
	fill:
		for len(pending) < p.batchSize {
			select {
			case e := <-p.queue:
				pending = append(pending, e)
			default:
				break fill
			}
		}
		if len(pending) == 0 {
			return
		}
		if !p.load(ctx, pending) {
			p.metrics.HistoryDropped.Add(float64(len(pending)))
			p.logger.Warn("dropped history entries on shutdown", "count", len(pending))
		}
		if ctx.Err() != nil {
			if left := len(p.queue); left > 0 {
				p.metrics.HistoryDropped.Add(float64(left))
				p.logger.Warn("drain timed out with history entries queued", "count", left)
			}
			return
		}
		pending = nil
	}
}
