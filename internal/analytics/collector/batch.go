// Package collector buffers query events in memory and publishes them to
// Kafka in batches.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/kafka"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// BatchCollector flushes when the buffer reaches batchSize events or every
// flushInterval, whichever comes first. Failed batches are re-queued up to
// three batches' worth; older events beyond that are dropped.
type BatchCollector struct {
	publisher     Publisher
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	buffer  []kafka.Event
	dropped int64

	flushMu sync.Mutex
	kick    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewBatchCollector(publisher Publisher, batchSize int, flushInterval time.Duration) *BatchCollector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &BatchCollector{
		publisher:     publisher,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		buffer:        make([]kafka.Event, 0, batchSize),
		logger:        slog.Default().With("component", "batch-collector"),
		kick:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

// Start runs the flush loop in the background until ctx is cancelled or
// Close is called, then makes one last flush.
func (bc *BatchCollector) Start(ctx context.Context) {
	ctx, bc.cancel = context.WithCancel(ctx)
	go func() {
		defer close(bc.done)
		ticker := time.NewTicker(bc.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				bc.flush(ctx)
			case <-bc.kick:
				bc.flush(ctx)
			case <-ctx.Done():
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				bc.flush(flushCtx)
				cancel()
				return
			}
		}
	}()
	bc.logger.Info("batch collector started",
		"batch_size", bc.batchSize,
		"flush_interval", bc.flushInterval,
	)
}

// Track buffers the event keyed by its letter signature.
func (bc *BatchCollector) Track(event analytics.QueryEvent) {
	bc.mu.Lock()
	bc.buffer = append(bc.buffer, kafka.Event{Key: event.Signature, Value: event})
	full := len(bc.buffer) >= bc.batchSize
	bc.mu.Unlock()

	if full {
		select {
		case bc.kick <- struct{}{}:
		default:
		}
	}
}

// Close stops the flush loop and waits for the final flush.
func (bc *BatchCollector) Close() {
	if bc.cancel == nil {
		return
	}
	bc.cancel()
	<-bc.done
}

func (bc *BatchCollector) BufferLen() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.buffer)
}

func (bc *BatchCollector) Dropped() int64 {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.dropped
}

func (bc *BatchCollector) flush(ctx context.Context) {
	bc.flushMu.Lock()
	defer bc.flushMu.Unlock()

	bc.mu.Lock()
	if len(bc.buffer) == 0 {
		bc.mu.Unlock()
		return
	}
	batch := bc.buffer
	bc.buffer = make([]kafka.Event, 0, bc.batchSize)
	bc.mu.Unlock()

	if err := bc.publisher.PublishBatch(ctx, batch); err != nil {
		bc.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)
		bc.requeue(batch)
		return
	}
	bc.logger.Debug("batch flushed", "events", len(batch))
}

func (bc *BatchCollector) requeue(batch []kafka.Event) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.buffer = append(batch, bc.buffer...)
	if limit := bc.batchSize * 3; len(bc.buffer) > limit {
		drop := len(bc.buffer) - limit
		bc.buffer = bc.buffer[drop:]
		bc.dropped += int64(drop)
		bc.logger.Warn("buffer overflow, oldest events dropped", "dropped", drop)
	}
}
