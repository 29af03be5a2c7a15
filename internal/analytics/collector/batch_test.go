package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/kafka"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	fail    bool
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.batches = append(p.batches, events)
	return nil
}

func (p *recordingPublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestFlushOnBatchSize(t *testing.T) {
	pub := &recordingPublisher{}
	bc := NewBatchCollector(pub, 3, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	bc.Start(ctx)

	for i := 0; i < 3; i++ {
		bc.Track(analytics.QueryEvent{Sentence: "eat", Signature: "[('a',1) ('e',1) ('t',1)]"})
	}
	require.Eventually(t, func() bool { return pub.published() == 3 }, time.Second, 5*time.Millisecond)

	bc.Track(analytics.QueryEvent{Sentence: "tea"})
	cancel()
	bc.Close()
	assert.Equal(t, 4, pub.published())
	assert.Equal(t, 0, bc.BufferLen())

	pub.mu.Lock()
	assert.Equal(t, "[('a',1) ('e',1) ('t',1)]", pub.batches[0][0].Key)
	pub.mu.Unlock()
}

func TestFailedFlushRequeuesAndCaps(t *testing.T) {
	pub := &recordingPublisher{fail: true}
	bc := NewBatchCollector(pub, 2, time.Hour)

	for i := 0; i < 5; i++ {
		bc.Track(analytics.QueryEvent{Letters: i})
	}
	bc.flush(context.Background())
	assert.Equal(t, 5, bc.BufferLen())

	for i := 0; i < 3; i++ {
		bc.Track(analytics.QueryEvent{Letters: 10 + i})
	}
	bc.flush(context.Background())
	assert.Equal(t, 6, bc.BufferLen())
	assert.Equal(t, int64(2), bc.Dropped())

	pub.mu.Lock()
	pub.fail = false
	pub.mu.Unlock()
	bc.flush(context.Background())
	assert.Equal(t, 0, bc.BufferLen())
	assert.Equal(t, 6, pub.published())
}
