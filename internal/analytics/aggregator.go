// Package analytics aggregates anagram query events into rolling stats.
// Events reach the Aggregator either directly or through Kafka.
package analytics

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/kafka"
)

const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalQueries     int64           `json:"total_queries"`
	CacheHits        int64           `json:"cache_hits"`
	CacheMisses      int64           `json:"cache_misses"`
	ZeroResultCount  int64           `json:"zero_result_count"`
	TruncatedCount   int64           `json:"truncated_count"`
	ErrorCount       int64           `json:"error_count"`
	AvgLatencyMs     float64         `json:"avg_latency_ms"`
	P50LatencyMs     int64           `json:"p50_latency_ms"`
	P95LatencyMs     int64           `json:"p95_latency_ms"`
	P99LatencyMs     int64           `json:"p99_latency_ms"`
	AvgLetters       float64         `json:"avg_letters"`
	TopSentences     []SentenceCount `json:"top_sentences"`
	ZeroResultInputs []SentenceCount `json:"zero_result_inputs"`
	QueriesPerMinute float64         `json:"queries_per_minute"`
}

type SentenceCount struct {
	Sentence string `json:"sentence"`
	Count    int64  `json:"count"`
}

type Aggregator struct {
	mu          sync.RWMutex
	total       int64
	cacheHits   int64
	cacheMisses int64
	zero        int64
	truncated   int64
	errors      int64
	letters     int64
	// latencies is a ring of the most recent samples.
	latencies  []int64
	nextSample int
	counts     map[string]int64
	zeroCounts map[string]int64
	startTime  time.Time
	now        func() time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:  make([]int64, 0, 1024),
		counts:     make(map[string]int64),
		zeroCounts: make(map[string]int64),
		startTime:  time.Now(),
		now:        time.Now,
		logger:     slog.Default().With("component", "analytics-aggregator"),
	}
}

// Track records event in-process.
func (a *Aggregator) Track(event QueryEvent) {
	a.Record(event)
}

func (a *Aggregator) Record(event QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	input := strings.ToLower(event.Sentence)
	switch event.Outcome {
	case OutcomeNone:
		a.zero++
		a.zeroCounts[input]++
	case OutcomeTruncated:
		a.truncated++
	case OutcomeError:
		a.errors++
	}
	a.letters += int64(event.Letters)
	a.counts[input]++

	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.nextSample] = event.LatencyMs
		a.nextSample = (a.nextSample + 1) % maxLatencySamples
	}
}

// HandleMessage decodes a Kafka message into a QueryEvent and records it.
// Undecodable messages are logged and skipped so they do not block the
// partition.
func (a *Aggregator) HandleMessage(_ context.Context, _ []byte, value []byte) error {
	event, err := kafka.DecodeJSON[QueryEvent](value)
	if err != nil {
		a.logger.Error("failed to decode query event", "error", err)
		return nil
	}
	a.Record(event)
	return nil
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:    a.total,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zero,
		TruncatedCount:  a.truncated,
		ErrorCount:      a.errors,
	}
	if len(a.latencies) > 0 {
		sorted := slices.Clone(a.latencies)
		slices.Sort(sorted)
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	if a.total > 0 {
		stats.AvgLetters = float64(a.letters) / float64(a.total)
	}
	stats.TopSentences = topN(a.counts, 10)
	stats.ZeroResultInputs = topN(a.zeroCounts, 10)
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(a.total) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then by key so ties are stable.
func topN(counts map[string]int64, n int) []SentenceCount {
	result := make([]SentenceCount, 0, len(counts))
	for s, c := range counts {
		result = append(result, SentenceCount{Sentence: s, Count: c})
	}
	slices.SortFunc(result, func(a, b SentenceCount) int {
		if a.Count != b.Count {
			if a.Count > b.Count {
				return -1
			}
			return 1
		}
		switch {
		case a.Sentence < b.Sentence:
			return -1
		case a.Sentence > b.Sentence:
			return 1
		}
		return 0
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
