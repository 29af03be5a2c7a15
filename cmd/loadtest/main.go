// Command loadtest drives concurrent traffic at the anagram API and reports
// latency percentiles, status codes and the result-cache hit rate.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var defaultSentences = []string{
	"grumpy cat",
	"yes man",
	"Linux rulez",
	"I love you",
	"Robert",
	"eat",
	"dormitory",
	"astronomer",
	"the eyes",
	"a gentleman",
}

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Limit       int
	Sentences   []string
}

type Stats struct {
	total     atomic.Int64
	success   atomic.Int64
	failures  atomic.Int64
	cacheHits atomic.Int64

	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

// Record notes one finished request. status is zero when the request never
// got a response.
func (s *Stats) Record(latency time.Duration, status int, cacheHit bool) {
	s.total.Add(1)
	if status == 0 {
		s.failures.Add(1)
		return
	}
	if status >= 200 && status < 300 {
		s.success.Add(1)
	} else {
		s.failures.Add(1)
	}
	if cacheHit {
		s.cacheHits.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, latency)
	s.statusCodes[status]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the anagram service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	limit := flag.Int("limit", 20, "limit parameter sent with each query")
	sentences := flag.String("sentences", "", "comma-separated sentences to query instead of the built-in set")
	flag.Parse()

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Limit:       *limit,
		Sentences:   defaultSentences,
	}
	if *sentences != "" {
		cfg.Sentences = strings.Split(*sentences, ",")
	}

	fmt.Println("=== Anagram Service Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Sentences:   %d unique\n", len(cfg.Sentences))
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()
	stats := runLoadTest(ctx, cfg, &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	})
	if !printReport(os.Stdout, stats, cfg.Duration) {
		os.Exit(1)
	}
}

func queryURL(cfg Config, sentence string) string {
	q := url.Values{}
	q.Set("q", sentence)
	q.Set("limit", fmt.Sprint(cfg.Limit))
	return cfg.BaseURL + "/api/v1/anagrams?" + q.Encode()
}

func runLoadTest(ctx context.Context, cfg Config, client *http.Client) *Stats {
	stats := NewStats()
	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Go(func() {
			for i := w; ctx.Err() == nil; i++ {
				target := queryURL(cfg, cfg.Sentences[i%len(cfg.Sentences)])
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
				if err != nil {
					stats.Record(0, 0, false)
					continue
				}
				start := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() == nil {
						stats.Record(time.Since(start), 0, false)
					}
					continue
				}
				var body struct {
					CacheHit bool `json:"cache_hit"`
				}
				_ = json.NewDecoder(resp.Body).Decode(&body)
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.Record(time.Since(start), resp.StatusCode, body.CacheHit)
			}
		})
	}
	wg.Wait()
	return stats
}

// printReport writes the summary and reports whether any request finished.
func printReport(w io.Writer, stats *Stats, duration time.Duration) bool {
	total := stats.total.Load()
	failures := stats.failures.Load()

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", total)
	fmt.Fprintf(w, "Successful:      %d\n", stats.success.Load())
	fmt.Fprintf(w, "Errors:          %d\n", failures)
	if total > 0 {
		fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(failures)/float64(total)*100)
		fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
		fmt.Fprintf(w, "Cache Hit Rate:  %.2f%%\n", float64(stats.cacheHits.Load())/float64(total)*100)
	}

	stats.mu.Lock()
	latencies := slices.Clone(stats.latencies)
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	counts := make(map[int]int64, len(stats.statusCodes))
	for code, n := range stats.statusCodes {
		counts[code] = n
	}
	stats.mu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))
		var sq float64
		for _, l := range latencies {
			d := float64(l - avg)
			sq += d * d
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", avg)
		fmt.Fprintf(w, "P50:    %s\n", percentile(latencies, 50))
		fmt.Fprintf(w, "P90:    %s\n", percentile(latencies, 90))
		fmt.Fprintf(w, "P95:    %s\n", percentile(latencies, 95))
		fmt.Fprintf(w, "P99:    %s\n", percentile(latencies, 99))
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
		fmt.Fprintf(w, "StdDev: %s\n", time.Duration(math.Sqrt(sq/float64(len(latencies)))))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Status Codes ===")
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, counts[code])
	}

	if total == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "WARNING: No requests completed. Is the service running?")
		return false
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
