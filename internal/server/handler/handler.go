// Package handler serves the anagram HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/dictionary"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/occurrence"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/parser"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/search"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/server/cache"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/tracing"
)

// Searcher is satisfied by *search.Engine.
type Searcher interface {
	Walk(ctx context.Context, sentence []string, fn func(search.Sentence) bool) (int, error)
	Index() *dictionary.Index
}

type AnagramResponse struct {
	Sentence  []string          `json:"sentence"`
	Signature string            `json:"signature"`
	Total     int               `json:"total"`
	Returned  int               `json:"returned"`
	Truncated bool              `json:"truncated"`
	Results   []search.Sentence `json:"results"`
	CacheHit  bool              `json:"cache_hit"`
	LatencyMs int64             `json:"latency_ms"`
}

type countView struct {
	Char  string `json:"char"`
	Count int    `json:"count"`
}

type Handler struct {
	searcher Searcher
	cache    *cache.ResultCache
	tracker  analytics.Tracker
	metrics  *metrics.Metrics
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// New builds the API handler. resultCache, tracker and m may each be nil.
func New(s Searcher, resultCache *cache.ResultCache, tracker analytics.Tracker, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	return &Handler{
		searcher: s,
		cache:    resultCache,
		tracker:  tracker,
		metrics:  m,
		cfg:      cfg,
		logger:   slog.Default().With("component", "anagram-handler"),
	}
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/anagrams", h.Anagrams)
	mux.HandleFunc("GET /api/v1/words/{word}/anagrams", h.WordAnagrams)
	mux.HandleFunc("GET /api/v1/occurrences", h.Occurrences)
	mux.HandleFunc("GET /api/v1/dictionary/stats", h.DictionaryStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Anagrams answers GET /api/v1/anagrams?q=...&limit=N.
func (h *Handler) Anagrams(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.StartSpan(r.Context(), "anagram.request", middleware.GetRequestID(r.Context()))
	defer func() {
		span.End()
		span.Log(ctx, h.logger)
	}()
	log := logger.FromContext(ctx)

	_, parseSpan := tracing.StartChildSpan(ctx, "parse")
	words := parser.Parse(r.URL.Query().Get("q"))
	limit, limitErr := parser.ParseLimit(r.URL.Query().Get("limit"), h.cfg.DefaultLimit, h.cfg.MaxResults)
	parseSpan.SetAttr("words", len(words))
	parseSpan.End()

	if len(words) == 0 {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	if limitErr != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, limitErr.Error()))
		return
	}

	signature := occurrence.Sentence(words)
	searchCtx, searchSpan := tracing.StartChildSpan(ctx, "search")
	compute := func() (*cache.Entry, error) {
		return resilience.WithTimeout(searchCtx, h.cfg.Timeout, "anagram.search", func(ctx context.Context) (*cache.Entry, error) {
			return h.collect(ctx, words, limit)
		})
	}

	var (
		entry    *cache.Entry
		cacheHit bool
		err      error
	)
	if h.cache != nil {
		entry, cacheHit, err = h.cache.GetOrCompute(searchCtx, signature, limit, compute)
	} else {
		entry, err = compute()
	}
	searchSpan.SetAttr("cache_hit", cacheHit)
	searchSpan.End()

	latency := time.Since(start)
	event := analytics.QueryEvent{
		Sentence:  strings.Join(words, " "),
		Signature: signature.String(),
		Words:     len(words),
		Letters:   signature.Len(),
		LatencyMs: latency.Milliseconds(),
		CacheHit:  cacheHit,
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	}

	if err != nil {
		err = classify(err)
		log.Warn("anagram search failed", "sentence", event.Sentence, "letters", event.Letters, "error", err)
		event.Outcome = analytics.OutcomeError
		event.Error = err.Error()
		h.record(event, latency)
		h.writeError(w, err)
		return
	}

	resp := AnagramResponse{
		Sentence:  words,
		Signature: event.Signature,
		Total:     entry.Total,
		Returned:  len(entry.Results),
		Truncated: entry.Truncated,
		Results:   entry.Results,
		CacheHit:  cacheHit,
		LatencyMs: latency.Milliseconds(),
	}
	event.Total = entry.Total
	event.Returned = resp.Returned
	event.Outcome = outcome(entry)
	h.record(event, latency)

	log.Info("anagram search completed",
		"sentence", event.Sentence,
		"letters", event.Letters,
		"total", resp.Total,
		"returned", resp.Returned,
		"cache_hit", cacheHit,
		"latency_ms", resp.LatencyMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// collect walks the whole search so Total is exact, keeping only the first
// limit sentences. A search with no sentence yields the single empty one.
func (h *Handler) collect(ctx context.Context, words []string, limit int) (*cache.Entry, error) {
	results := make([]search.Sentence, 0, min(limit, 64))
	total, err := h.searcher.Walk(ctx, words, func(s search.Sentence) bool {
		if len(results) < limit {
			results = append(results, s)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &cache.Entry{Results: []search.Sentence{{}}, Total: 1}, nil
	}
	return &cache.Entry{Results: results, Total: total, Truncated: total > len(results)}, nil
}

func outcome(entry *cache.Entry) analytics.Outcome {
	switch {
	case entry.Total == 1 && len(entry.Results) == 1 && len(entry.Results[0]) == 0:
		return analytics.OutcomeNone
	case entry.Truncated:
		return analytics.OutcomeTruncated
	default:
		return analytics.OutcomeFound
	}
}

// classify maps core search failures onto the API error set.
func classify(err error) error {
	switch {
	case errors.Is(err, search.ErrDepthExceeded):
		return apperrors.New(apperrors.ErrDepthExceeded, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.New(apperrors.ErrTimeout, http.StatusServiceUnavailable, "search exceeded its time budget")
	case errors.Is(err, context.Canceled):
		return apperrors.New(apperrors.ErrTimeout, http.StatusServiceUnavailable, "request cancelled")
	case errors.Is(err, occurrence.ErrMisalignedSubtraction):
		return apperrors.New(apperrors.ErrMisaligned, http.StatusInternalServerError, err.Error())
	default:
		return apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError, "search failed")
	}
}

func (h *Handler) record(event analytics.QueryEvent, latency time.Duration) {
	if h.metrics != nil {
		status := "miss"
		if event.CacheHit {
			status = "hit"
		}
		h.metrics.AnagramQueriesTotal.WithLabelValues(string(event.Outcome)).Inc()
		h.metrics.AnagramLatency.WithLabelValues(status).Observe(latency.Seconds())
		if event.Outcome != analytics.OutcomeError {
			h.metrics.AnagramResultsCount.Observe(float64(event.Total))
		}
	}
	if h.tracker != nil {
		h.tracker.Track(event)
	}
}

// WordAnagrams answers GET /api/v1/words/{word}/anagrams.
func (h *Handler) WordAnagrams(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	anagrams := h.searcher.Index().WordAnagrams(word)
	if anagrams == nil {
		anagrams = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"word":     word,
		"anagrams": anagrams,
	})
}

// Occurrences answers GET /api/v1/occurrences?w=...
func (h *Handler) Occurrences(w http.ResponseWriter, r *http.Request) {
	word, ok := r.URL.Query()["w"]
	if !ok {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'w' is required"))
		return
	}
	occ := occurrence.Word(word[0])
	counts := make([]countView, len(occ))
	for i, c := range occ {
		counts[i] = countView{Char: string(c.Char), Count: c.N}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"word":        word[0],
		"occurrences": counts,
		"signature":   occ.String(),
	})
}

func (h *Handler) DictionaryStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.searcher.Index().Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	stats := h.cache.Stats()
	var hitRate float64
	if total := stats.Hits + stats.Misses; total > 0 {
		hitRate = float64(stats.Hits) / float64(total)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"errors":   stats.Errors,
		"breaker":  stats.Breaker,
		"hit_rate": hitRate,
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError, "cache invalidation failed"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": message})
}
