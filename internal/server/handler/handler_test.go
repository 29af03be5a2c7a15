package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/dictionary"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/search"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/metrics"
)

var words = []string{
	"ate", "eat", "tea", "en", "as", "my", "man", "yes", "men", "say",
	"sane", "Sean", "I", "love", "you", "olive", "You",
}

type trackerFunc func(analytics.QueryEvent)

func (f trackerFunc) Track(e analytics.QueryEvent) { f(e) }

func searchConfig() config.SearchConfig {
	return config.SearchConfig{
		MaxDepth:     32,
		Memoize:      true,
		Timeout:      5 * time.Second,
		DefaultLimit: 100,
		MaxResults:   1000,
	}
}

func newServer(t *testing.T, cfg config.SearchConfig, tracker analytics.Tracker) *httptest.Server {
	t.Helper()
	engine := search.New(dictionary.Build(words), search.Options{MaxDepth: cfg.MaxDepth, Memoize: cfg.Memoize})
	h := New(engine, nil, tracker, metrics.New(prometheus.NewRegistry()), cfg)
	mux := http.NewServeMux()
	h.Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestAnagrams(t *testing.T) {
	var (
		mu     sync.Mutex
		events []analytics.QueryEvent
	)
	srv := newServer(t, searchConfig(), trackerFunc(func(e analytics.QueryEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}))

	var resp AnagramResponse
	code := getJSON(t, srv.URL+"/api/v1/anagrams?q=yes+man", &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"yes", "man"}, resp.Sentence)
	assert.Equal(t, 14, resp.Total)
	assert.Equal(t, 14, resp.Returned)
	assert.False(t, resp.Truncated)
	assert.False(t, resp.CacheHit)
	assert.Equal(t, search.Sentence{"my", "en", "as"}, resp.Results[0])
	assert.Equal(t, search.Sentence{"Sean", "my"}, resp.Results[13])
	assert.Equal(t, "[('a',1) ('e',1) ('m',1) ('n',1) ('s',1) ('y',1)]", resp.Signature)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, analytics.OutcomeFound, events[0].Outcome)
	assert.Equal(t, "yes man", events[0].Sentence)
	assert.Equal(t, 6, events[0].Letters)
}

func TestAnagramsLimitTruncates(t *testing.T) {
	srv := newServer(t, searchConfig(), nil)

	var resp AnagramResponse
	code := getJSON(t, srv.URL+"/api/v1/anagrams?q=yes%20man&limit=3", &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 14, resp.Total)
	assert.Equal(t, 3, resp.Returned)
	assert.True(t, resp.Truncated)
	assert.Equal(t, []search.Sentence{{"my", "en", "as"}, {"my", "as", "en"}, {"my", "sane"}}, resp.Results)
}

func TestAnagramsNoSolutionYieldsEmptySentence(t *testing.T) {
	var (
		mu  sync.Mutex
		got analytics.QueryEvent
	)
	srv := newServer(t, searchConfig(), trackerFunc(func(e analytics.QueryEvent) {
		mu.Lock()
		got = e
		mu.Unlock()
	}))

	var resp AnagramResponse
	code := getJSON(t, srv.URL+"/api/v1/anagrams?q=xyz", &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, []search.Sentence{{}}, resp.Results)
	mu.Lock()
	assert.Equal(t, analytics.OutcomeNone, got.Outcome)
	mu.Unlock()
}

func TestAnagramsBadRequests(t *testing.T) {
	srv := newServer(t, searchConfig(), nil)
	for _, path := range []string{
		"/api/v1/anagrams",
		"/api/v1/anagrams?q=%20%20",
		"/api/v1/anagrams?q=eat&limit=0",
		"/api/v1/anagrams?q=eat&limit=many",
	} {
		var body map[string]string
		code := getJSON(t, srv.URL+path, &body)
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.NotEmpty(t, body["error"], path)
	}
}

func TestAnagramsDepthExceeded(t *testing.T) {
	cfg := searchConfig()
	cfg.MaxDepth = 2
	srv := newServer(t, cfg, nil)

	var body map[string]string
	code := getJSON(t, srv.URL+"/api/v1/anagrams?q=yes+man", &body)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body["error"], "more than 2 words")
}

type slowSearcher struct {
	index *dictionary.Index
}

func (s slowSearcher) Walk(ctx context.Context, _ []string, _ func(search.Sentence) bool) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (s slowSearcher) Index() *dictionary.Index { return s.index }

func TestAnagramsTimeout(t *testing.T) {
	cfg := searchConfig()
	cfg.Timeout = 20 * time.Millisecond
	h := New(slowSearcher{index: dictionary.Build(words)}, nil, nil, nil, cfg)

	rec := httptest.NewRecorder()
	h.Anagrams(rec, httptest.NewRequest(http.MethodGet, "/api/v1/anagrams?q=eat", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWordAnagrams(t *testing.T) {
	srv := newServer(t, searchConfig(), nil)

	var body struct {
		Word     string   `json:"word"`
		Anagrams []string `json:"anagrams"`
	}
	code := getJSON(t, srv.URL+"/api/v1/words/TEA/anagrams", &body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "TEA", body.Word)
	assert.Equal(t, []string{"ate", "eat", "tea"}, body.Anagrams)

	code = getJSON(t, srv.URL+"/api/v1/words/zzz/anagrams", &body)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body.Anagrams)
	assert.NotNil(t, body.Anagrams)
}

func TestOccurrences(t *testing.T) {
	srv := newServer(t, searchConfig(), nil)

	var body struct {
		Occurrences []countView `json:"occurrences"`
		Signature   string      `json:"signature"`
	}
	code := getJSON(t, srv.URL+"/api/v1/occurrences?w=Robert", &body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []countView{{"b", 1}, {"e", 1}, {"o", 1}, {"r", 2}, {"t", 1}}, body.Occurrences)

	var errBody map[string]string
	code = getJSON(t, srv.URL+"/api/v1/occurrences", &errBody)
	assert.Equal(t, http.StatusBadRequest, code)

	code = getJSON(t, srv.URL+"/api/v1/occurrences?w=", &body)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body.Occurrences)
	assert.Equal(t, "[]", body.Signature)
}

func TestDictionaryAndCacheStats(t *testing.T) {
	srv := newServer(t, searchConfig(), nil)

	var stats dictionary.Stats
	code := getJSON(t, srv.URL+"/api/v1/dictionary/stats", &stats)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, len(words), stats.Words)

	var cacheBody map[string]string
	code = getJSON(t, srv.URL+"/api/v1/cache/stats", &cacheBody)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "disabled", cacheBody["status"])

	resp, err := http.Post(srv.URL+"/api/v1/cache/invalidate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
