package analytics

import "time"

type Outcome string

const (
	OutcomeFound     Outcome = "found"
	OutcomeNone      Outcome = "none"
	OutcomeTruncated Outcome = "truncated"
	OutcomeError     Outcome = "error"
)

// QueryEvent describes one anagram query served by the API.
type QueryEvent struct {
	Sentence  string    `json:"sentence"`
	Signature string    `json:"signature"`
	Words     int       `json:"words"`
	Letters   int       `json:"letters"`
	Outcome   Outcome   `json:"outcome"`
	Total     int       `json:"total"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Tracker accepts query events. It must not block the caller.
type Tracker interface {
	Track(event QueryEvent)
}
