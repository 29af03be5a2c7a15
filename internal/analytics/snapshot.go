package analytics

import "time"

// Snapshot is AggregatedStats as persisted at a point in time.
type Snapshot struct {
	Stats      AggregatedStats `json:"stats"`
	CapturedAt time.Time       `json:"captured_at"`
}
