package domain

import "time"

// ScanEvent is an ephemeral band-scan notification. It is broadcast once to
// currently subscribed clients and never persisted.
type ScanEvent struct {
	BandID    string    `json:"band_id"`
	Timestamp time.Time `json:"timestamp"`
}

// IsValid reports whether the event carries a band identifier.
// Malformed scans are dropped silently, not surfaced as errors.
func (e ScanEvent) IsValid() bool {
	return e.BandID != ""
}
