// Package adapter defines the run-notification boundary.
//
// Adapters publish run completion notifications to downstream systems, for
// example a webhook that triggers a static-site rebuild of the mirror. The
// CLI owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/hollis-dev/notemirror/types"
)

// RunCompletedEvent is the payload published when a sync run finishes.
type RunCompletedEvent struct {
	EventType  string       `json:"event_type"` // always "run_completed"
	RunID      string       `json:"run_id"`
	Collection string       `json:"collection"`
	Status     string       `json:"status"`
	Counts     types.Counts `json:"counts"`
	Timestamp  string       `json:"timestamp"` // ISO 8601
	DurationMs int64        `json:"duration_ms"`
}

// FromReport builds the completion event for a finished run.
func FromReport(report *types.RunReport, finished time.Time) *RunCompletedEvent {
	return &RunCompletedEvent{
		EventType:  "run_completed",
		RunID:      report.RunID,
		Collection: report.Collection,
		Status:     string(report.Status),
		Counts:     report.Counts,
		Timestamp:  finished.UTC().Format(time.RFC3339),
		DurationMs: report.Duration.Milliseconds(),
	}
}

// Adapter publishes run completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a run completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
