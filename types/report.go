package types

import "time"

// RunStatus is the terminal status of a sync run.
type RunStatus string

const (
	// StatusDone means the run reached the end of the pipeline. Per-item
	// failures may still be present in the report.
	StatusDone RunStatus = "done"
	// StatusCredentialExpired means the run aborted because the bearer
	// credential expired. Re-acquisition is required before retrying.
	StatusCredentialExpired RunStatus = "credential_expired"
	// StatusFetchFailed means a page could not be fetched after retries.
	// The run is resumable from ResumeCursor.
	StatusFetchFailed RunStatus = "fetch_failed"
	// StatusCanceled means the run was cooperatively canceled.
	StatusCanceled RunStatus = "canceled"
)

// Counts are the per-run item counters.
type Counts struct {
	Fetched int64 `json:"fetched"`
	Skipped int64 `json:"skipped"`
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
	Failed  int64 `json:"failed"`
	Partial int64 `json:"partial"`
}

// ItemFailure records one non-fatal per-item failure for the final report.
type ItemFailure struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title,omitempty"`
	Stage  string `json:"stage"`
	Cause  string `json:"cause"`
}

// AttachmentMiss records an attachment that could not be downloaded. The
// owning item is degraded to a partial result, never failed outright.
type AttachmentMiss struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Cause  string `json:"cause"`
}

// RunReport is the final accounting for one sync run. Every per-item error
// is enumerated here; nothing is silently dropped.
type RunReport struct {
	RunID      string        `json:"run_id"`
	Collection string        `json:"collection"`
	Status     RunStatus     `json:"status"`
	Counts     Counts        `json:"counts"`
	// ResumeCursor is set when Status is StatusFetchFailed and the walk can
	// be resumed from a stable cursor.
	ResumeCursor Cursor           `json:"resume_cursor,omitempty"`
	TotalHint    int              `json:"total_hint,omitempty"`
	Failures     []ItemFailure    `json:"failures,omitempty"`
	Missing      []AttachmentMiss `json:"missing_attachments,omitempty"`
	Duration     time.Duration    `json:"duration_ns"`
}
