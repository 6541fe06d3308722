package types

// EventKind is the type of a progress event emitted during a run.
type EventKind string

const (
	EventPageFetched      EventKind = "page_fetched"
	EventItemSkipped      EventKind = "item_skipped"
	EventItemCreated      EventKind = "item_created"
	EventItemUpdated      EventKind = "item_updated"
	EventItemFailed       EventKind = "item_failed"
	EventAttachmentMissed EventKind = "attachment_missed"
	EventRunFinished      EventKind = "run_finished"
)

// ProgressEvent is one delta emitted by the run. Events carry cumulative
// counts so consumers never have to reconstruct state from individual
// deltas. Consumers must not block; slow consumers should buffer.
type ProgressEvent struct {
	Kind   EventKind `json:"kind"`
	ItemID string    `json:"item_id,omitempty"`
	Title  string    `json:"title,omitempty"`
	Page   int       `json:"page,omitempty"`
	Cause  string    `json:"cause,omitempty"`
	Counts Counts    `json:"counts"`
}

// Observer receives progress events from a run. A nil Observer is valid and
// disables progress reporting; the engine guards every emit.
type Observer func(ProgressEvent)
