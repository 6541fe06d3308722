package types

// Action is the reconciler's per-item decision.
type Action string

const (
	// ActionSkip means the item is already materialized and unchanged.
	ActionSkip Action = "skip"
	// ActionCreate means the item has never been materialized.
	ActionCreate Action = "create"
	// ActionUpdate means the item is materialized but the fingerprint changed.
	ActionUpdate Action = "update"
)

// PlanEntry is one reconciliation decision. Entries are transient, produced
// and consumed within a single run, preserving the remote sequence order.
type PlanEntry struct {
	Item   RemoteItem
	Action Action
}
