package types

import "errors"

// RunMeta identifies one sync run for logging and event correlation.
type RunMeta struct {
	// RunID is the unique run identifier.
	RunID string
	// Collection names the collection being mirrored ("notes" or a
	// notebook identifier).
	Collection string
}

// Validate checks that run metadata is complete.
func (m *RunMeta) Validate() error {
	if m == nil {
		return errors.New("run metadata is required")
	}
	if m.RunID == "" {
		return errors.New("run_id is required")
	}
	if m.Collection == "" {
		return errors.New("collection is required")
	}
	return nil
}
