// Package engine runs the sync pipeline: reconcile remote listings against
// the manifest, materialize changed items into the mirror, and account for
// every outcome in a final report.
package engine

import (
	"github.com/hollis-dev/notemirror/manifest"
	"github.com/hollis-dev/notemirror/types"
)

// Reconciler turns remote items into per-item decisions by fingerprint
// comparison against the manifest. It is pure: deciding never touches
// storage or the network.
type Reconciler struct {
	manifest *manifest.Manifest
	forceAll bool
}

// NewReconciler creates a reconciler over the given manifest. With forceAll
// set, fingerprint equality is ignored and every known item re-materializes.
func NewReconciler(m *manifest.Manifest, forceAll bool) *Reconciler {
	return &Reconciler{manifest: m, forceAll: forceAll}
}

// Decide maps one remote item to its action. Unknown items create, known
// items with a changed fingerprint (or a pending partial) update, the rest
// skip.
func (r *Reconciler) Decide(item types.RemoteItem) types.PlanEntry {
	prior, known := r.manifest.Lookup(item.ID)
	switch {
	case !known:
		return types.PlanEntry{Item: item, Action: types.ActionCreate}
	case !r.forceAll && !prior.Partial && prior.Fingerprint == item.Fingerprint:
		return types.PlanEntry{Item: item, Action: types.ActionSkip}
	default:
		return types.PlanEntry{Item: item, Action: types.ActionUpdate}
	}
}
