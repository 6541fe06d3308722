// Package manifest tracks what the mirror already holds.
//
// The manifest is the sync engine's memory: one entry per materialized item,
// keyed by stable item id, carrying the change fingerprint observed at the
// last successful write. Reconciliation compares remote fingerprints against
// it to decide skip, create, or update without re-reading note content.
//
// The manifest lives inside the mirror itself, under .notemirror/, so a
// mirror moved or re-pointed elsewhere carries its own state. Persistence is
// msgpack; losing the manifest is safe and merely forces a full re-sync.
package manifest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hollis-dev/notemirror/storage"
	"github.com/hollis-dev/notemirror/types"
)

// formatVersion guards the on-disk encoding. A version mismatch is treated
// the same as a missing manifest: start empty, full re-sync.
const formatVersion = 1

// stateDir is the mirror-internal directory holding sync state.
const stateDir = ".notemirror"

// Entry records one materialized item.
type Entry struct {
	// ID is the stable item id.
	ID string `msgpack:"id"`
	// Kind is the item kind at last sync.
	Kind types.ItemKind `msgpack:"kind"`
	// Fingerprint is the change fingerprint observed when the entry was
	// last written. Equality with the remote fingerprint means skip.
	Fingerprint string `msgpack:"fingerprint"`
	// LocalPath is the item's directory (notes) or file path (files)
	// relative to the mirror root. It pins the materialized location so
	// title edits do not orphan existing directories.
	LocalPath string `msgpack:"local_path"`
	// Title is the note title at last sync, informational.
	Title string `msgpack:"title"`
	// CreatedAt is the server-side creation timestamp string.
	CreatedAt string `msgpack:"created_at"`
	// LastSyncedAt is when this entry was last written.
	LastSyncedAt time.Time `msgpack:"last_synced_at"`
	// Partial marks an item whose note landed but whose attachments did
	// not all download. Partial entries are re-attempted on the next run.
	Partial bool `msgpack:"partial"`
}

type document struct {
	Version int              `msgpack:"version"`
	Entries map[string]Entry `msgpack:"entries"`
}

// Manifest is the in-memory manifest bound to its backing store. Not safe
// for concurrent use; the engine funnels all writes through one goroutine.
type Manifest struct {
	store   storage.Store
	path    string
	entries map[string]Entry
}

// Path returns the manifest location for a collection, relative to the
// mirror root.
func Path(collection string) string {
	return stateDir + "/" + collection + ".manifest"
}

// Load reads the manifest for a collection from store. A missing, corrupt,
// or version-mismatched manifest yields an empty one; the mirror state on
// disk is then rebuilt by a full pass, never by failing the run.
func Load(ctx context.Context, store storage.Store, collection string) (*Manifest, error) {
	m := &Manifest{
		store:   store,
		path:    Path(collection),
		entries: make(map[string]Entry),
	}

	data, err := store.ReadFile(ctx, m.path)
	if err != nil {
		if storage.IsNotFound(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var doc document
	if err := msgpack.Unmarshal(data, &doc); err != nil || doc.Version != formatVersion {
		return m, nil
	}
	if doc.Entries != nil {
		m.entries = doc.Entries
	}
	return m, nil
}

// Len returns the number of entries.
func (m *Manifest) Len() int { return len(m.entries) }

// Lookup returns the entry for id, if present.
func (m *Manifest) Lookup(id string) (Entry, bool) {
	e, ok := m.entries[id]
	return e, ok
}

// IsUnchanged reports whether id is already materialized at the given
// fingerprint with no pending attachment work.
func (m *Manifest) IsUnchanged(id, fingerprint string) bool {
	e, ok := m.entries[id]
	return ok && !e.Partial && e.Fingerprint == fingerprint
}

// Upsert records an entry and flushes immediately. Flushing per item keeps
// the manifest consistent with the mirror even when a run is interrupted;
// item volume is small enough that the rewrite cost does not matter.
func (m *Manifest) Upsert(ctx context.Context, e Entry) error {
	m.entries[e.ID] = e
	return m.Flush(ctx)
}

// Delete removes an entry and flushes.
func (m *Manifest) Delete(ctx context.Context, id string) error {
	if _, ok := m.entries[id]; !ok {
		return nil
	}
	delete(m.entries, id)
	return m.Flush(ctx)
}

// Snapshot returns all entries ordered by LastSyncedAt descending, ties
// broken by id for determinism.
func (m *Manifest) Snapshot() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSyncedAt.Equal(out[j].LastSyncedAt) {
			return out[i].LastSyncedAt.After(out[j].LastSyncedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Flush persists the manifest to its store.
func (m *Manifest) Flush(ctx context.Context) error {
	data, err := msgpack.Marshal(document{Version: formatVersion, Entries: m.entries})
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := m.store.WriteFile(ctx, m.path, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Clear drops all entries and persists the empty manifest.
func (m *Manifest) Clear(ctx context.Context) error {
	m.entries = make(map[string]Entry)
	return m.Flush(ctx)
}
