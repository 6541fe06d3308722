package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hollis-dev/notemirror/manifest"
	"github.com/hollis-dev/notemirror/storage"
	"github.com/hollis-dev/notemirror/types"
)

// RebuildManifest reconstructs manifest entries by scanning the mirror for
// note.json sidecars. Only notes synced with the sidecar enabled can be
// recovered; everything else re-syncs as new on the next run, which is
// correct if wasteful. Returns the number of recovered entries.
func RebuildManifest(ctx context.Context, store storage.Store, m *manifest.Manifest) (int, error) {
	paths, err := store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("scan mirror: %w", err)
	}

	if err := m.Clear(ctx); err != nil {
		return 0, err
	}

	recovered := 0
	for _, p := range paths {
		if !strings.HasSuffix(p, "/note.json") {
			continue
		}
		data, err := store.ReadFile(ctx, p)
		if err != nil {
			continue
		}

		var raw struct {
			NoteID    string `json:"note_id"`
			ID        string `json:"id"`
			Title     string `json:"title"`
			Version   int64  `json:"version"`
			CreatedAt string `json:"created_at"`
			UpdatedAt string `json:"updated_at"`
			EditTime  string `json:"edit_time"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}
		id := raw.NoteID
		if id == "" {
			id = raw.ID
		}
		if id == "" {
			continue
		}
		updated := raw.UpdatedAt
		if updated == "" {
			updated = raw.EditTime
		}

		err = m.Upsert(ctx, manifest.Entry{
			ID:           id,
			Kind:         types.ItemKindNote,
			Fingerprint:  types.NewFingerprint(raw.Version, updated),
			LocalPath:    strings.TrimSuffix(p, "/note.json"),
			Title:        raw.Title,
			CreatedAt:    raw.CreatedAt,
			LastSyncedAt: time.Now(),
		})
		if err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}
