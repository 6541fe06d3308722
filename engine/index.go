package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/hollis-dev/notemirror/manifest"
	"github.com/hollis-dev/notemirror/storage"
	"github.com/hollis-dev/notemirror/types"
)

// IndexFilename is the mirror's table of contents, regenerated after every
// run from manifest state alone.
const IndexFilename = "INDEX.md"

// BuildIndex writes the collection index at path: every materialized item,
// most recently synced first. The index is derived state; deleting it costs
// nothing but a rebuild.
func BuildIndex(ctx context.Context, store storage.Store, m *manifest.Manifest, path, title string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	// Links are written relative to the index's own directory.
	base := ""
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[:i+1]
	}

	entries := m.Snapshot()
	if len(entries) == 0 {
		b.WriteString("No items synced yet.\n")
	}
	for _, e := range entries {
		label := e.Title
		if label == "" {
			label = e.ID
		}
		target := strings.TrimPrefix(e.LocalPath, base)
		if e.Kind != types.ItemKindFile {
			target += "/note.md"
		}
		fmt.Fprintf(&b, "- [%s](%s)", label, target)
		if !e.LastSyncedAt.IsZero() {
			fmt.Fprintf(&b, " · %s", e.LastSyncedAt.Format("2006-01-02 15:04"))
		}
		if e.Partial {
			b.WriteString(" · partial")
		}
		b.WriteString("\n")
	}

	if err := store.WriteFile(ctx, path, []byte(b.String())); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
