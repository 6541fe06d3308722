package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hollis-dev/notemirror/auth"
	"github.com/hollis-dev/notemirror/cli/render"
	"github.com/hollis-dev/notemirror/engine"
	"github.com/hollis-dev/notemirror/manifest"
	"github.com/hollis-dev/notemirror/storage"
)

// CacheStatusResponse is the rendered result of cache status.
type CacheStatusResponse struct {
	Collection string `json:"collection"`
	Path       string `json:"path"`
	Entries    int    `json:"entries"`
	Partial    int    `json:"partial"`
	LastSynced string `json:"last_synced,omitempty"`
}

// CacheClearResponse is the rendered result of cache clear.
type CacheClearResponse struct {
	Collection string `json:"collection"`
	Cleared    int    `json:"cleared"`
}

// CacheRebuildResponse is the rendered result of cache rebuild.
type CacheRebuildResponse struct {
	Collection string `json:"collection"`
	Recovered  int    `json:"recovered"`
}

func cacheFlags() []cli.Flag {
	return append(OutputFlags(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Mirror root directory (fs backend)",
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Manifest collection name",
			Value: "notes",
		},
		&cli.StringFlag{
			Name:  "storage",
			Usage: "Storage backend: fs or s3",
		},
		&cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "S3 bucket (s3 backend)",
		},
		&cli.StringFlag{
			Name:  "s3-prefix",
			Usage: "S3 key prefix (s3 backend)",
		},
		&cli.StringFlag{
			Name:  "s3-region",
			Usage: "AWS region (s3 backend)",
		},
	)
}

// CacheCommand returns the cache command with status, clear, and rebuild
// subcommands operating on the persisted sync manifest.
func CacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and repair the sync manifest",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show manifest entry counts and last sync time",
				Flags:  cacheFlags(),
				Action: cacheStatusAction,
			},
			{
				Name:   "clear",
				Usage:  "Drop all manifest entries (next run re-syncs everything)",
				Flags:  cacheFlags(),
				Action: cacheClearAction,
			},
			{
				Name:   "rebuild",
				Usage:  "Rebuild the manifest from note.json sidecars on disk",
				Flags:  cacheFlags(),
				Action: cacheRebuildAction,
			},
		},
	}
}

func cacheStatusAction(c *cli.Context) error {
	r, m, _, _, err := cacheSetup(c)
	if err != nil {
		return err
	}

	collection := c.String("collection")
	resp := CacheStatusResponse{
		Collection: collection,
		Path:       manifest.Path(collection),
		Entries:    m.Len(),
	}
	for _, e := range m.Snapshot() {
		if e.Partial {
			resp.Partial++
		}
	}
	if snap := m.Snapshot(); len(snap) > 0 {
		resp.LastSynced = snap[0].LastSyncedAt.Format(time.RFC3339)
	}

	return r.Render(resp)
}

func cacheClearAction(c *cli.Context) error {
	r, m, _, ctx, err := cacheSetup(c)
	if err != nil {
		return err
	}

	cleared := m.Len()
	if err := m.Clear(ctx); err != nil {
		return fmt.Errorf("manifest clear failed: %w", err)
	}

	return r.Render(CacheClearResponse{
		Collection: c.String("collection"),
		Cleared:    cleared,
	})
}

func cacheRebuildAction(c *cli.Context) error {
	r, m, store, ctx, err := cacheSetup(c)
	if err != nil {
		return err
	}

	recovered, err := engine.RebuildManifest(ctx, store, m)
	if err != nil {
		return fmt.Errorf("manifest rebuild failed: %w", err)
	}

	return r.Render(CacheRebuildResponse{
		Collection: c.String("collection"),
		Recovered:  recovered,
	})
}

func cacheSetup(c *cli.Context) (*render.Renderer, *manifest.Manifest, storage.Store, context.Context, error) {
	r, err := render.NewRenderer(c)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ctx := context.Background()
	s, err := resolveSettings(c)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	store, err := buildStore(ctx, s)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	m, err := manifest.Load(ctx, store, c.String("collection"))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("manifest load failed: %w", err)
	}
	return r, m, store, ctx, nil
}

// LogoutCommand returns the logout command, which removes the cached
// credential.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Remove the cached bearer credential",
		Flags: append(OutputFlags(),
			&cli.StringFlag{
				Name:  "token-file",
				Usage: "Override the credential cache location",
			},
		),
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	path := c.String("token-file")
	if path == "" {
		path, err = auth.DefaultTokenPath()
		if err != nil {
			return err
		}
	}

	existed, err := auth.Clear(path)
	if err != nil {
		return err
	}

	return r.Render(map[string]any{
		"token_file": path,
		"removed":    existed,
	})
}
