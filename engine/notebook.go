package engine

import (
	"context"

	"github.com/hollis-dev/notemirror/fetch"
	"github.com/hollis-dev/notemirror/log"
	"github.com/hollis-dev/notemirror/manifest"
	"github.com/hollis-dev/notemirror/markdown"
	"github.com/hollis-dev/notemirror/metrics"
	"github.com/hollis-dev/notemirror/storage"
	"github.com/hollis-dev/notemirror/types"
)

// NotebookSyncConfig wires a notebook sync.
type NotebookSyncConfig struct {
	Meta       types.RunMeta
	Client     *fetch.Client
	Fetcher    *fetch.Fetcher
	Store      storage.Store
	Manifest   *manifest.Manifest
	Downloader fetch.Downloader
	Collector  *metrics.Collector
	Observer   types.Observer
	Logger     *log.Logger
	SaveJSON   bool
	Workers    int
	ForceAll   bool
	// Root is the mirror path prefix this notebook materializes under.
	Root string
}

// NotebookSyncer mirrors one notebook: its directory tree is walked depth
// first, each directory synced with the same reconcile-and-materialize
// pipeline the flat notes collection uses.
type NotebookSyncer struct {
	cfg NotebookSyncConfig
}

// NewNotebookSyncer creates a NotebookSyncer.
func NewNotebookSyncer(cfg NotebookSyncConfig) (*NotebookSyncer, error) {
	if err := cfg.Meta.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &NotebookSyncer{cfg: cfg}, nil
}

// pendingDir is one directory awaiting sync.
type pendingDir struct {
	id     int64
	prefix string
}

// dirCaptureSource wraps a page source and siphons off discovered
// subdirectories for the depth-first walk.
type dirCaptureSource struct {
	PageSource
	onDirs func([]types.DirectoryRef)
}

func (s *dirCaptureSource) Next(ctx context.Context) (*types.Page, error) {
	page, err := s.PageSource.Next(ctx)
	if err != nil {
		return page, err
	}
	if len(page.Dirs) > 0 {
		s.onDirs(page.Dirs)
	}
	return page, nil
}

// Sync mirrors the notebook. One directory aborting aborts the whole
// notebook; counts are cumulative across all directories synced so far, so
// the returned report always reflects total progress.
func (s *NotebookSyncer) Sync(ctx context.Context, nb types.Notebook) (*types.RunReport, error) {
	cfg := s.cfg
	reconciler := NewReconciler(cfg.Manifest, cfg.ForceAll)

	aggregate := &types.RunReport{
		RunID:      cfg.Meta.RunID,
		Collection: cfg.Meta.Collection,
		Status:     types.StatusDone,
	}

	// Depth-first: LIFO stack, subdirectories pushed as discovered.
	stack := []pendingDir{{id: nb.RootDirID, prefix: cfg.Root}}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cfg.Logger.Debug("syncing directory", map[string]any{
			"notebook":  nb.IDAlias,
			"directory": dir.id,
			"prefix":    dir.prefix,
		})

		walk := cfg.Fetcher.Walk(cfg.Client.NotebookResources(nb.IDAlias, dir.id), types.CursorStart)
		source := &dirCaptureSource{
			PageSource: walk,
			onDirs: func(dirs []types.DirectoryRef) {
				for _, d := range dirs {
					stack = append(stack, pendingDir{
						id:     d.ID,
						prefix: joinPrefix(dir.prefix, markdown.SanitizeFilename(d.Name)),
					})
				}
			},
		}

		mat := NewMaterializer(MaterializeConfig{
			Store:      cfg.Store,
			Manifest:   cfg.Manifest,
			Downloader: cfg.Downloader,
			Logger:     cfg.Logger,
			Metrics:    cfg.Collector,
			SaveJSON:   cfg.SaveJSON,
			Workers:    cfg.Workers,
			PathPrefix: dir.prefix,
		})
		runner, err := NewRunner(RunnerConfig{
			Meta:         cfg.Meta,
			Source:       source,
			Reconciler:   reconciler,
			Materializer: mat,
			Collector:    cfg.Collector,
			Observer:     cfg.Observer,
			Logger:       cfg.Logger,
		})
		if err != nil {
			return nil, err
		}

		report := runner.Execute(ctx)
		aggregate.Failures = append(aggregate.Failures, report.Failures...)
		aggregate.Missing = append(aggregate.Missing, report.Missing...)
		aggregate.Counts = report.Counts
		aggregate.Duration += report.Duration

		if report.Status != types.StatusDone {
			aggregate.Status = report.Status
			aggregate.ResumeCursor = report.ResumeCursor
			return aggregate, nil
		}
	}

	return aggregate, nil
}

func joinPrefix(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "/" + segment
}
