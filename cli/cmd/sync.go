package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/hollis-dev/notemirror/adapter"
	"github.com/hollis-dev/notemirror/adapter/redis"
	"github.com/hollis-dev/notemirror/adapter/webhook"
	"github.com/hollis-dev/notemirror/auth"
	"github.com/hollis-dev/notemirror/cli/config"
	"github.com/hollis-dev/notemirror/cli/render"
	"github.com/hollis-dev/notemirror/cli/tui"
	"github.com/hollis-dev/notemirror/engine"
	"github.com/hollis-dev/notemirror/fetch"
	"github.com/hollis-dev/notemirror/log"
	"github.com/hollis-dev/notemirror/manifest"
	"github.com/hollis-dev/notemirror/markdown"
	"github.com/hollis-dev/notemirror/metrics"
	"github.com/hollis-dev/notemirror/storage"
	"github.com/hollis-dev/notemirror/types"
)

// Exit codes for sync commands. A done run exits 0 even when individual
// items failed; the report enumerates them.
const (
	exitDone              = 0
	exitError             = 1
	exitCredentialExpired = 4
	exitFetchFailed       = 5
)

// DefaultLimit caps items per run unless --all lifts it.
const DefaultLimit = 100

// SyncCommand returns the sync command with its notes and notebooks
// subcommands.
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror remote collections to local storage",
		Subcommands: []*cli.Command{
			{
				Name:   "notes",
				Usage:  "Sync the flat notes collection",
				Flags:  SyncFlags(),
				Action: syncNotesAction,
			},
			{
				Name:      "notebooks",
				Usage:     "Sync notebooks (all, or one by alias)",
				ArgsUsage: "[alias]",
				Flags:     SyncFlags(),
				Action:    syncNotebooksAction,
			},
		},
	}
}

// settings are the effective sync options after merging CLI flags over the
// config file. Flags always win; config fills gaps; defaults fill the rest.
type settings struct {
	output    string
	pageSize  int
	delay     time.Duration
	limit     int
	saveJSON  bool
	workers   int
	force     bool
	tui       bool
	resume    types.Cursor
	tokenFile string

	storageBackend string
	s3             storage.S3Config

	adapter config.AdapterConfig
}

func resolveSettings(c *cli.Context) (*settings, error) {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	s := &settings{
		output:         cfg.Output,
		pageSize:       cfg.PageSize,
		delay:          cfg.Delay.Duration,
		limit:          cfg.Limit,
		saveJSON:       cfg.SaveJSON,
		workers:        cfg.Workers,
		tokenFile:      cfg.TokenFile,
		storageBackend: cfg.Storage.Backend,
		s3: storage.S3Config{
			Bucket:       cfg.Storage.Bucket,
			Prefix:       cfg.Storage.Prefix,
			Region:       cfg.Storage.Region,
			Endpoint:     cfg.Storage.Endpoint,
			UsePathStyle: cfg.Storage.S3PathStyle,
		},
		adapter: cfg.Adapter,
	}
	if cfg.Storage.Backend == "" && cfg.Storage.Path != "" {
		s.output = cfg.Storage.Path
	}

	// Flags override config.
	if v := c.String("output"); v != "" {
		s.output = v
	}
	if v := c.Int("page-size"); v > 0 {
		s.pageSize = v
	}
	if v := c.Duration("delay"); v > 0 {
		s.delay = v
	}
	if v := c.Int("limit"); v > 0 {
		s.limit = v
	}
	if c.Bool("save-json") {
		s.saveJSON = true
	}
	if v := c.Int("workers"); v > 0 {
		s.workers = v
	}
	if v := c.String("token-file"); v != "" {
		s.tokenFile = v
	}
	if v := c.String("storage"); v != "" {
		s.storageBackend = v
	}
	if v := c.String("s3-bucket"); v != "" {
		s.s3.Bucket = v
	}
	if v := c.String("s3-prefix"); v != "" {
		s.s3.Prefix = v
	}
	if v := c.String("s3-region"); v != "" {
		s.s3.Region = v
	}
	s.force = c.Bool("force")
	s.tui = c.Bool("tui")
	s.resume = types.Cursor(c.String("resume"))

	// Defaults.
	if s.output == "" {
		s.output = "./notes"
	}
	if s.limit == 0 {
		s.limit = DefaultLimit
	}
	if c.Bool("all") {
		s.limit = 0
	}
	if s.storageBackend == "" {
		s.storageBackend = "fs"
	}

	switch s.storageBackend {
	case "fs", "s3":
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (must be fs or s3)", s.storageBackend)
	}

	return s, nil
}

func buildStore(ctx context.Context, s *settings) (storage.Store, error) {
	switch s.storageBackend {
	case "s3":
		return storage.NewS3Store(ctx, s.s3)
	default:
		return storage.NewFSStore(s.output)
	}
}

// loadGuard reads the cached credential and wraps it in a guard. A missing
// cache is reported as credential expiry so the exit code tells the caller
// to log in.
func loadGuard(s *settings) (*auth.Guard, *types.Credential, error) {
	path := s.tokenFile
	if path == "" {
		var err error
		path, err = auth.DefaultTokenPath()
		if err != nil {
			return nil, nil, err
		}
	}
	cred, err := auth.LoadCached(path)
	if err != nil {
		return nil, nil, err
	}
	if cred == nil {
		return nil, nil, fmt.Errorf("no cached credential at %s; run `notemirror login --token <bearer>`: %w",
			path, auth.ErrCredentialExpired)
	}
	return auth.NewGuard(cred), cred, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func syncNotesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	s, err := resolveSettings(c)
	if err != nil {
		return err
	}

	guard, _, err := loadGuard(s)
	if err != nil {
		return cli.Exit(err.Error(), exitCodeForErr(err))
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := buildStore(ctx, s)
	if err != nil {
		return fmt.Errorf("storage init failed: %w", err)
	}

	m, err := manifest.Load(ctx, store, "notes")
	if err != nil {
		return fmt.Errorf("manifest load failed: %w", err)
	}

	runID := uuid.NewString()
	meta := types.RunMeta{RunID: runID, Collection: "notes"}
	logger := log.NewLogger(&meta)
	transport := fetch.NewHTTPTransport()
	client := fetch.NewClient()
	collector := metrics.NewCollector("notes", s.storageBackend, runID)

	var progress *tui.Progress
	var observer types.Observer
	if s.tui {
		progress = tui.StartProgress("notes")
		observer = progress.Observer()
	}

	fetcher := fetch.New(fetch.Config{
		Transport: transport,
		Guard:     guard,
		Logger:    logger,
		PageDelay: s.delay,
		MaxItems:  s.limit,
	})

	spec := client.Notes()
	if s.pageSize > 0 {
		spec.PageSize = s.pageSize
	}
	start := types.CursorStart
	if s.resume != "" {
		start = s.resume
	}

	runner, err := engine.NewRunner(engine.RunnerConfig{
		Meta:       meta,
		Source:     fetcher.Walk(spec, start),
		Reconciler: engine.NewReconciler(m, s.force),
		Materializer: engine.NewMaterializer(engine.MaterializeConfig{
			Store:      store,
			Manifest:   m,
			Downloader: transport,
			Logger:     logger,
			Metrics:    collector,
			SaveJSON:   s.saveJSON,
			Workers:    s.workers,
		}),
		Collector: collector,
		Observer:  observer,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	report := runner.Execute(ctx)

	if err := m.Flush(ctx); err != nil {
		logger.Warn("manifest flush failed", map[string]any{"error": err.Error()})
	}
	if err := engine.BuildIndex(ctx, store, m, engine.IndexFilename, "Notes"); err != nil {
		logger.Warn("index build failed", map[string]any{"error": err.Error()})
	}

	return finishRun(ctx, c, r, s, progress, report, logger)
}

func syncNotebooksAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	s, err := resolveSettings(c)
	if err != nil {
		return err
	}

	guard, cred, err := loadGuard(s)
	if err != nil {
		return cli.Exit(err.Error(), exitCodeForErr(err))
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := buildStore(ctx, s)
	if err != nil {
		return fmt.Errorf("storage init failed: %w", err)
	}

	transport := fetch.NewHTTPTransport()
	client := fetch.NewClient()

	notebooks, err := client.ListNotebooks(ctx, transport, cred)
	if err != nil {
		return cli.Exit(fmt.Sprintf("notebook listing failed: %v", err), exitCodeForErr(err))
	}

	if alias := c.Args().First(); alias != "" {
		filtered := notebooks[:0]
		for _, nb := range notebooks {
			if nb.IDAlias == alias {
				filtered = append(filtered, nb)
			}
		}
		if len(filtered) == 0 {
			return cli.Exit(fmt.Sprintf("notebook %q not found", alias), exitError)
		}
		notebooks = filtered[:1]
	}

	var reports []*types.RunReport
	for _, nb := range notebooks {
		report, err := syncOneNotebook(ctx, c, s, guard, transport, client, store, nb)
		if err != nil {
			return err
		}
		reports = append(reports, report)
		if report.Status != types.StatusDone {
			break
		}
	}

	worst := worstReport(reports)
	if err := r.Render(reports); err != nil {
		return err
	}
	if code := statusExitCode(worst.Status); code != exitDone {
		return cli.Exit("", code)
	}
	return nil
}

func syncOneNotebook(ctx context.Context, c *cli.Context, s *settings, guard *auth.Guard,
	transport *fetch.HTTPTransport, client *fetch.Client, store storage.Store, nb types.Notebook) (*types.RunReport, error) {

	collection := "notebook-" + nb.IDAlias
	m, err := manifest.Load(ctx, store, collection)
	if err != nil {
		return nil, fmt.Errorf("manifest load failed for %s: %w", collection, err)
	}

	runID := uuid.NewString()
	meta := types.RunMeta{RunID: runID, Collection: collection}
	logger := log.NewLogger(&meta)
	collector := metrics.NewCollector(collection, s.storageBackend, runID)

	var progress *tui.Progress
	var observer types.Observer
	if s.tui {
		progress = tui.StartProgress(collection)
		observer = progress.Observer()
	}

	fetcher := fetch.New(fetch.Config{
		Transport: transport,
		Guard:     guard,
		Logger:    logger,
		PageDelay: s.delay,
		MaxItems:  s.limit,
	})

	root := markdown.SanitizeFilename(nb.Name)
	syncer, err := engine.NewNotebookSyncer(engine.NotebookSyncConfig{
		Meta:       meta,
		Client:     client,
		Fetcher:    fetcher,
		Store:      store,
		Manifest:   m,
		Downloader: transport,
		Collector:  collector,
		Observer:   observer,
		Logger:     logger,
		SaveJSON:   s.saveJSON,
		Workers:    s.workers,
		ForceAll:   s.force,
		Root:       root,
	})
	if err != nil {
		return nil, err
	}

	report, err := syncer.Sync(ctx, nb)
	if err != nil {
		return nil, err
	}

	if err := m.Flush(ctx); err != nil {
		logger.Warn("manifest flush failed", map[string]any{"error": err.Error()})
	}
	if err := engine.BuildIndex(ctx, store, m, storage.Join(root, engine.IndexFilename), nb.Name); err != nil {
		logger.Warn("index build failed", map[string]any{"error": err.Error()})
	}

	if progress != nil {
		if err := progress.Finish(report); err != nil {
			logger.Warn("progress view failed", map[string]any{"error": err.Error()})
		}
	}
	publishRunEvent(ctx, s, report, logger)

	return report, nil
}

// finishRun closes the progress view, publishes the completion event,
// renders the report, and maps the run status to an exit code.
func finishRun(ctx context.Context, _ *cli.Context, r *render.Renderer, s *settings,
	progress *tui.Progress, report *types.RunReport, logger *log.Logger) error {

	if progress != nil {
		if err := progress.Finish(report); err != nil {
			logger.Warn("progress view failed", map[string]any{"error": err.Error()})
		}
	}

	publishRunEvent(ctx, s, report, logger)

	if err := r.Render(report); err != nil {
		return err
	}
	if code := statusExitCode(report.Status); code != exitDone {
		return cli.Exit("", code)
	}
	return nil
}

// publishRunEvent sends the run-completed event through the configured
// adapter. Publish failures are logged, never fatal; the mirror on disk is
// already consistent.
func publishRunEvent(ctx context.Context, s *settings, report *types.RunReport, logger *log.Logger) {
	a, err := buildAdapter(s.adapter)
	if err != nil {
		logger.Warn("adapter init failed", map[string]any{"error": err.Error()})
		return
	}
	if a == nil {
		return
	}
	defer func() { _ = a.Close() }()

	event := adapter.FromReport(report, time.Now())
	if err := a.Publish(ctx, event); err != nil {
		logger.Warn("run event publish failed", map[string]any{"error": err.Error()})
	}
}

// buildAdapter constructs the configured notification adapter. Returns
// (nil, nil) when notifications are disabled.
func buildAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	retries := -1
	if cfg.Retries != nil {
		retries = *cfg.Retries
	}

	switch cfg.Type {
	case "":
		return nil, nil
	case "webhook":
		wc := webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
		}
		if retries >= 0 {
			wc.Retries = retries
		} else {
			wc.Retries = webhook.DefaultRetries
		}
		return webhook.New(wc)
	case "redis":
		rc := redis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
		}
		if retries >= 0 {
			rc.Retries = retries
		} else {
			rc.Retries = redis.DefaultRetries
		}
		return redis.New(rc)
	default:
		return nil, fmt.Errorf("unknown adapter type: %s (must be webhook or redis)", cfg.Type)
	}
}

// statusExitCode maps a run status to the command's exit code.
func statusExitCode(status types.RunStatus) int {
	switch status {
	case types.StatusDone:
		return exitDone
	case types.StatusCredentialExpired:
		return exitCredentialExpired
	case types.StatusFetchFailed:
		return exitFetchFailed
	default:
		return exitError
	}
}

// exitCodeForErr distinguishes credential expiry from other failures before
// a run starts.
func exitCodeForErr(err error) int {
	if auth.IsCredentialExpired(err) {
		return exitCredentialExpired
	}
	return exitError
}

// worstReport picks the report whose status should drive the exit code.
func worstReport(reports []*types.RunReport) *types.RunReport {
	worst := &types.RunReport{Status: types.StatusDone}
	for _, rep := range reports {
		if rep.Status != types.StatusDone {
			return rep
		}
		worst = rep
	}
	return worst
}
