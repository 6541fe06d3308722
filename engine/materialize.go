package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hollis-dev/notemirror/fetch"
	"github.com/hollis-dev/notemirror/log"
	"github.com/hollis-dev/notemirror/manifest"
	"github.com/hollis-dev/notemirror/markdown"
	"github.com/hollis-dev/notemirror/metrics"
	"github.com/hollis-dev/notemirror/storage"
	"github.com/hollis-dev/notemirror/types"
)

// DefaultAttachmentWorkers bounds concurrent attachment downloads per item.
const DefaultAttachmentWorkers = 4

// createdAtLayout is the server's timestamp format.
const createdAtLayout = "2006-01-02 15:04:05"

// MaterializeConfig configures a Materializer.
type MaterializeConfig struct {
	Store      storage.Store
	Manifest   *manifest.Manifest
	Downloader fetch.Downloader
	Logger     *log.Logger
	Metrics    *metrics.Collector
	// SaveJSON keeps the raw API payload next to each rendered note.
	SaveJSON bool
	// Workers is the per-item attachment download concurrency.
	Workers int
	// PathPrefix roots all written paths inside the mirror. Empty for the
	// flat notes collection; notebook directories set it per directory.
	PathPrefix string

	now func() time.Time
}

// Materializer writes one item's on-disk form: the rendered note, its
// downloaded attachments and images, the optional raw sidecar, and the
// manifest entry recording the result.
type Materializer struct {
	cfg MaterializeConfig
}

// NewMaterializer creates a Materializer, filling config defaults.
func NewMaterializer(cfg MaterializeConfig) *Materializer {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultAttachmentWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &Materializer{cfg: cfg}
}

// Materialize writes the item and records it in the manifest. Attachment
// download failures degrade the item to a partial result and are returned as
// misses; a returned error means the item itself failed and no manifest
// entry was written.
func (m *Materializer) Materialize(ctx context.Context, entry types.PlanEntry) ([]types.AttachmentMiss, error) {
	switch entry.Item.Kind {
	case types.ItemKindFile:
		return nil, m.materializeFile(ctx, entry.Item)
	default:
		return m.materializeNote(ctx, entry.Item)
	}
}

func (m *Materializer) materializeNote(ctx context.Context, item types.RemoteItem) ([]types.AttachmentMiss, error) {
	note := item.Note
	if note == nil {
		return nil, fmt.Errorf("item %s has no note payload", item.ID)
	}

	dir, err := m.noteDir(ctx, item)
	if err != nil {
		return nil, err
	}

	localRefs, misses := m.downloadResources(ctx, item.ID, dir, note)

	doc := markdown.RenderNote(note, localRefs)
	if err := m.cfg.Store.WriteFile(ctx, dir+"/note.md", []byte(doc)); err != nil {
		return nil, fmt.Errorf("write note: %w", err)
	}
	if m.cfg.SaveJSON && len(note.Raw) > 0 {
		if err := m.cfg.Store.WriteFile(ctx, dir+"/note.json", note.Raw); err != nil {
			return nil, fmt.Errorf("write sidecar: %w", err)
		}
	}

	err = m.cfg.Manifest.Upsert(ctx, manifest.Entry{
		ID:           item.ID,
		Kind:         item.Kind,
		Fingerprint:  item.Fingerprint,
		LocalPath:    dir,
		Title:        note.Title,
		CreatedAt:    note.CreatedAt,
		LastSyncedAt: m.cfg.now(),
		Partial:      len(misses) > 0,
	})
	if err != nil {
		return nil, fmt.Errorf("record manifest entry: %w", err)
	}
	return misses, nil
}

func (m *Materializer) materializeFile(ctx context.Context, item types.RemoteItem) error {
	file := item.File
	if file == nil {
		return fmt.Errorf("item %s has no file payload", item.ID)
	}

	path := m.prefixed("files/" + markdown.SanitizeFilename(file.Name))
	if prior, ok := m.cfg.Manifest.Lookup(item.ID); ok && prior.LocalPath != "" {
		path = prior.LocalPath
	}

	data, err := m.cfg.Downloader.Download(ctx, file.URL)
	if err != nil {
		m.cfg.Metrics.IncAttachmentFailed()
		return fmt.Errorf("download file %s: %w", file.Name, err)
	}
	if err := m.cfg.Store.WriteFile(ctx, path, data); err != nil {
		return fmt.Errorf("write file %s: %w", file.Name, err)
	}
	m.cfg.Metrics.IncAttachmentDownloaded(int64(len(data)))

	err = m.cfg.Manifest.Upsert(ctx, manifest.Entry{
		ID:           item.ID,
		Kind:         item.Kind,
		Fingerprint:  item.Fingerprint,
		LocalPath:    path,
		Title:        file.Name,
		LastSyncedAt: m.cfg.now(),
	})
	if err != nil {
		return fmt.Errorf("record manifest entry: %w", err)
	}
	return nil
}

// noteDir resolves the item's directory. An existing manifest entry pins the
// location so a renamed note never orphans its directory; new items get a
// timestamp-prefixed name, disambiguated by id suffix on collision.
func (m *Materializer) noteDir(ctx context.Context, item types.RemoteItem) (string, error) {
	if prior, ok := m.cfg.Manifest.Lookup(item.ID); ok && prior.LocalPath != "" {
		return prior.LocalPath, nil
	}

	candidate := m.prefixed(dirName(item.Note))
	taken, err := m.cfg.Store.Exists(ctx, candidate+"/note.md")
	if err != nil {
		return "", fmt.Errorf("probe directory: %w", err)
	}
	if taken {
		candidate = candidate + "_" + shortID(item.ID)
	}
	return candidate, nil
}

// dirName derives the deterministic directory name: creation timestamp
// prefix plus sanitized title.
func dirName(note *types.Note) string {
	prefix := "00000000_000000"
	if t, err := time.Parse(createdAtLayout, note.CreatedAt); err == nil {
		prefix = t.Format("20060102_150405")
	}
	return prefix + "_" + markdown.SanitizeFilename(note.Title)
}

// shortID yields a compact disambiguation suffix from the item id.
func shortID(id string) string {
	id = markdown.SanitizeFilename(id)
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

func (m *Materializer) prefixed(path string) string {
	if m.cfg.PathPrefix == "" {
		return path
	}
	return strings.TrimSuffix(m.cfg.PathPrefix, "/") + "/" + path
}

// resourceJob is one attachment or image download.
type resourceJob struct {
	url  string
	rel  string // path relative to the note directory
	name string // display name for miss reporting
}

// downloadResources fetches the note's attachments and images with a
// bounded worker pool. Already-present files are skipped: attachment URLs
// are pre-signed and expire, so a file on disk is treated as immutable.
// Failures degrade to misses; the note still renders with remote URLs for
// anything missing.
func (m *Materializer) downloadResources(ctx context.Context, itemID, dir string, note *types.Note) (map[string]string, []types.AttachmentMiss) {
	var jobs []resourceJob
	for i, a := range note.Attachments {
		if a.IsLink() || a.URL == "" {
			continue
		}
		name := markdown.SanitizeFilename(a.Title)
		if name == "untitled" {
			name = fmt.Sprintf("attachment_%d", i+1)
		}
		jobs = append(jobs, resourceJob{
			url:  a.URL,
			rel:  "attachments/" + name + markdown.FileExtension(a.URL),
			name: a.Title,
		})
	}
	for i, img := range note.Images {
		jobs = append(jobs, resourceJob{
			url:  img,
			rel:  fmt.Sprintf("images/img_%d%s", i+1, markdown.FileExtension(img)),
			name: fmt.Sprintf("image %d", i+1),
		})
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	var (
		mu        sync.Mutex
		localRefs = make(map[string]string, len(jobs))
		misses    []types.AttachmentMiss
	)
	record := func(job resourceJob, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			misses = append(misses, types.AttachmentMiss{
				ItemID: itemID,
				Name:   job.name,
				URL:    job.url,
				Cause:  err.Error(),
			})
			return
		}
		localRefs[job.url] = job.rel
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, m.cfg.Workers)
	for _, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(job resourceJob) {
			defer wg.Done()
			defer func() { <-sem }()
			record(job, m.fetchResource(ctx, dir, job))
		}(job)
	}
	wg.Wait()

	return localRefs, misses
}

func (m *Materializer) fetchResource(ctx context.Context, dir string, job resourceJob) error {
	path := dir + "/" + job.rel
	exists, err := m.cfg.Store.Exists(ctx, path)
	if err != nil {
		return err
	}
	if exists {
		m.cfg.Metrics.IncAttachmentSkipped()
		return nil
	}

	data, err := m.cfg.Downloader.Download(ctx, job.url)
	if err != nil {
		m.cfg.Metrics.IncAttachmentFailed()
		m.cfg.Logger.Warn("attachment download failed", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return err
	}
	if err := m.cfg.Store.WriteFile(ctx, path, data); err != nil {
		m.cfg.Metrics.IncAttachmentFailed()
		return err
	}
	m.cfg.Metrics.IncAttachmentDownloaded(int64(len(data)))
	return nil
}
