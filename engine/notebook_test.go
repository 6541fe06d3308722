package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hollis-dev/notemirror/auth"
	"github.com/hollis-dev/notemirror/fetch"
	"github.com/hollis-dev/notemirror/manifest"
	"github.com/hollis-dev/notemirror/metrics"
	"github.com/hollis-dev/notemirror/storage"
	"github.com/hollis-dev/notemirror/types"
)

// notebookTransport serves a tiny notebook tree: the root directory holds
// one note and one subdirectory; the subdirectory holds a note and a file.
type notebookTransport struct{}

func (notebookTransport) Send(_ context.Context, req *fetch.Request) (*fetch.Response, error) {
	switch req.Query.Get("directory_id") {
	case "1":
		return &fetch.Response{Status: 200, Body: []byte(`{"c":{
			"directories":[{"id":2,"name":"Sub Dir"}],
			"resources":[{"resource_type":"NOTE","resource_note_meta_data":
				{"note_id":"root-note","title":"root note","version":1,
				 "created_at":"2026-01-01 08:00:00","updated_at":"2026-01-02 08:00:00"}}],
			"has_next":0}}`)}, nil
	case "2":
		return &fetch.Response{Status: 200, Body: []byte(`{"c":{
			"directories":[],
			"resources":[
				{"resource_type":"NOTE","resource_note_meta_data":
					{"note_id":"sub-note","title":"sub note","version":1,
					 "created_at":"2026-01-03 08:00:00","updated_at":"2026-01-04 08:00:00"}},
				{"resource_type":"FILE","resource_file_meta_data":
					{"id":55,"name":"paper.pdf","file_url":"https://cdn.test/paper.pdf","size":9}}],
			"has_next":0}}`)}, nil
	default:
		return &fetch.Response{Status: 404, Body: []byte(`{}`)}, nil
	}
}

func TestNotebookSyncWalksDirectoriesDepthFirst(t *testing.T) {
	store, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	m, err := manifest.Load(context.Background(), store, "notebook-alias")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cred := &types.Credential{
		Token:      "Bearer t",
		AcquiredAt: time.Now(),
		Lifetime:   types.DefaultCredentialLifetime,
	}
	fetcher := fetch.New(fetch.Config{
		Transport: notebookTransport{},
		Guard:     auth.NewGuard(cred),
	})

	syncer, err := NewNotebookSyncer(NotebookSyncConfig{
		Meta:       types.RunMeta{RunID: "run-nb", Collection: "notebook-alias"},
		Client:     fetch.NewClientWithBaseURLs("http://notes.test", "http://kb.test"),
		Fetcher:    fetcher,
		Store:      store,
		Manifest:   m,
		Downloader: &stubDownloader{},
		Collector:  metrics.NewCollector("notebook-alias", "fs", "run-nb"),
		Root:       "my-notebook",
	})
	if err != nil {
		t.Fatalf("NewNotebookSyncer: %v", err)
	}

	report, err := syncer.Sync(context.Background(), types.Notebook{
		ID: 9, IDAlias: "alias", Name: "My Notebook", RootDirID: 1,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if report.Status != types.StatusDone {
		t.Fatalf("Status = %q, want done", report.Status)
	}
	if report.Counts.Created != 3 {
		t.Errorf("Created = %d, want 3 (two notes, one file)", report.Counts.Created)
	}

	root, ok := m.Lookup("root-note")
	if !ok {
		t.Fatal("root note missing from manifest")
	}
	if root.LocalPath != "my-notebook/20260101_080000_root_note" {
		t.Errorf("root note LocalPath = %q", root.LocalPath)
	}

	sub, ok := m.Lookup("sub-note")
	if !ok {
		t.Fatal("sub note missing from manifest")
	}
	if sub.LocalPath != "my-notebook/Sub_Dir/20260103_080000_sub_note" {
		t.Errorf("sub note LocalPath = %q", sub.LocalPath)
	}

	file, ok := m.Lookup("file:55")
	if !ok {
		t.Fatal("file missing from manifest")
	}
	if file.LocalPath != "my-notebook/Sub_Dir/files/paper.pdf" {
		t.Errorf("file LocalPath = %q", file.LocalPath)
	}
	if exists, _ := store.Exists(context.Background(), file.LocalPath); !exists {
		t.Error("file not written")
	}
}

func TestBuildIndex(t *testing.T) {
	store, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	m, _ := manifest.Load(context.Background(), store, "notes")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []manifest.Entry{
		{ID: "n1", Kind: types.ItemKindNote, Title: "older", LocalPath: "d1", LastSyncedAt: base},
		{ID: "n2", Kind: types.ItemKindNote, Title: "newer", LocalPath: "d2", LastSyncedAt: base.Add(time.Hour), Partial: true},
		{ID: "file:5", Kind: types.ItemKindFile, Title: "paper.pdf", LocalPath: "files/paper.pdf", LastSyncedAt: base.Add(time.Minute)},
	}
	for _, e := range entries {
		if err := m.Upsert(context.Background(), e); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	if err := BuildIndex(context.Background(), store, m, IndexFilename, "Notes"); err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	data, err := store.ReadFile(context.Background(), IndexFilename)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	doc := string(data)

	for _, want := range []string{
		"# Notes",
		"[newer](d2/note.md)",
		"[older](d1/note.md)",
		// File entries link to the file itself, and partial items are
		// flagged.
		"[paper.pdf](files/paper.pdf)",
		"partial",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("index missing %q\n%s", want, doc)
		}
	}
	// Most recently synced first.
	if strings.Index(doc, "newer") > strings.Index(doc, "older") {
		t.Error("index not ordered most-recent-first")
	}
}
