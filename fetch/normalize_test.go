package fetch

import (
	"testing"

	"github.com/hollis-dev/notemirror/types"
)

func TestParseNotesPage(t *testing.T) {
	body := []byte(`{"c":{"has_more":true,"total_items":42,"list":[
		{"id":"listing-1","note_id":"stable-1","title":"first","content":"hello",
		 "version":3,"updated_at":"2026-02-10 09:00:00","created_at":"2026-01-01 08:00:00",
		 "tags":[{"name":"go"},{"name":""}],
		 "attachments":[{"url":"https://cdn.test/a.mp3","type":"audio","title":"clip","duration":65000}],
		 "original_images":["https://cdn.test/full.png"],
		 "small_images":[{"url":"https://cdn.test/small.png"}],
		 "res_info":{"title":"some article","url":"https://example.test/article"}},
		{"id":"listing-2","title":"no stable id","version":1,"edit_time":"2026-02-11 10:00:00"}
	]}}`)

	page, err := parseNotesPage(body)
	if err != nil {
		t.Fatalf("parseNotesPage: %v", err)
	}
	if !page.HasMore {
		t.Error("HasMore = false, want true")
	}
	if page.TotalHint != 42 {
		t.Errorf("TotalHint = %d, want 42", page.TotalHint)
	}
	if page.Next != types.Cursor("listing-2") {
		t.Errorf("Next = %q, want listing-2", page.Next)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}

	first := page.Items[0]
	if first.ID != "stable-1" {
		t.Errorf("ID = %q, want the note_id over the listing id", first.ID)
	}
	if first.Kind != types.ItemKindNote {
		t.Errorf("Kind = %q, want note", first.Kind)
	}
	if first.Fingerprint != types.NewFingerprint(3, "2026-02-10 09:00:00") {
		t.Errorf("Fingerprint = %q", first.Fingerprint)
	}
	if got := first.Note.Tags; len(got) != 1 || got[0] != "go" {
		t.Errorf("Tags = %v, want [go] with empties dropped", got)
	}
	if len(first.Note.Attachments) != 1 || first.Note.Attachments[0].DurationMS != 65000 {
		t.Errorf("Attachments = %+v", first.Note.Attachments)
	}
	// Original images win over the small variants.
	if got := first.Note.Images; len(got) != 1 || got[0] != "https://cdn.test/full.png" {
		t.Errorf("Images = %v", got)
	}
	if first.Note.RefSource == nil || first.Note.RefSource.URL != "https://example.test/article" {
		t.Errorf("RefSource = %+v", first.Note.RefSource)
	}

	second := page.Items[1]
	if second.ID != "listing-2" {
		t.Errorf("fallback ID = %q, want the listing id", second.ID)
	}
	if second.UpdatedAt != "2026-02-11 10:00:00" {
		t.Errorf("UpdatedAt = %q, want the edit_time fallback", second.UpdatedAt)
	}
}

func TestParseNotesPageLastPage(t *testing.T) {
	body := []byte(`{"c":{"has_more":false,"list":[{"id":"l1","note_id":"n1","version":1}]}}`)
	page, err := parseNotesPage(body)
	if err != nil {
		t.Fatalf("parseNotesPage: %v", err)
	}
	if page.HasMore {
		t.Error("HasMore = true, want false")
	}
	if page.Next != types.CursorStart {
		t.Errorf("Next = %q, want empty on the last page", page.Next)
	}
}

func TestParseNotesPageRejectsNoteWithoutID(t *testing.T) {
	body := []byte(`{"c":{"has_more":false,"list":[{"title":"anonymous"}]}}`)
	if _, err := parseNotesPage(body); err == nil {
		t.Fatal("want error for a note record with no id")
	}
}

func TestParseNotebookPage(t *testing.T) {
	body := []byte(`{"c":{
		"directories":[{"id":10,"name":"Research"},{"id":11,"name":"Drafts"}],
		"resources":[
			{"resource_type":"NOTE","resource_note_meta_data":
				{"note_id":"nb-1","title":"inside","version":2,"updated_at":"2026-02-12 11:00:00"}},
			{"resource_type":"FILE","resource_file_meta_data":
				{"id":55,"name":"paper.pdf","file_url":"https://cdn.test/paper.pdf","size":1024}},
			{"resource_type":"VIDEO"}
		],
		"has_next":1}}`)

	page, err := parseNotebookPage(body)
	if err != nil {
		t.Fatalf("parseNotebookPage: %v", err)
	}
	if !page.HasMore {
		t.Error("HasMore = false, want true from has_next")
	}
	if len(page.Dirs) != 2 || page.Dirs[0].Name != "Research" {
		t.Errorf("Dirs = %+v", page.Dirs)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2 with unknown kinds dropped", len(page.Items))
	}

	note := page.Items[0]
	if note.Kind != types.ItemKindNotebookNote {
		t.Errorf("note Kind = %q", note.Kind)
	}
	if note.ID != "nb-1" {
		t.Errorf("note ID = %q", note.ID)
	}

	file := page.Items[1]
	if file.Kind != types.ItemKindFile {
		t.Errorf("file Kind = %q", file.Kind)
	}
	if file.ID != "file:55" {
		t.Errorf("file ID = %q, want file:55", file.ID)
	}
	if file.Fingerprint != types.NewFingerprint(1024, "paper.pdf") {
		t.Errorf("file Fingerprint = %q", file.Fingerprint)
	}
	if file.File == nil || file.File.URL != "https://cdn.test/paper.pdf" {
		t.Errorf("File = %+v", file.File)
	}
}

func TestParseNotebookPageSkipsFileWithoutURL(t *testing.T) {
	body := []byte(`{"c":{"resources":[
		{"resource_type":"FILE","resource_file_meta_data":{"id":1,"name":"ghost.bin"}}
	],"has_next":0}}`)
	page, err := parseNotebookPage(body)
	if err != nil {
		t.Fatalf("parseNotebookPage: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("items = %d, want 0", len(page.Items))
	}
}
