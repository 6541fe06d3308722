package markdown

import (
	"strings"
	"testing"

	"github.com/hollis-dev/notemirror/types"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain title", "plain_title"},
		{"a/b\\c:d", "a_b_c_d"},
		{`what? "quotes" <and> pipes|`, "what_quotes_and_pipes"},
		{"  spaced   out  ", "spaced_out"},
		{"...dots...", "dots"},
		{"", "untitled"},
		{"///", "untitled"},
		{"中文标题也可以", "中文标题也可以"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeFilenameBoundsLength(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := SanitizeFilename(long)
	if len([]rune(got)) > MaxFilenameRunes {
		t.Errorf("sanitized length = %d runes, want <= %d", len([]rune(got)), MaxFilenameRunes)
	}
}

func TestFileExtension(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://cdn.test/audio/clip.MP3?Expires=123&Signature=abc", ".mp3"},
		{"https://cdn.test/img/photo.png", ".png"},
		{"https://cdn.test/blob", ".bin"},
		{"://bad url", ".bin"},
	}
	for _, c := range cases {
		if got := FileExtension(c.in); got != c.want {
			t.Errorf("FileExtension(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{65000, "1:05"},
		{0, "0:00"},
		{3_661_000, "1:01:01"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.ms); got != c.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", c.ms, got, c.want)
		}
	}
}

func TestRenderNote(t *testing.T) {
	note := &types.Note{
		Title:      "My Note",
		Content:    "body text",
		RefContent: "line one\nline two",
		CreatedAt:  "2026-01-01 08:00:00",
		UpdatedAt:  "2026-02-10 09:00:00",
		Source:     "web",
		Tags:       []string{"go", "sync"},
		Attachments: []types.Attachment{
			{URL: "https://cdn.test/a.mp3", Type: "audio", Title: "clip", DurationMS: 65000},
			{URL: "https://example.test/page", Type: "link", Title: "a page"},
		},
		Images:    []string{"https://cdn.test/p.png"},
		RefSource: &types.RefSource{Title: "origin", URL: "https://example.test/src"},
	}
	refs := map[string]string{
		"https://cdn.test/a.mp3":  "attachments/clip.mp3",
		"https://cdn.test/p.png":  "images/img_1.png",
		"https://example.test/page": "attachments/never-used",
	}

	doc := RenderNote(note, refs)

	for _, want := range []string{
		"# My Note",
		"- Created: 2026-01-01 08:00:00",
		"- Tags: go, sync",
		"body text",
		"> line one\n> line two",
		"[origin](https://example.test/src)",
		"![](images/img_1.png)",
		"- [clip (1:05)](attachments/clip.mp3)",
		// Links always keep their remote URL.
		"- [a page](https://example.test/page)",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q\n%s", want, doc)
		}
	}
}

func TestRenderNoteUntitledAndMissingLocalRef(t *testing.T) {
	note := &types.Note{
		Content: "only content",
		Attachments: []types.Attachment{
			{URL: "https://cdn.test/b.mp3", Type: "audio"},
		},
	}
	doc := RenderNote(note, nil)
	if !strings.Contains(doc, "# Untitled") {
		t.Error("missing Untitled fallback heading")
	}
	// No local mapping falls back to the remote URL.
	if !strings.Contains(doc, "(https://cdn.test/b.mp3)") {
		t.Errorf("attachment should reference the remote URL\n%s", doc)
	}
}
