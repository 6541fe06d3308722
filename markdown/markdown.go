// Package markdown renders normalized notes to the mirror's on-disk form.
//
// Rendering is pure string work: attachment and image references are passed
// in as already-resolved relative paths, so the renderer never touches
// storage or the network.
package markdown

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/hollis-dev/notemirror/types"
)

// MaxFilenameRunes bounds sanitized names so deep paths stay within
// filesystem limits.
const MaxFilenameRunes = 80

// SanitizeFilename makes a title safe as a single path segment. Separator
// and shell-hostile characters become underscores, whitespace collapses to
// single underscores, and the result is rune-bounded. An empty result
// becomes "untitled".
func SanitizeFilename(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r), unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}

	out := strings.Trim(b.String(), "._ ")
	if runes := []rune(out); len(runes) > MaxFilenameRunes {
		out = strings.Trim(string(runes[:MaxFilenameRunes]), "._ ")
	}
	if out == "" {
		return "untitled"
	}
	return out
}

// FileExtension extracts a lowercase extension (with dot) from a resource
// URL, ignoring query strings from pre-signed links. Returns ".bin" when the
// URL carries no usable extension.
func FileExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".bin"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || len(ext) > 8 {
		return ".bin"
	}
	return ext
}

// FormatDuration renders a millisecond duration as M:SS or H:MM:SS.
func FormatDuration(ms int64) string {
	total := ms / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// RenderNote produces the note's markdown document. localRefs maps remote
// attachment and image URLs to mirror-relative paths; URLs without a mapping
// (links, failed downloads) render as remote references.
func RenderNote(note *types.Note, localRefs map[string]string) string {
	var b strings.Builder

	title := strings.TrimSpace(note.Title)
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if note.CreatedAt != "" {
		fmt.Fprintf(&b, "- Created: %s\n", note.CreatedAt)
	}
	if note.UpdatedAt != "" {
		fmt.Fprintf(&b, "- Updated: %s\n", note.UpdatedAt)
	}
	if note.Source != "" {
		fmt.Fprintf(&b, "- Source: %s\n", note.Source)
	}
	if note.AIGenerated {
		b.WriteString("- AI generated: yes\n")
	}
	if len(note.Tags) > 0 {
		fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(note.Tags, ", "))
	}
	if len(note.Topics) > 0 {
		fmt.Fprintf(&b, "- Topics: %s\n", strings.Join(note.Topics, ", "))
	}
	b.WriteString("\n")

	if content := strings.TrimSpace(note.Content); content != "" {
		b.WriteString(content)
		b.WriteString("\n")
	}

	if ref := strings.TrimSpace(note.RefContent); ref != "" {
		b.WriteString("\n## Excerpt\n\n")
		for _, line := range strings.Split(ref, "\n") {
			fmt.Fprintf(&b, "> %s\n", line)
		}
	}

	if note.RefSource != nil {
		b.WriteString("\n## From\n\n")
		srcTitle := note.RefSource.Title
		if srcTitle == "" {
			srcTitle = note.RefSource.URL
		}
		if note.RefSource.URL != "" {
			fmt.Fprintf(&b, "[%s](%s)\n", srcTitle, note.RefSource.URL)
		} else {
			fmt.Fprintf(&b, "%s\n", srcTitle)
		}
	}

	if len(note.Images) > 0 {
		b.WriteString("\n## Images\n\n")
		for _, img := range note.Images {
			ref := img
			if local, ok := localRefs[img]; ok {
				ref = local
			}
			fmt.Fprintf(&b, "![](%s)\n", ref)
		}
	}

	if len(note.Attachments) > 0 {
		b.WriteString("\n## Attachments\n\n")
		for _, a := range note.Attachments {
			b.WriteString(renderAttachment(a, localRefs))
		}
	}

	return b.String()
}

func renderAttachment(a types.Attachment, localRefs map[string]string) string {
	label := strings.TrimSpace(a.Title)
	if label == "" {
		label = a.Type
	}
	if label == "" {
		label = "attachment"
	}
	if a.DurationMS > 0 {
		label = fmt.Sprintf("%s (%s)", label, FormatDuration(a.DurationMS))
	}

	ref := a.URL
	if local, ok := localRefs[a.URL]; ok && !a.IsLink() {
		ref = local
	}
	return fmt.Sprintf("- [%s](%s)\n", label, ref)
}
