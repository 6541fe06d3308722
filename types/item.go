package types

import (
	"encoding/json"
	"fmt"
)

// ItemKind discriminates the record variants the remote service returns.
// The raw API shapes differ per endpoint; normalization folds them into one
// canonical form at the fetch boundary so reconciliation and materialization
// never see API-shape drift.
type ItemKind string

const (
	// ItemKindNote is a note from the flat notes listing.
	ItemKindNote ItemKind = "note"
	// ItemKindNotebookNote is a note resource inside a notebook directory.
	ItemKindNotebookNote ItemKind = "notebook_note"
	// ItemKindFile is a file resource inside a notebook directory.
	ItemKindFile ItemKind = "file"
)

// RemoteItem pairs stable item identity and a change fingerprint with the
// normalized payload. Exactly one of Note or File is set, per Kind.
type RemoteItem struct {
	// ID is the stable item identifier, unique within its collection.
	ID string
	// Kind selects the payload variant.
	Kind ItemKind
	// Fingerprint is a cheap change proxy derived from server metadata
	// (revision + update timestamp), not a content hash. See NewFingerprint.
	Fingerprint string
	// UpdatedAt is the server's update timestamp string, informational.
	UpdatedAt string
	// Note is the normalized note record (note kinds only).
	Note *Note
	// File is the file resource descriptor (file kind only).
	File *FileResource
}

// NewFingerprint composes the change fingerprint from server-provided
// metadata. Content is never re-fetched just to check equality, so the
// fingerprint must be derivable from listing responses alone.
func NewFingerprint(version int64, updatedAt string) string {
	return fmt.Sprintf("%d:%s", version, updatedAt)
}

// Note is the canonical normalized note record. Every note variant the API
// returns is folded into this shape before reaching the reconciler.
type Note struct {
	ID          string
	Title       string
	Content     string
	RefContent  string
	Source      string
	NoteType    string
	EntryType   string
	CreatedAt   string
	UpdatedAt   string
	Version     int64
	AIGenerated bool
	Tags        []string
	Topics      []string
	Attachments []Attachment
	Images      []string
	RefSource   *RefSource

	// Raw is the unmodified API payload, retained for the optional
	// note.json sidecar and for manifest rebuild scans.
	Raw json.RawMessage
}

// Attachment is a downloadable resource referenced by a note. Attachment
// URLs carry expiring signed access, so attachments are treated as immutable
// once fetched.
type Attachment struct {
	URL        string
	Type       string
	Title      string
	DurationMS int64
}

// IsLink reports whether the attachment is an external link rather than a
// downloadable resource.
func (a Attachment) IsLink() bool { return a.Type == "link" }

// RefSource is the provenance of a note captured from another resource.
type RefSource struct {
	Title string
	URL   string
}

// FileResource is a plain file stored in a notebook directory.
type FileResource struct {
	Name      string
	URL       string
	SizeBytes int64
}
