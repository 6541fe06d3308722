package fetch

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hollis-dev/notemirror/types"
)

// The remote payloads are loosely shaped: ids appear under two keys, images
// are either bare strings or objects, and the notebook API nests note
// records one level deeper. Normalization folds all of that into
// types.RemoteItem here, at the fetch boundary, so nothing downstream ever
// sees a raw API shape.

type rawTag struct {
	Name string `json:"name"`
}

type rawTopic struct {
	TopicName string `json:"topic_name"`
}

type rawAttachment struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Duration int64  `json:"duration"`
}

type rawResInfo struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// imageRef accepts both a bare URL string and an {"url": ...} object.
type imageRef struct {
	URL string
}

func (r *imageRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URL = s
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.URL = obj.URL
	return nil
}

type rawNote struct {
	NoteID        string          `json:"note_id"`
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	RefContent    string          `json:"ref_content"`
	Source        string          `json:"source"`
	NoteType      string          `json:"note_type"`
	EntryType     string          `json:"entry_type"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	EditTime      string          `json:"edit_time"`
	Version       int64           `json:"version"`
	IsAIGenerated bool            `json:"is_ai_generated"`
	Tags          []rawTag        `json:"tags"`
	Topics        []rawTopic      `json:"topics"`
	Attachments   []rawAttachment `json:"attachments"`
	OriginalImgs  []imageRef      `json:"original_images"`
	SmallImgs     []imageRef      `json:"small_images"`
	BodyImgs      []imageRef      `json:"body_images"`
	ResInfo       *rawResInfo     `json:"res_info"`
}

// identity returns the stable note id, preferring note_id over the listing
// id the way the service itself does.
func (n *rawNote) identity() string {
	if n.NoteID != "" {
		return n.NoteID
	}
	return n.ID
}

// updated returns the best available update timestamp.
func (n *rawNote) updated() string {
	if n.UpdatedAt != "" {
		return n.UpdatedAt
	}
	return n.EditTime
}

// normalizeNote folds a raw note payload into the canonical record.
func normalizeNote(raw json.RawMessage, kind types.ItemKind) (*types.RemoteItem, error) {
	var n rawNote
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("decode note: %w", err)
	}
	id := n.identity()
	if id == "" {
		return nil, fmt.Errorf("note record has no id")
	}

	note := &types.Note{
		ID:          id,
		Title:       n.Title,
		Content:     n.Content,
		RefContent:  n.RefContent,
		Source:      n.Source,
		NoteType:    n.NoteType,
		EntryType:   n.EntryType,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.updated(),
		Version:     n.Version,
		AIGenerated: n.IsAIGenerated,
		Raw:         raw,
	}
	for _, t := range n.Tags {
		if t.Name != "" {
			note.Tags = append(note.Tags, t.Name)
		}
	}
	for _, t := range n.Topics {
		if t.TopicName != "" {
			note.Topics = append(note.Topics, t.TopicName)
		}
	}
	for _, a := range n.Attachments {
		note.Attachments = append(note.Attachments, types.Attachment{
			URL:        a.URL,
			Type:       a.Type,
			Title:      a.Title,
			DurationMS: a.Duration,
		})
	}
	// Image variants are fallbacks of each other, highest fidelity first.
	for _, imgs := range [][]imageRef{n.OriginalImgs, n.SmallImgs, n.BodyImgs} {
		if len(imgs) == 0 {
			continue
		}
		for _, img := range imgs {
			if img.URL != "" {
				note.Images = append(note.Images, img.URL)
			}
		}
		break
	}
	if n.ResInfo != nil && (n.ResInfo.Title != "" || n.ResInfo.URL != "") {
		note.RefSource = &types.RefSource{Title: n.ResInfo.Title, URL: n.ResInfo.URL}
	}

	return &types.RemoteItem{
		ID:          id,
		Kind:        kind,
		Fingerprint: types.NewFingerprint(n.Version, note.UpdatedAt),
		UpdatedAt:   note.UpdatedAt,
		Note:        note,
	}, nil
}

// parseNotesPage decodes one page of the flat notes listing.
func parseNotesPage(body []byte) (*types.Page, error) {
	var envelope struct {
		C struct {
			List       []json.RawMessage `json:"list"`
			HasMore    bool              `json:"has_more"`
			TotalItems int               `json:"total_items"`
		} `json:"c"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse notes page: %w", err)
	}

	page := &types.Page{
		HasMore:   envelope.C.HasMore,
		TotalHint: envelope.C.TotalItems,
	}
	var lastListingID string
	for _, raw := range envelope.C.List {
		item, err := normalizeNote(raw, types.ItemKindNote)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *item)

		// since_id continuation uses the listing id, which may differ
		// from the stable note_id identity.
		var ids struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &ids); err == nil && ids.ID != "" {
			lastListingID = ids.ID
		}
	}
	if page.HasMore && lastListingID != "" {
		page.Next = types.Cursor(lastListingID)
	}
	return page, nil
}

type rawFileMeta struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	FileURL string `json:"file_url"`
	Size    int64  `json:"size"`
}

// parseNotebookPage decodes one page of a notebook directory listing.
// Resources split into NOTE and FILE kinds; unknown kinds are dropped.
// Subdirectories ride along in Page.Dirs for the engine's recursive walk.
func parseNotebookPage(body []byte) (*types.Page, error) {
	var envelope struct {
		C struct {
			Directories []struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"directories"`
			Resources []struct {
				ResourceType string          `json:"resource_type"`
				NoteMeta     json.RawMessage `json:"resource_note_meta_data"`
				FileMeta     *rawFileMeta    `json:"resource_file_meta_data"`
			} `json:"resources"`
			HasNext int `json:"has_next"`
		} `json:"c"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse notebook page: %w", err)
	}

	page := &types.Page{HasMore: envelope.C.HasNext != 0}
	for _, d := range envelope.C.Directories {
		page.Dirs = append(page.Dirs, types.DirectoryRef{ID: d.ID, Name: d.Name})
	}

	for _, res := range envelope.C.Resources {
		switch res.ResourceType {
		case "NOTE":
			if len(res.NoteMeta) == 0 {
				continue
			}
			item, err := normalizeNote(res.NoteMeta, types.ItemKindNotebookNote)
			if err != nil {
				return nil, err
			}
			page.Items = append(page.Items, *item)
		case "FILE":
			meta := res.FileMeta
			if meta == nil || meta.FileURL == "" {
				continue
			}
			id := strconv.FormatInt(meta.ID, 10)
			if meta.ID == 0 {
				id = meta.Name
			}
			page.Items = append(page.Items, types.RemoteItem{
				ID:          "file:" + id,
				Kind:        types.ItemKindFile,
				Fingerprint: types.NewFingerprint(meta.Size, meta.Name),
				File: &types.FileResource{
					Name:      meta.Name,
					URL:       meta.FileURL,
					SizeBytes: meta.Size,
				},
			})
		}
	}

	// Offset-style continuation: the fetcher increments the page number
	// itself, so Next stays empty here.
	return page, nil
}
