package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hollis-dev/notemirror/auth"
	"github.com/hollis-dev/notemirror/types"
)

// Service endpoints. The notes API and the knowledge-base (notebook) API
// live on different hosts.
const (
	DefaultNotesBaseURL     = "https://get-notes.luojilab.com"
	DefaultKnowledgeBaseURL = "https://knowledge-api.trytalks.com"

	notesPath         = "/voicenotes/web/notes"
	notebookListPath  = "/v1/web/topic/mine/list"
	notebookItemsPath = "/v1/web/topic/resource/list/mix"
)

// knowledgeHeaders are extra fixed headers the knowledge API requires.
var knowledgeHeaders = map[string]string{
	"X-Appid":        "3",
	"X-Av":           "1.2.2",
	"Sec-Fetch-Dest": "empty",
	"Sec-Fetch-Mode": "cors",
	"Sec-Fetch-Site": "cross-site",
}

// Client builds requests for and parses responses from the note service.
// It holds no connection state; all I/O goes through a Transport.
type Client struct {
	notesBaseURL     string
	knowledgeBaseURL string
}

// NewClient creates a client for the production endpoints.
func NewClient() *Client {
	return &Client{
		notesBaseURL:     DefaultNotesBaseURL,
		knowledgeBaseURL: DefaultKnowledgeBaseURL,
	}
}

// NewClientWithBaseURLs creates a client against custom endpoints (tests,
// mirrors).
func NewClientWithBaseURLs(notes, knowledge string) *Client {
	return &Client{notesBaseURL: notes, knowledgeBaseURL: knowledge}
}

// CollectionSpec describes one paginated remote listing: how to build the
// request for a cursor and how to parse the response into a Page. The
// fetcher drives it; specs stay pure and independently testable.
type CollectionSpec struct {
	// Name identifies the collection ("notes", "notebook/<alias>/<dir>").
	Name string
	// PageSize is the per-page item count requested from the server.
	PageSize int
	// Offset marks offset-style pagination: cursors are 1-based page
	// numbers that the fetcher increments itself. Cursor-style specs
	// leave this false and return the continuation in Page.Next.
	Offset bool
	// BuildRequest constructs the unauthenticated request for one page.
	// The fetcher injects credential headers before sending.
	BuildRequest func(cursor types.Cursor, pageSize int) (*Request, error)
	// ParsePage decodes a response body into a normalized Page.
	ParsePage func(body []byte) (*types.Page, error)
}

// Notes returns the spec for the flat notes listing. Continuation is
// cursor-style: since_id carries the listing id of the last item on the
// previous page, and the server accepts re-issued values, so an interrupted
// walk is resumable across runs.
func (c *Client) Notes() CollectionSpec {
	return CollectionSpec{
		Name: "notes",
		BuildRequest: func(cursor types.Cursor, pageSize int) (*Request, error) {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(pageSize))
			q.Set("since_id", string(cursor))
			q.Set("sort", "create_desc")
			return &Request{URL: c.notesBaseURL + notesPath, Query: q}, nil
		},
		ParsePage: parseNotesPage,
	}
}

// NotebookResources returns the spec for one notebook directory's resource
// listing. Continuation is offset-style: 1-based page numbers, inherently
// resumable.
func (c *Client) NotebookResources(idAlias string, directoryID int64) CollectionSpec {
	return CollectionSpec{
		Name:   fmt.Sprintf("notebook/%s/%d", idAlias, directoryID),
		Offset: true,
		BuildRequest: func(cursor types.Cursor, pageSize int) (*Request, error) {
			page := 1
			if cursor != types.CursorStart {
				n, err := strconv.Atoi(string(cursor))
				if err != nil {
					return nil, fmt.Errorf("invalid page cursor %q: %w", cursor, err)
				}
				page = n
			}
			q := url.Values{}
			q.Set("topic_id", "-1")
			q.Set("topic_id_alias", idAlias)
			q.Set("directory_id", strconv.FormatInt(directoryID, 10))
			q.Set("sort", "create_time_desc")
			q.Set("resource_type", "0")
			q.Set("page", strconv.Itoa(page))
			req := &Request{URL: c.knowledgeBaseURL + notebookItemsPath, Query: q, Header: http.Header{}}
			for k, v := range knowledgeHeaders {
				req.Header.Set(k, v)
			}
			return req, nil
		},
		ParsePage: parseNotebookPage,
	}
}

// ListNotebooks fetches the user's notebooks. This is a single
// unpaginated call, so it bypasses the fetcher but keeps the same
// credential-rejection translation.
func (c *Client) ListNotebooks(ctx context.Context, transport Transport, cred *types.Credential) ([]types.Notebook, error) {
	req := &Request{URL: c.knowledgeBaseURL + notebookListPath, Header: credHeaders(cred)}
	for k, v := range knowledgeHeaders {
		req.Header.Set(k, v)
	}

	resp, err := transport.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if authErr := auth.TranslateStatus(resp.Status); authErr != nil {
		return nil, authErr
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, &HTTPError{Status: resp.Status, URL: req.URL}
	}

	var envelope struct {
		C []struct {
			ID      int64  `json:"id"`
			IDAlias string `json:"id_alias"`
			Name    string `json:"name"`
			RootDir struct {
				ID int64 `json:"id"`
			} `json:"root_dir"`
			ExtendData struct {
				AllResourceCount int `json:"all_resource_count"`
			} `json:"extend_data"`
		} `json:"c"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("parse notebook list: %w", err)
	}

	notebooks := make([]types.Notebook, 0, len(envelope.C))
	for _, nb := range envelope.C {
		notebooks = append(notebooks, types.Notebook{
			ID:            nb.ID,
			IDAlias:       nb.IDAlias,
			Name:          nb.Name,
			RootDirID:     nb.RootDir.ID,
			ResourceCount: nb.ExtendData.AllResourceCount,
		})
	}
	return notebooks, nil
}
