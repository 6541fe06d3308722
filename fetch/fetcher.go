package fetch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hollis-dev/notemirror/auth"
	"github.com/hollis-dev/notemirror/log"
	"github.com/hollis-dev/notemirror/types"
)

// Pagination defaults matching the remote service's tolerances.
const (
	DefaultPageSize  = 20
	DefaultPageDelay = 500 * time.Millisecond
	DefaultRetries   = 2 // attempts per page = 1 + retries
	DefaultBackoff   = 2 * time.Second
)

// Config configures a Fetcher.
type Config struct {
	// Transport issues the page requests.
	Transport Transport
	// Guard gates every request on credential validity.
	Guard *auth.Guard
	// Logger receives per-page progress. Nil disables logging.
	Logger *log.Logger
	// PageDelay is the pause between consecutive page requests. It is
	// applied before every page except the first, on the fetch path only.
	PageDelay time.Duration
	// Retries is the number of extra attempts per page after a transient
	// failure. Negative disables retries.
	Retries int
	// Backoff is the fixed pause between attempts for the same page.
	Backoff time.Duration
	// MaxItems caps the total items yielded across all pages; the last
	// page is truncated so the total never exceeds it. Zero means no cap.
	MaxItems int

	// sleep is injected by tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// Fetcher drives cursor- and offset-based retrieval of remote collections,
// yielding a restartable sequence of pages.
type Fetcher struct {
	cfg Config
}

// New creates a Fetcher, filling config defaults.
func New(cfg Config) *Fetcher {
	if cfg.PageDelay == 0 {
		cfg.PageDelay = DefaultPageDelay
	}
	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	if cfg.sleep == nil {
		cfg.sleep = sleepCtx
	}
	return &Fetcher{cfg: cfg}
}

// Walk starts a paginated walk of spec from the given cursor.
// CursorStart begins at the first page; a cursor saved from a previous
// FetchError resumes where that run stopped.
func (f *Fetcher) Walk(spec CollectionSpec, start types.Cursor) *Walk {
	if spec.PageSize <= 0 {
		spec.PageSize = DefaultPageSize
	}
	return &Walk{f: f, spec: spec, cursor: start}
}

// Walk is an in-progress paginated walk. Not safe for concurrent use; the
// remote listing must be fetched sequentially to honor rate limits.
type Walk struct {
	f       *Fetcher
	spec    CollectionSpec
	cursor  types.Cursor
	pageNum int // pages successfully fetched in this walk
	fetched int // items yielded so far
	done    bool
}

// Cursor returns the continuation point of the next unfetched page. After a
// FetchError this is the resume point for a later run.
func (w *Walk) Cursor() types.Cursor { return w.cursor }

// Fetched returns the number of items yielded so far.
func (w *Walk) Fetched() int { return w.fetched }

// Next fetches the next page. It returns Done when the collection is
// exhausted or the item cap is reached. On credential expiry it returns an
// error matching auth.ErrCredentialExpired before any transport call is
// attempted for that page; on repeated transport failure it returns a
// *FetchError carrying the resumable cursor.
func (w *Walk) Next(ctx context.Context) (*types.Page, error) {
	if w.done {
		return nil, Done
	}

	cfg := w.f.cfg

	// Inter-request delay: before every page except the first.
	if w.pageNum > 0 {
		if err := cfg.sleep(ctx, cfg.PageDelay); err != nil {
			return nil, err
		}
	}

	// Credential check gates the page; its failure aborts the walk
	// rather than skipping the call.
	cred, err := cfg.Guard.EnsureValid()
	if err != nil {
		return nil, err
	}

	req, err := w.spec.BuildRequest(w.cursor, w.spec.PageSize)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	if req.Header == nil {
		req.Header = credHeaders(cred)
	} else {
		for k, vs := range credHeaders(cred) {
			req.Header[k] = vs
		}
	}

	page, err := w.fetchPage(ctx, req)
	if err != nil {
		return nil, err
	}

	w.pageNum++
	cfg.Logger.Debug("page fetched", map[string]any{
		"collection": w.spec.Name,
		"page":       w.pageNum,
		"items":      len(page.Items),
		"has_more":   page.HasMore,
	})

	// Cap check happens after each page, truncating the last page so the
	// total never exceeds the cap.
	if cfg.MaxItems > 0 {
		remaining := cfg.MaxItems - w.fetched
		if len(page.Items) >= remaining {
			page.Items = page.Items[:remaining]
			page.HasMore = false
			page.Next = types.CursorStart
			w.done = true
		}
	}
	w.fetched += len(page.Items)

	if w.done {
		return page, nil
	}

	// Advance the cursor. Offset-style collections increment their page
	// number here; cursor-style collections take the server's token.
	switch {
	case !page.HasMore:
		w.done = true
	case w.spec.Offset:
		w.cursor = types.Cursor(strconv.Itoa(w.currentPage() + 1))
	case page.Next == types.CursorStart:
		// Cursor-style with no continuation token: terminal.
		w.done = true
	default:
		w.cursor = page.Next
	}

	return page, nil
}

// currentPage derives the 1-based page number just fetched for offset-style
// collections.
func (w *Walk) currentPage() int {
	if w.cursor == types.CursorStart {
		return 1
	}
	n, err := strconv.Atoi(string(w.cursor))
	if err != nil {
		return w.pageNum
	}
	return n
}

// fetchPage issues one page request with bounded fixed-backoff retry.
func (w *Walk) fetchPage(ctx context.Context, req *Request) (*types.Page, error) {
	cfg := w.f.cfg
	attempts := 1 + cfg.Retries

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			cfg.Logger.Warn("retrying page", map[string]any{
				"collection": w.spec.Name,
				"cursor":     string(w.cursor),
				"attempt":    attempt + 1,
				"error":      lastErr.Error(),
			})
			if err := cfg.sleep(ctx, cfg.Backoff); err != nil {
				return nil, err
			}
		}

		resp, err := cfg.Transport.Send(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if retriable(err) {
				continue
			}
			break
		}

		// Server-side credential rejection is authoritative; it aborts
		// the walk regardless of attempts left.
		if authErr := auth.TranslateStatus(resp.Status); authErr != nil {
			return nil, authErr
		}
		if resp.Status < 200 || resp.Status >= 300 {
			lastErr = &HTTPError{Status: resp.Status, URL: req.URL}
			if retriable(lastErr) {
				continue
			}
			break
		}

		page, err := w.spec.ParsePage(resp.Body)
		if err != nil {
			// Malformed body is not transient.
			lastErr = err
			break
		}
		return page, nil
	}

	return nil, &FetchError{Cursor: w.cursor, Page: w.pageNum + 1, Err: lastErr}
}

// sleepCtx pauses for d or until ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
