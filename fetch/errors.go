package fetch

import (
	"errors"
	"fmt"

	"github.com/hollis-dev/notemirror/types"
)

// Done terminates a page walk normally: the collection has no more pages
// (or the item cap was reached). Use errors.Is(err, Done).
var Done = errors.New("no more pages")

// TransportError is a network-level failure: the request never produced an
// HTTP response. Retried with bounded backoff at the fetcher boundary.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response that is not an authentication rejection.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.URL)
}

// FetchError means one page could not be fetched after all retry attempts.
// It is fatal to the run but resumable: Cursor is the stable continuation
// point of the failed page, safe to re-present on a later run.
type FetchError struct {
	// Cursor is the continuation point of the page that failed.
	Cursor types.Cursor
	// Page is the 1-based page number within this walk.
	Page int
	// Err is the final underlying failure.
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed at page %d (cursor %q): %v", e.Page, e.Cursor, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// retriable reports whether a page attempt failure is worth retrying.
// Network failures and server-side errors are transient; everything else
// (parse errors, 4xx) fails the page immediately.
func retriable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status >= 500 || he.Status == 429
	}
	return false
}
