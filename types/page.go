package types

// Cursor is an opaque continuation token for paginated listings.
//
// The notes listing uses cursor-style continuation (the id of the last item
// on the previous page); notebook resource listings use 1-based page numbers.
// Both are carried as strings. A cursor issued by one run may be re-presented
// by a later run to resume an interrupted walk.
type Cursor string

// CursorStart is the cursor for the first page of a collection.
const CursorStart Cursor = ""

// Page is one slice of a remote collection listing. Pages are folded into
// the reconciliation stream and not retained.
type Page struct {
	// Items are the normalized records in server order.
	Items []RemoteItem
	// Next is the continuation cursor for the following page.
	Next Cursor
	// HasMore reports whether the server indicated further pages.
	HasMore bool
	// TotalHint is the server's total item count, or 0 if not reported.
	TotalHint int
	// Dirs are subdirectories discovered on this page. Only notebook
	// directory listings populate this, and only meaningfully on the
	// first page.
	Dirs []DirectoryRef
}
