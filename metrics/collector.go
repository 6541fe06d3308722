// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single sync run. It is a leaf
// package with no internal dependencies beyond types. All increment methods
// are nil-receiver safe so callers never need to guard a disabled collector.
package metrics

import (
	"sync"

	"github.com/hollis-dev/notemirror/types"
)

// Snapshot is an immutable point-in-time view of all run metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Fetch
	PagesFetched int64
	PageRetries  int64
	ItemsFetched int64

	// Reconciliation and materialization
	ItemsSkipped int64
	ItemsCreated int64
	ItemsUpdated int64
	ItemsFailed  int64
	ItemsPartial int64

	// Attachments
	AttachmentsDownloaded int64
	AttachmentsSkipped    int64
	AttachmentsFailed     int64
	BytesDownloaded       int64

	// Dimensions (informational, set at construction)
	Collection     string
	StorageBackend string
	RunID          string
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	pagesFetched int64
	pageRetries  int64
	itemsFetched int64

	itemsSkipped int64
	itemsCreated int64
	itemsUpdated int64
	itemsFailed  int64
	itemsPartial int64

	attachmentsDownloaded int64
	attachmentsSkipped    int64
	attachmentsFailed     int64
	bytesDownloaded       int64

	collection     string
	storageBackend string
	runID          string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(collection, storageBackend, runID string) *Collector {
	return &Collector{
		collection:     collection,
		storageBackend: storageBackend,
		runID:          runID,
	}
}

// --- Fetch ---

// IncPageFetched records a successfully fetched page and its item count.
func (c *Collector) IncPageFetched(items int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pagesFetched++
	c.itemsFetched += int64(items)
	c.mu.Unlock()
}

// IncPageRetry records a page attempt that had to be retried.
func (c *Collector) IncPageRetry() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pageRetries++
	c.mu.Unlock()
}

// --- Materialization ---

// IncItemSkipped records an item skipped as unchanged.
func (c *Collector) IncItemSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsSkipped++
	c.mu.Unlock()
}

// IncItemCreated records a newly materialized item.
func (c *Collector) IncItemCreated() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsCreated++
	c.mu.Unlock()
}

// IncItemUpdated records a re-materialized changed item.
func (c *Collector) IncItemUpdated() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsUpdated++
	c.mu.Unlock()
}

// IncItemFailed records an item whose materialization failed entirely.
func (c *Collector) IncItemFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsFailed++
	c.mu.Unlock()
}

// IncItemPartial records an item written with missing attachments.
func (c *Collector) IncItemPartial() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsPartial++
	c.mu.Unlock()
}

// --- Attachments ---

// IncAttachmentDownloaded records a downloaded attachment and its size.
func (c *Collector) IncAttachmentDownloaded(bytes int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.attachmentsDownloaded++
	c.bytesDownloaded += bytes
	c.mu.Unlock()
}

// IncAttachmentSkipped records an attachment already present on disk.
func (c *Collector) IncAttachmentSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.attachmentsSkipped++
	c.mu.Unlock()
}

// IncAttachmentFailed records an attachment download failure.
func (c *Collector) IncAttachmentFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.attachmentsFailed++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		PagesFetched: c.pagesFetched,
		PageRetries:  c.pageRetries,
		ItemsFetched: c.itemsFetched,

		ItemsSkipped: c.itemsSkipped,
		ItemsCreated: c.itemsCreated,
		ItemsUpdated: c.itemsUpdated,
		ItemsFailed:  c.itemsFailed,
		ItemsPartial: c.itemsPartial,

		AttachmentsDownloaded: c.attachmentsDownloaded,
		AttachmentsSkipped:    c.attachmentsSkipped,
		AttachmentsFailed:     c.attachmentsFailed,
		BytesDownloaded:       c.bytesDownloaded,

		Collection:     c.collection,
		StorageBackend: c.storageBackend,
		RunID:          c.runID,
	}
}

// Counts folds the snapshot into the report's counter set.
func (c *Collector) Counts() types.Counts {
	s := c.Snapshot()
	return types.Counts{
		Fetched: s.ItemsFetched,
		Skipped: s.ItemsSkipped,
		Created: s.ItemsCreated,
		Updated: s.ItemsUpdated,
		Failed:  s.ItemsFailed,
		Partial: s.ItemsPartial,
	}
}
