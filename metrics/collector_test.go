package metrics

import (
	"sync"
	"testing"

	"github.com/hollis-dev/notemirror/types"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("notes", "fs", "run-001")

	c.IncPageFetched(20)
	c.IncPageFetched(5)
	c.IncPageRetry()
	c.IncItemSkipped()
	c.IncItemSkipped()
	c.IncItemCreated()
	c.IncItemUpdated()
	c.IncItemUpdated()
	c.IncItemUpdated()
	c.IncItemFailed()
	c.IncItemPartial()
	c.IncAttachmentDownloaded(1024)
	c.IncAttachmentDownloaded(2048)
	c.IncAttachmentSkipped()
	c.IncAttachmentFailed()

	s := c.Snapshot()

	if s.PagesFetched != 2 {
		t.Errorf("PagesFetched = %d, want 2", s.PagesFetched)
	}
	if s.ItemsFetched != 25 {
		t.Errorf("ItemsFetched = %d, want 25", s.ItemsFetched)
	}
	if s.PageRetries != 1 {
		t.Errorf("PageRetries = %d, want 1", s.PageRetries)
	}
	if s.ItemsSkipped != 2 {
		t.Errorf("ItemsSkipped = %d, want 2", s.ItemsSkipped)
	}
	if s.ItemsCreated != 1 {
		t.Errorf("ItemsCreated = %d, want 1", s.ItemsCreated)
	}
	if s.ItemsUpdated != 3 {
		t.Errorf("ItemsUpdated = %d, want 3", s.ItemsUpdated)
	}
	if s.ItemsFailed != 1 {
		t.Errorf("ItemsFailed = %d, want 1", s.ItemsFailed)
	}
	if s.ItemsPartial != 1 {
		t.Errorf("ItemsPartial = %d, want 1", s.ItemsPartial)
	}
	if s.AttachmentsDownloaded != 2 {
		t.Errorf("AttachmentsDownloaded = %d, want 2", s.AttachmentsDownloaded)
	}
	if s.BytesDownloaded != 3072 {
		t.Errorf("BytesDownloaded = %d, want 3072", s.BytesDownloaded)
	}
	if s.AttachmentsSkipped != 1 {
		t.Errorf("AttachmentsSkipped = %d, want 1", s.AttachmentsSkipped)
	}
	if s.AttachmentsFailed != 1 {
		t.Errorf("AttachmentsFailed = %d, want 1", s.AttachmentsFailed)
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("notebook-x", "s3", "run-42")
	s := c.Snapshot()

	if s.Collection != "notebook-x" {
		t.Errorf("Collection = %q, want %q", s.Collection, "notebook-x")
	}
	if s.StorageBackend != "s3" {
		t.Errorf("StorageBackend = %q, want %q", s.StorageBackend, "s3")
	}
	if s.RunID != "run-42" {
		t.Errorf("RunID = %q, want %q", s.RunID, "run-42")
	}
}

func TestCollector_Counts(t *testing.T) {
	c := NewCollector("notes", "fs", "run-001")
	c.IncPageFetched(10)
	c.IncItemSkipped()
	c.IncItemCreated()
	c.IncItemCreated()
	c.IncItemUpdated()
	c.IncItemFailed()
	c.IncItemPartial()

	counts := c.Counts()
	if counts.Fetched != 10 {
		t.Errorf("Fetched = %d, want 10", counts.Fetched)
	}
	if counts.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", counts.Skipped)
	}
	if counts.Created != 2 {
		t.Errorf("Created = %d, want 2", counts.Created)
	}
	if counts.Updated != 1 {
		t.Errorf("Updated = %d, want 1", counts.Updated)
	}
	if counts.Failed != 1 {
		t.Errorf("Failed = %d, want 1", counts.Failed)
	}
	if counts.Partial != 1 {
		t.Errorf("Partial = %d, want 1", counts.Partial)
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("notes", "fs", "run-001")
	c.IncItemCreated()

	s1 := c.Snapshot()

	c.IncItemCreated()
	c.IncItemCreated()

	if s1.ItemsCreated != 1 {
		t.Errorf("s1.ItemsCreated = %d, want 1 (snapshot should be frozen)", s1.ItemsCreated)
	}
	s2 := c.Snapshot()
	if s2.ItemsCreated != 3 {
		t.Errorf("s2.ItemsCreated = %d, want 3", s2.ItemsCreated)
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.IncPageFetched(10)
	c.IncPageRetry()
	c.IncItemSkipped()
	c.IncItemCreated()
	c.IncItemUpdated()
	c.IncItemFailed()
	c.IncItemPartial()
	c.IncAttachmentDownloaded(100)
	c.IncAttachmentSkipped()
	c.IncAttachmentFailed()

	s := c.Snapshot()
	if s.PagesFetched != 0 {
		t.Errorf("nil collector snapshot PagesFetched = %d, want 0", s.PagesFetched)
	}
	counts := c.Counts()
	if counts != (types.Counts{}) {
		t.Errorf("nil collector Counts = %+v, want zero", counts)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("notes", "fs", "run-001")
	const goroutines = 10
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for it := 0; it < iterations; it++ {
				c.IncItemCreated()
				c.IncAttachmentDownloaded(1)
				c.IncPageRetry()
			}
		}()
	}

	wg.Wait()

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	if s.ItemsCreated != want {
		t.Errorf("ItemsCreated = %d, want %d", s.ItemsCreated, want)
	}
	if s.AttachmentsDownloaded != want {
		t.Errorf("AttachmentsDownloaded = %d, want %d", s.AttachmentsDownloaded, want)
	}
	if s.PageRetries != want {
		t.Errorf("PageRetries = %d, want %d", s.PageRetries, want)
	}
}
