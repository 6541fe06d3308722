package engine

import (
	"context"
	"errors"
	"time"

	"github.com/hollis-dev/notemirror/auth"
	"github.com/hollis-dev/notemirror/fetch"
	"github.com/hollis-dev/notemirror/log"
	"github.com/hollis-dev/notemirror/metrics"
	"github.com/hollis-dev/notemirror/types"
)

// planBuffer decouples page fetching from materialization so the
// inter-request delay overlaps disk and download work.
const planBuffer = 32

// PageSource yields pages until exhaustion. fetch.Walk satisfies it.
type PageSource interface {
	Next(ctx context.Context) (*types.Page, error)
	Cursor() types.Cursor
}

// RunnerConfig wires one sync run.
type RunnerConfig struct {
	Meta         types.RunMeta
	Source       PageSource
	Reconciler   *Reconciler
	Materializer *Materializer
	Collector    *metrics.Collector
	Observer     types.Observer
	Logger       *log.Logger
}

// Runner executes one sync run end to end: fetch, reconcile, materialize,
// report. A fetch goroutine feeds items to the run loop; reconciliation and
// materialization stay on one goroutine so manifest access is serial.
type Runner struct {
	cfg RunnerConfig
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.Meta.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &Runner{cfg: cfg}, nil
}

// fetchOutcome carries the fetch goroutine's terminal state. It is read only
// after the item channel closes, which orders it after the last write.
type fetchOutcome struct {
	err       error
	cursor    types.Cursor
	totalHint int
}

// Execute runs the pipeline to completion or abort. The returned report is
// never nil; its Status encodes how the run ended, and per-item failures are
// enumerated rather than folded into an error.
func (r *Runner) Execute(ctx context.Context) *types.RunReport {
	cfg := r.cfg
	start := time.Now()
	report := &types.RunReport{
		RunID:      cfg.Meta.RunID,
		Collection: cfg.Meta.Collection,
		Status:     types.StatusDone,
	}

	cfg.Logger.Info("run started", map[string]any{
		"collection": cfg.Meta.Collection,
	})

	msgs := make(chan fetchMsg, planBuffer)
	outcome := &fetchOutcome{}

	go r.fetchLoop(ctx, msgs, outcome)

	canceled := false
	for msg := range msgs {
		if canceled {
			continue // drain so the fetch goroutine can exit
		}
		if ctx.Err() != nil {
			canceled = true
			continue
		}
		if msg.page > 0 {
			r.emit(types.ProgressEvent{Kind: types.EventPageFetched, Page: msg.page})
			continue
		}
		r.processItem(ctx, msg.item, report)
	}

	switch {
	case canceled || errors.Is(outcome.err, context.Canceled):
		report.Status = types.StatusCanceled
	case outcome.err != nil:
		r.classifyFetchFailure(outcome, report)
	}

	report.Counts = cfg.Collector.Counts()
	report.TotalHint = outcome.totalHint
	report.Duration = time.Since(start)

	cfg.Logger.Info("run finished", map[string]any{
		"status":  string(report.Status),
		"created": report.Counts.Created,
		"updated": report.Counts.Updated,
		"skipped": report.Counts.Skipped,
		"failed":  report.Counts.Failed,
	})
	r.emit(types.ProgressEvent{Kind: types.EventRunFinished})
	return report
}

// fetchMsg is one unit from the fetch goroutine: a page boundary (page > 0)
// or an item. All observer emission happens on the consuming goroutine, so
// observers never need their own locking.
type fetchMsg struct {
	page int
	item types.RemoteItem
}

// fetchLoop pulls pages and feeds items downstream. It owns outcome until it
// closes the channel.
func (r *Runner) fetchLoop(ctx context.Context, msgs chan<- fetchMsg, outcome *fetchOutcome) {
	defer close(msgs)
	cfg := r.cfg
	page := 0
	for {
		p, err := cfg.Source.Next(ctx)
		if errors.Is(err, fetch.Done) {
			return
		}
		if err != nil {
			outcome.err = err
			outcome.cursor = cfg.Source.Cursor()
			return
		}

		page++
		cfg.Collector.IncPageFetched(len(p.Items))
		if p.TotalHint > 0 {
			outcome.totalHint = p.TotalHint
		}

		send := func(msg fetchMsg) bool {
			select {
			case msgs <- msg:
				return true
			case <-ctx.Done():
				outcome.err = ctx.Err()
				outcome.cursor = cfg.Source.Cursor()
				return false
			}
		}
		if !send(fetchMsg{page: page}) {
			return
		}
		for _, item := range p.Items {
			if !send(fetchMsg{item: item}) {
				return
			}
		}
	}
}

// processItem reconciles and, when needed, materializes one item.
func (r *Runner) processItem(ctx context.Context, item types.RemoteItem, report *types.RunReport) {
	cfg := r.cfg
	entry := cfg.Reconciler.Decide(item)
	title := itemTitle(item)

	switch entry.Action {
	case types.ActionSkip:
		cfg.Collector.IncItemSkipped()
		r.emit(types.ProgressEvent{Kind: types.EventItemSkipped, ItemID: item.ID, Title: title})
		return
	}

	misses, err := cfg.Materializer.Materialize(ctx, entry)
	if err != nil {
		cfg.Collector.IncItemFailed()
		report.Failures = append(report.Failures, types.ItemFailure{
			ItemID: item.ID,
			Title:  title,
			Stage:  "materialize",
			Cause:  err.Error(),
		})
		cfg.Logger.Error("item failed", map[string]any{
			"item_id": item.ID,
			"error":   err.Error(),
		})
		r.emit(types.ProgressEvent{Kind: types.EventItemFailed, ItemID: item.ID, Title: title, Cause: err.Error()})
		return
	}

	if len(misses) > 0 {
		cfg.Collector.IncItemPartial()
		report.Missing = append(report.Missing, misses...)
		for _, miss := range misses {
			r.emit(types.ProgressEvent{Kind: types.EventAttachmentMissed, ItemID: item.ID, Title: miss.Name, Cause: miss.Cause})
		}
	}

	switch entry.Action {
	case types.ActionCreate:
		cfg.Collector.IncItemCreated()
		r.emit(types.ProgressEvent{Kind: types.EventItemCreated, ItemID: item.ID, Title: title})
	case types.ActionUpdate:
		cfg.Collector.IncItemUpdated()
		r.emit(types.ProgressEvent{Kind: types.EventItemUpdated, ItemID: item.ID, Title: title})
	}
}

// classifyFetchFailure maps the fetch goroutine's terminal error onto the
// report. Credential expiry and fetch exhaustion are expected run outcomes,
// not programming errors, so they land in Status rather than panicking up.
func (r *Runner) classifyFetchFailure(outcome *fetchOutcome, report *types.RunReport) {
	var fetchErr *fetch.FetchError
	switch {
	case errors.Is(outcome.err, auth.ErrCredentialExpired):
		report.Status = types.StatusCredentialExpired
	case errors.As(outcome.err, &fetchErr):
		report.Status = types.StatusFetchFailed
		report.ResumeCursor = outcome.cursor
	default:
		report.Status = types.StatusFetchFailed
		report.ResumeCursor = outcome.cursor
	}
	report.Failures = append(report.Failures, types.ItemFailure{
		Stage: "fetch",
		Cause: outcome.err.Error(),
	})
}

func (r *Runner) emit(ev types.ProgressEvent) {
	if r.cfg.Observer == nil {
		return
	}
	ev.Counts = r.cfg.Collector.Counts()
	r.cfg.Observer(ev)
}

func itemTitle(item types.RemoteItem) string {
	if item.Note != nil {
		return item.Note.Title
	}
	if item.File != nil {
		return item.File.Name
	}
	return ""
}
