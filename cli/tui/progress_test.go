package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hollis-dev/notemirror/types"
)

func TestProgressModel_EventUpdatesCounts(t *testing.T) {
	m := NewProgressModel("notes")

	updated, _ := m.Update(EventMsg{
		Kind:   types.EventItemCreated,
		ItemID: "n1",
		Title:  "First Note",
		Counts: types.Counts{Fetched: 3, Created: 1},
	})
	m = updated.(ProgressModel)

	if m.counts.Created != 1 || m.counts.Fetched != 3 {
		t.Errorf("counts not updated: %+v", m.counts)
	}
	if m.lastTitle != "First Note" {
		t.Errorf("expected lastTitle=First Note, got %q", m.lastTitle)
	}
}

func TestProgressModel_PageFetchedTracksPage(t *testing.T) {
	m := NewProgressModel("notes")

	updated, _ := m.Update(EventMsg{Kind: types.EventPageFetched, Page: 4})
	m = updated.(ProgressModel)

	if m.page != 4 {
		t.Errorf("expected page=4, got %d", m.page)
	}
	view := m.View()
	if !strings.Contains(view, "fetched page 4") {
		t.Errorf("view should show page status: %s", view)
	}
}

func TestProgressModel_AttachmentMissShowsWarning(t *testing.T) {
	m := NewProgressModel("notes")

	updated, _ := m.Update(EventMsg{Kind: types.EventAttachmentMissed, ItemID: "n1"})
	m = updated.(ProgressModel)

	view := m.View()
	if !strings.Contains(view, "1 attachment(s)") {
		t.Errorf("view should warn about missed attachments: %s", view)
	}
}

func TestProgressModel_FinishQuits(t *testing.T) {
	m := NewProgressModel("notes")

	report := &types.RunReport{
		Status: types.StatusDone,
		Counts: types.Counts{Fetched: 10, Created: 10},
	}
	updated, cmd := m.Update(FinishedMsg{Report: report})
	m = updated.(ProgressModel)

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("expected tea.Quit, got %T", msg)
	}

	view := m.View()
	if !strings.Contains(view, "done") {
		t.Errorf("final view should show status: %s", view)
	}
}

func TestProgressModel_FetchFailedShowsResumeHint(t *testing.T) {
	m := NewProgressModel("notes")

	report := &types.RunReport{
		Status:       types.StatusFetchFailed,
		ResumeCursor: "l39",
	}
	updated, _ := m.Update(FinishedMsg{Report: report})
	m = updated.(ProgressModel)

	view := m.View()
	if !strings.Contains(view, "fetch_failed") {
		t.Errorf("view should show fetch_failed status: %s", view)
	}
	if !strings.Contains(view, "l39") {
		t.Errorf("view should show resume cursor: %s", view)
	}
}

func TestProgressModel_QuitKey(t *testing.T) {
	m := NewProgressModel("notes")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(ProgressModel)

	if cmd == nil {
		t.Fatal("expected quit command on ctrl+c")
	}
	if !m.quitting {
		t.Error("expected quitting=true")
	}
	if m.View() != "" {
		t.Error("quitting view should be empty before report arrives")
	}
}

func TestProgressModel_ViewContainsCollection(t *testing.T) {
	m := NewProgressModel("my-notebook")
	if !strings.Contains(m.View(), "my-notebook") {
		t.Error("view should contain collection name")
	}
}
