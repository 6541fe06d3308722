package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hollis-dev/notemirror/types"
)

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// EventMsg carries one run progress event into the model.
type EventMsg types.ProgressEvent

// FinishedMsg carries the final report and quits the program.
type FinishedMsg struct {
	Report *types.RunReport
}

// ProgressModel is the Bubble Tea model for a live sync run.
type ProgressModel struct {
	collection string
	spinner    spinner.Model
	width      int
	height     int

	counts    types.Counts
	page      int
	lastTitle string
	missed    int

	report   *types.RunReport
	quitting bool
}

// NewProgressModel creates a progress model for one collection sync.
func NewProgressModel(collection string) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return ProgressModel{
		collection: collection,
		spinner:    s,
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.report != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.counts = msg.Counts
		switch msg.Kind {
		case types.EventPageFetched:
			m.page = msg.Page
		case types.EventItemCreated, types.EventItemUpdated, types.EventItemSkipped:
			if msg.Title != "" {
				m.lastTitle = msg.Title
			}
		case types.EventItemFailed:
			m.lastTitle = msg.Title
		case types.EventAttachmentMissed:
			m.missed++
		}
		return m, nil

	case FinishedMsg:
		m.report = msg.Report
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	if m.quitting && m.report == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Syncing %s", m.collection)))
	b.WriteString("\n\n")

	if m.report == nil {
		status := "waiting for first page"
		if m.page > 0 {
			status = fmt.Sprintf("fetched page %d", m.page)
		}
		b.WriteString(fmt.Sprintf("%s %s\n\n", m.spinner.View(), ValueStyle.Render(status)))
	} else {
		status := string(m.report.Status)
		b.WriteString(fmt.Sprintf("%s %s\n\n",
			LabelStyle.Render("Status:"),
			StatusStyle(status).Render(status)))
	}

	boxes := []string{
		m.renderStatBox("Fetched", m.counts.Fetched, highlightColor),
		m.renderStatBox("Created", m.counts.Created, successColor),
		m.renderStatBox("Updated", m.counts.Updated, primaryColor),
		m.renderStatBox("Skipped", m.counts.Skipped, mutedColor),
		m.renderStatBox("Failed", m.counts.Failed, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n")

	if m.lastTitle != "" {
		b.WriteString(fmt.Sprintf("\n%s %s\n",
			LabelStyle.Render("Last item:"),
			ValueStyle.Render(m.lastTitle)))
	}

	if m.missed > 0 {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render(
			fmt.Sprintf("%d attachment(s) could not be downloaded; items marked partial", m.missed)))
		b.WriteString("\n")
	}

	if m.report != nil && m.report.ResumeCursor != "" {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render(
			fmt.Sprintf("Run again to resume from cursor %s", m.report.ResumeCursor)))
		b.WriteString("\n")
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return b.String() + "\n" + help
}

func (m ProgressModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// Progress is a handle to a running progress program. Observer events may be
// sent from any goroutine; Bubble Tea serializes delivery into Update.
type Progress struct {
	program *tea.Program
	done    chan error
}

// StartProgress launches the progress TUI for a collection sync. The caller
// must invoke Finish exactly once to stop the program.
func StartProgress(collection string) *Progress {
	p := tea.NewProgram(NewProgressModel(collection))
	pr := &Progress{
		program: p,
		done:    make(chan error, 1),
	}
	go func() {
		_, err := p.Run()
		pr.done <- err
	}()
	return pr
}

// Observer returns a run observer that feeds events into the TUI.
func (pr *Progress) Observer() types.Observer {
	return func(ev types.ProgressEvent) {
		pr.program.Send(EventMsg(ev))
	}
}

// Finish delivers the final report, waits for the program to exit, and
// returns any terminal error.
func (pr *Progress) Finish(report *types.RunReport) error {
	pr.program.Send(FinishedMsg{Report: report})
	return <-pr.done
}
