package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/promptbatch/internal/engine/batch"
)

// maxRecentErrors bounds the error list shown under the progress bar.
const maxRecentErrors = 5

// Default dimensions for the progress view.
const (
	progressDefaultWidth = 80
	progressBarPadding   = 4
	progressBarMaxWidth  = 60
)

// batchEventMsg wraps one queue event.
type batchEventMsg struct {
	event batch.Event
}

// eventsClosedMsg reports that the event channel was closed.
type eventsClosedMsg struct{}

// ProgressState is the lifecycle of the progress view.
type ProgressState int

const (
	// ProgressStateRunning means rows are still being processed.
	ProgressStateRunning ProgressState = iota
	// ProgressStateStopping means an interrupt was requested.
	ProgressStateStopping
	// ProgressStateDone means the batch completed, failed or stopped.
	ProgressStateDone
)

// rowError is one line of the recent errors list.
type rowError struct {
	rowID   string
	status  string
	message string
}

// ProgressModel is the Bubble Tea model for a running batch.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type ProgressModel struct {
	batchID string
	events  <-chan batch.Event
	onStop  func()

	bar      progress.Model
	progress batch.Progress
	state    ProgressState

	succeeded int
	failed    int
	cost      float64
	recent    []rowError

	summary *batch.Summary
	outcome batch.Event

	width int
}

// NewProgressModel returns a model that consumes events until the channel
// closes. onStop runs once when the user presses q or ctrl+c; it should
// request a graceful stop and must not block.
func NewProgressModel(batchID string, total int, events <-chan batch.Event, onStop func()) ProgressModel {
	return ProgressModel{
		batchID:  batchID,
		events:   events,
		onStop:   onStop,
		bar:      progress.New(progress.WithDefaultGradient()),
		progress: batch.Progress{Total: total},
		width:    progressDefaultWidth,
	}
}

// Init starts listening for events.
func (m ProgressModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events <-chan batch.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return batchEventMsg{event: e}
	}
}

// Update applies events and key presses.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.state == ProgressStateRunning {
				m.state = ProgressStateStopping
				if m.onStop != nil {
					m.onStop()
				}
			}
		}
		return m, nil

	case eventsClosedMsg:
		m.state = ProgressStateDone
		return m, tea.Quit

	case batchEventMsg:
		m.apply(msg.event)
		return m, waitForEvent(m.events)
	}

	return m, nil
}

func (m *ProgressModel) apply(e batch.Event) {
	switch ev := e.(type) {
	case batch.ProgressEvent:
		m.progress = ev.Progress
	case batch.RowDoneEvent:
		if ev.Result.Status.IsError() {
			m.failed++
		} else {
			m.succeeded++
		}
		if ev.Result.CostUSD != nil {
			m.cost += *ev.Result.CostUSD
		}
	case batch.RowErrorEvent:
		m.recent = append(m.recent, rowError{rowID: ev.RowID, status: string(ev.Status), message: ev.Message})
		if len(m.recent) > maxRecentErrors {
			m.recent = m.recent[len(m.recent)-maxRecentErrors:]
		}
	case batch.SummaryEvent:
		s := ev.Summary
		m.summary = &s
	case batch.CompleteEvent, batch.FailedEvent, batch.StoppedEvent:
		m.outcome = e
		m.state = ProgressStateDone
	}
}

// State returns the current lifecycle state.
func (m ProgressModel) State() ProgressState {
	return m.state
}

// Summary returns the summary once the batch drained, or nil.
func (m ProgressModel) Summary() *batch.Summary {
	return m.summary
}

// View renders the progress bar, counters and recent errors.
func (m ProgressModel) View() string {
	titleStyle := lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(ColorLabel)
	valueStyle := lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(ColorError)
	muted := lipgloss.NewStyle().Foreground(ColorMuted)

	barWidth := m.width - progressBarPadding
	if barWidth > progressBarMaxWidth {
		barWidth = progressBarMaxWidth
	}
	m.bar.Width = barWidth

	var b strings.Builder
	b.WriteString(titleStyle.Render("Batch " + m.batchID))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.progress.Percentage / 100))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
		labelStyle.Render("rows"),
		valueStyle.Render(fmt.Sprintf("%s/%s", FormatCount(int64(m.progress.Current)), FormatCount(int64(m.progress.Total)))),
		labelStyle.Render("eta"),
		valueStyle.Render(FormatETA(m.progress.ETASeconds)),
		labelStyle.Render("cost"),
		valueStyle.Render(FormatCost(m.cost)),
	)
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		labelStyle.Render("ok"),
		lipgloss.NewStyle().Foreground(ColorOK).Render(FormatCount(int64(m.succeeded))),
		labelStyle.Render("errors"),
		errStyle.Render(FormatCount(int64(m.failed))),
	)

	if len(m.recent) > 0 {
		b.WriteString("\n")
		for _, re := range m.recent {
			fmt.Fprintf(&b, "%s %s %s\n",
				errStyle.Render("✗"), valueStyle.Render(re.rowID), muted.Render(re.status+": "+truncate(re.message, 60)))
		}
	}

	b.WriteString("\n")
	b.WriteString(muted.Render(m.footer()))
	b.WriteString("\n")
	return b.String()
}

func (m ProgressModel) footer() string {
	switch ev := m.outcome.(type) {
	case batch.CompleteEvent:
		return "Completed."
	case batch.FailedEvent:
		return fmt.Sprintf("Failed: %d of %d rows had no credential.", ev.CriticalErrorCount, ev.TotalRows)
	case batch.StoppedEvent:
		return fmt.Sprintf("Stopped after %d of %d rows. Resume with: promptbatch resume %s",
			ev.Processed, ev.Total, ev.BatchID)
	}
	if m.state == ProgressStateStopping {
		return "Stopping: waiting for in-flight rows..."
	}
	return "q: stop and save"
}
