package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const scanTickInterval = 100 * time.Millisecond

// FoundMsg reports how many bulbs have answered so far
type FoundMsg int

// ScanDoneMsg ends the scan display
type ScanDoneMsg struct{}

type scanTickMsg time.Time

// ScanModel is the Bubble Tea model shown while a scan runs: a spinner, the
// running bulb count and a bar filling up over the scan timeout.
type ScanModel struct {
	spinner spinner.Model
	bar     progress.Model
	timeout time.Duration
	started time.Time
	now     func() time.Time
	found   int
	done    bool
	aborted bool
}

// NewScanModel creates a scan model for a scan lasting timeout
func NewScanModel(timeout time.Duration) ScanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return ScanModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		timeout: timeout,
		started: time.Now(),
		now:     time.Now,
	}
}

func scanTick() tea.Cmd {
	return tea.Tick(scanTickInterval, func(t time.Time) tea.Msg {
		return scanTickMsg(t)
	})
}

// Init implements tea.Model
func (m ScanModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, scanTick())
}

// Update implements tea.Model
func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FoundMsg:
		m.found = int(msg)
		return m, nil

	case ScanDoneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-30, 20), 50)
		return m, nil

	case scanTickMsg:
		if m.done {
			return m, nil
		}
		return m, scanTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Percent is the share of the timeout elapsed, capped at 1
func (m ScanModel) Percent() float64 {
	if m.timeout <= 0 {
		return 1
	}
	return min(float64(m.now().Sub(m.started))/float64(m.timeout), 1)
}

// Found returns the last reported bulb count
func (m ScanModel) Found() int {
	return m.found
}

// Aborted reports whether the user quit before the scan finished
func (m ScanModel) Aborted() bool {
	return m.aborted
}

// View implements tea.Model
func (m ScanModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	noun := "bulbs"
	if m.found == 1 {
		noun = "bulb"
	}
	return fmt.Sprintf("  %s %s  %s\n\n  %s\n",
		m.spinner.View(),
		ScanLabelStyle.Render("Scanning for LIFX bulbs..."),
		TableMutedCellStyle.Render(fmt.Sprintf("%d %s found", m.found, noun)),
		m.bar.ViewAs(m.Percent()),
	)
}

// ScanOperation performs the scan, calling found as bulbs answer
type ScanOperation func(ctx context.Context, found func(n int)) error

// RunScan runs op while showing the scan model on out. When out is not a
// terminal op runs without any animation. Quitting the display cancels op.
func RunScan(ctx context.Context, out io.Writer, timeout time.Duration, op ScanOperation) error {
	if !IsTerminal(out) {
		return op(ctx, func(int) {})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewScanModel(timeout), tea.WithOutput(out))

	errCh := make(chan error, 1)
	go func() {
		errCh <- op(ctx, func(n int) { p.Send(FoundMsg(n)) })
		p.Send(ScanDoneMsg{})
	}()

	final, runErr := p.Run()
	if m, ok := final.(ScanModel); runErr != nil || (ok && m.Aborted()) {
		cancel()
	}

	opErr := <-errCh
	if runErr != nil {
		return fmt.Errorf("scan display: %w", runErr)
	}
	if m, ok := final.(ScanModel); ok && m.Aborted() {
		return context.Canceled
	}
	return opErr
}
