package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type eventMsg Event
type doneMsg struct{}

type transferModel struct {
	label  string
	events <-chan Event
	meter  *Meter
	stats  Stats
}

func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m transferModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m transferModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			os.Exit(130)
		}
	case eventMsg:
		m.meter.Observe(Event(msg))
		m.stats = m.meter.Snapshot()
		return m, waitForEvent(m.events)
	case doneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m transferModel) View() string {
	return formatLine(m.label, m.stats)
}

// Display renders events for one transfer until the channel closes. It
// blocks, so run the transfer on another goroutine and close the channel
// when it finishes.
func Display(w io.Writer, label string, events <-chan Event) {
	model := transferModel{label: label, events: events, meter: NewMeter()}
	program := tea.NewProgram(model, tea.WithOutput(w))
	if _, err := program.Run(); err != nil {
		// Without a usable terminal, drain events so the transfer side
		// never sees a wedged consumer.
		for range events {
		}
	}
}

func formatLine(label string, s Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s", label, formatBytes(s.BytesDone))
	if s.Total > 0 {
		fmt.Fprintf(&b, " / %s (%.1f%%)", formatBytes(s.Total), s.Percent)
	}
	if s.RateBps > 0 {
		fmt.Fprintf(&b, "  %s/s", formatBytes(int64(s.RateBps)))
	}
	if s.ETA > 0 {
		fmt.Fprintf(&b, "  ETA %s", formatETA(s.ETA))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func formatETA(d time.Duration) string {
	return d.Round(time.Second).String()
}
