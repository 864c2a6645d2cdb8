// Package tui renders a live terminal view of the telemetry stream while an
// acquisition is running.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/emtz/motorlab/internal/serialio"
	"github.com/emtz/motorlab/internal/telemetry"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// plottable skips the time channel; plotting seconds against themselves is
// never useful.
var plottable = []telemetry.Channel{
	telemetry.ChanPowerA,
	telemetry.ChanPowerB,
	telemetry.ChanSensor1,
	telemetry.ChanSensor2,
}

type Live struct {
	ring   *telemetry.Ring
	reader *serialio.Reader

	channel int // index into plottable
	paused  bool
	frozen  []float64

	width  int
	height int
}

func NewLive(ring *telemetry.Ring, reader *serialio.Reader) *Live {
	return &Live{
		ring:   ring,
		reader: reader,
		width:  80,
		height: 24,
	}
}

func (m *Live) Init() tea.Cmd { return tick() }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
			if m.paused {
				m.frozen = m.ring.Window(plottable[m.channel], m.ring.Len())
			} else {
				m.frozen = nil
			}
		case "tab", "right", "l":
			m.channel = (m.channel + 1) % len(plottable)
			m.frozen = nil
			m.paused = false
		case "left", "h":
			m.channel = (m.channel + len(plottable) - 1) % len(plottable)
			m.frozen = nil
			m.paused = false
		case "1", "2", "3", "4":
			m.channel = int(msg.String()[0] - '1')
			m.frozen = nil
			m.paused = false
		case "c":
			m.ring.Clear()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m *Live) View() string {
	var sb strings.Builder

	ch := plottable[m.channel]
	sb.WriteString(cyan.Render("motorlab live"))
	sb.WriteString(dim.Render("  |  "))
	sb.WriteString(white.Render(ch.String()))
	if m.paused {
		sb.WriteString(yellow.Render("  [paused]"))
	}
	sb.WriteString("\n\n")

	plotWidth := m.width - 12
	if plotWidth < 20 {
		plotWidth = 20
	}
	plotHeight := m.height - 8
	if plotHeight < 5 {
		plotHeight = 5
	}
	if plotHeight > 15 {
		plotHeight = 15
	}

	series := m.frozen
	if !m.paused {
		series = m.ring.Window(ch, plotWidth)
	} else if len(series) > plotWidth {
		series = series[len(series)-plotWidth:]
	}
	if len(series) < 2 {
		sb.WriteString(dim.Render("waiting for samples..."))
		sb.WriteString("\n")
	} else {
		sb.WriteString(asciigraph.Plot(series,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Precision(1),
		))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")
	sb.WriteString(dim.Render("tab/1-4 channel  space pause  c clear  q quit"))
	sb.WriteString("\n")
	return sb.String()
}

func (m *Live) statusLine() string {
	parts := []string{
		fmt.Sprintf("samples %s", green.Render(fmt.Sprintf("%d", m.ring.Len()))),
		fmt.Sprintf("total %s", white.Render(fmt.Sprintf("%d", m.ring.Total()))),
		fmt.Sprintf("buffer %s", dim.Render(fmt.Sprintf("%d B", m.ring.MemoryFootprint()))),
	}
	if m.reader != nil {
		dropped := m.reader.Dropped()
		style := dim
		if dropped > 0 {
			style = red
		}
		parts = append(parts, fmt.Sprintf("dropped %s", style.Render(fmt.Sprintf("%d", dropped))))
	}
	if snap := m.ring.Snapshot(1); len(snap) == 1 {
		parts = append(parts, fmt.Sprintf("t=%s", yellow.Render(fmt.Sprintf("%.2fs", snap[0].Time))))
	}
	return strings.Join(parts, dim.Render("  |  "))
}

// Run blocks until the user quits the view.
func Run(ring *telemetry.Ring, reader *serialio.Reader) error {
	p := tea.NewProgram(NewLive(ring, reader), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
