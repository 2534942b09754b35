package visualizer

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Source supplies the latest frequency magnitudes, one byte per bin.
type Source interface {
	Frequencies() []uint8
}

// FrameMsg asks the visualizer to pull and draw one frame. Frames carry the
// generation they were scheduled for; any other generation is ignored.
type FrameMsg struct {
	gen int
}

type Model struct {
	Width    int
	Height   int
	Interval time.Duration
	Style    lipgloss.Style

	src  Source
	gen  int
	bins []uint8
}

func New(width, height int, interval time.Duration) *Model {
	return &Model{
		Width:    width,
		Height:   height,
		Interval: interval,
		Style:    lipgloss.NewStyle().Foreground(lipgloss.Color("#2563EB")),
	}
}

// Active reports whether a frame is scheduled.
func (m *Model) Active() bool { return m.src != nil }

// Start begins the frame loop over src and returns the first tick.
func (m *Model) Start(src Source) tea.Cmd {
	m.gen++
	m.src = src
	m.bins = nil
	return m.tick()
}

// Stop cancels the loop; a tick already in flight is dropped on arrival.
func (m *Model) Stop() {
	m.gen++
	m.src = nil
	m.bins = nil
}

func (m *Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.Interval, func(time.Time) tea.Msg {
		return FrameMsg{gen: gen}
	})
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	f, ok := msg.(FrameMsg)
	if !ok || f.gen != m.gen || m.src == nil {
		return nil
	}
	m.bins = m.src.Frequencies()
	return m.tick()
}

func (m *Model) View() string {
	if m.src == nil || m.bins == nil {
		return ""
	}
	lines := Render(Layout(m.bins, m.Width, m.Height), m.Width, m.Height)
	return m.Style.Render(strings.Join(lines, "\n"))
}
