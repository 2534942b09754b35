package main

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quicktranslator/audio"
	"quicktranslator/clipboard"
	"quicktranslator/lang"
	"quicktranslator/log"
	"quicktranslator/settings"
	"quicktranslator/visualizer"
	"quicktranslator/workflow"
)

type inputMode int

const (
	modeText inputMode = iota
	modeVoice
)

func (m inputMode) String() string {
	if m == modeVoice {
		return "voice"
	}
	return "text"
}

const (
	copiedFor      = 2 * time.Second
	noVoiceWindow  = 3 * time.Second
	inputCharLimit = 5000
	vizHeight      = 6
)

type copiedExpiredMsg struct{ gen int }

type keyMap struct {
	Quit      key.Binding
	Source    key.Binding
	Target    key.Binding
	Swap      key.Binding
	Mode      key.Binding
	Translate key.Binding
	Record    key.Binding
	Back      key.Binding
	Settings  key.Binding
	Copy      key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Source:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "source")),
	Target:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "target")),
	Swap:      key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "swap")),
	Mode:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "text/voice")),
	Translate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "translate")),
	Record:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "record")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Settings:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "settings")),
	Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB"))
	pairStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	outputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	copiedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	activeTab    = lipgloss.NewStyle().Bold(true).Underline(true)
	paneStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

type tuiDeps struct {
	ctrl     *workflow.Controller
	store    *settings.Store
	analyzer *audio.Analyzer
	settings settings.Settings
	pair     lang.Pair
	frame    time.Duration
	status   string
	copy     func(string) error
}

type tuiModel struct {
	ctrl     *workflow.Controller
	store    *settings.Store
	analyzer *audio.Analyzer
	copy     func(string) error

	settings settings.Settings
	pair     lang.Pair
	mode     inputMode
	snap     workflow.Snapshot
	status   string
	frame    time.Duration

	input   textarea.Model
	draft   textarea.Model
	spinner spinner.Model
	viz     *visualizer.Model
	panel   *settingsPanel

	copied    bool
	copiedGen int
	silence   *audio.SilenceMonitor
	flash     string
	width     int
	height    int
}

func newTextArea(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = inputCharLimit
	ta.SetHeight(5)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	return ta
}

func newTUIModel(d tuiDeps) tuiModel {
	if d.copy == nil {
		d.copy = clipboard.Copy
	}
	m := tuiModel{
		ctrl:     d.ctrl,
		store:    d.store,
		analyzer: d.analyzer,
		copy:     d.copy,
		settings: d.settings,
		pair:     d.pair.Normalize(),
		status:   d.status,
		frame:    d.frame,
		input:    newTextArea("Type text to translate"),
		draft:    newTextArea("Transcript"),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		viz:      visualizer.New(60, vizHeight, d.frame),
	}
	m.input.Focus()
	return m
}

func NewTUIProgram(d tuiDeps) *tea.Program {
	return tea.NewProgram(newTUIModel(d), tea.WithAltScreen())
}

func (m tuiModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m tuiModel) params() workflow.Params {
	return workflow.Params{Settings: m.settings, Pair: m.pair}
}

func (m tuiModel) canTranslate(text string) bool {
	return m.settings.HasAPIKey() && strings.TrimSpace(text) != "" && !m.snap.Busy
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w := max(msg.Width-4, 20)
		m.input.SetWidth(w)
		m.draft.SetWidth(w)
		m.viz.Width = w
		if m.panel != nil {
			m.panel.apiKey.Width = max(w-12, 10)
		}
		return m, nil

	case snapshotMsg:
		return m.applySnapshot(workflow.Snapshot(msg))

	case visualizer.FrameMsg:
		if m.analyzer != nil && m.silence != nil && m.snap.State == workflow.Recording {
			m.silence.Tick(m.analyzer.Level() >= audio.SpeechLevel)
		}
		return m, m.viz.Update(msg)

	case spinner.TickMsg:
		if !m.snap.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case copiedExpiredMsg:
		if msg.gen == m.copiedGen {
			m.copied = false
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		if m.panel != nil {
			return m.updatePanel(msg)
		}
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

// forward hands anything unhandled to the focused text area.
func (m tuiModel) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.panel != nil:
		m.panel.apiKey, cmd = m.panel.apiKey.Update(msg)
	case m.mode == modeVoice && m.snap.State == workflow.ReviewingTranscript:
		m.draft, cmd = m.draft.Update(msg)
	case m.mode == modeText:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m tuiModel) applySnapshot(snap workflow.Snapshot) (tea.Model, tea.Cmd) {
	if snap.Seq <= m.snap.Seq {
		return m, nil
	}
	prev := m.snap
	m.snap = snap
	m.flash = ""

	var cmds []tea.Cmd
	if snap.State == workflow.Recording && prev.State != workflow.Recording {
		m.silence = audio.NewSilenceMonitor(m.frame, noVoiceWindow)
		if m.analyzer != nil {
			cmds = append(cmds, m.viz.Start(m.analyzer))
		}
	}
	if snap.State != workflow.Recording && m.viz.Active() {
		m.viz.Stop()
	}
	if snap.State == workflow.ReviewingTranscript && prev.State != workflow.ReviewingTranscript {
		m.draft.SetValue(snap.Draft.Text)
		m.draft.Focus()
	}
	if snap.Busy && !prev.Busy {
		cmds = append(cmds, m.spinner.Tick)
	}
	if snap.State != workflow.ShowingResult {
		m.copied = false
	}
	return m, tea.Batch(cmds...)
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	reviewing := m.mode == modeVoice && m.snap.State == workflow.ReviewingTranscript

	switch {
	case key.Matches(msg, keys.Source):
		m.pair = m.pair.NextSource()
		return m, nil
	case key.Matches(msg, keys.Target):
		m.pair = m.pair.NextTarget()
		return m, nil
	case key.Matches(msg, keys.Swap):
		p, ok := m.pair.Swap()
		if !ok {
			m.flash = "Swap is unavailable for " + string(lang.Distinguished)
			return m, nil
		}
		m.pair = p
		m.ctrl.Reset()
		m.viz.Stop()
		m.draft.Reset()
		m.draft.Blur()
		return m, nil
	case key.Matches(msg, keys.Mode):
		return m.toggleMode()
	case key.Matches(msg, keys.Settings):
		m.panel = newSettingsPanel(m.settings, max(m.width-16, 10))
		return m, m.panel.apiKey.Focus()
	case key.Matches(msg, keys.Copy):
		return m.copyResult()
	}

	if reviewing {
		switch {
		case key.Matches(msg, keys.Translate):
			if m.canTranslate(m.draft.Value()) {
				m.ctrl.SubmitEdited(m.draft.Value(), m.params())
			}
			return m, nil
		case key.Matches(msg, keys.Back):
			m.ctrl.Discard()
			m.draft.Reset()
			m.draft.Blur()
			return m, nil
		}
		return m.forward(msg)
	}

	if m.mode == modeVoice {
		if key.Matches(msg, keys.Record) {
			if m.snap.State == workflow.Recording {
				m.ctrl.Stop(m.params())
			} else if !m.settings.HasAPIKey() {
				m.flash = "Set an API key first (ctrl+s)"
			} else {
				m.ctrl.Start(m.params())
			}
		}
		return m, nil
	}

	if key.Matches(msg, keys.Translate) {
		if m.canTranslate(m.input.Value()) {
			m.ctrl.Translate(m.input.Value(), m.params())
		}
		return m, nil
	}
	return m.forward(msg)
}

// toggleMode switches between typing and recording. Whatever the controller
// was doing is abandoned.
func (m tuiModel) toggleMode() (tea.Model, tea.Cmd) {
	m.ctrl.Reset()
	m.viz.Stop()
	m.draft.Reset()
	m.draft.Blur()
	if m.mode == modeText {
		m.mode = modeVoice
		m.input.Blur()
		return m, nil
	}
	m.mode = modeText
	return m, m.input.Focus()
}

func (m tuiModel) copyResult() (tea.Model, tea.Cmd) {
	text := m.snap.Result.Text
	if m.snap.State != workflow.ShowingResult || text == "" {
		return m, nil
	}
	if err := m.copy(text); err != nil {
		log.Warnf("copy failed: %v", err)
		m.flash = "Copy failed"
		return m, nil
	}
	m.copied = true
	m.copiedGen++
	gen := m.copiedGen
	return m, tea.Tick(copiedFor, func(time.Time) tea.Msg { return copiedExpiredMsg{gen: gen} })
}

func (m tuiModel) updatePanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.panel.handle(msg) {
	case panelSave:
		m.settings = m.store.Save(context.Background(), m.panel.value())
		m.panel = nil
		m.ctrl.Reset()
		if m.store.Degraded() {
			m.flash = "Settings saved for this session only"
		}
		return m, m.refocus()
	case panelCancel:
		m.panel = nil
		m.ctrl.Reset()
		return m, m.refocus()
	case panelForward:
		return m.forward(msg)
	}
	return m, nil
}

func (m tuiModel) refocus() tea.Cmd {
	if m.mode == modeText {
		return m.input.Focus()
	}
	return nil
}

func (m tuiModel) View() string {
	if m.panel != nil {
		return m.panel.view()
	}

	var b strings.Builder
	b.WriteString(m.headerView() + "\n\n")
	if m.mode == modeText {
		b.WriteString(m.textView())
	} else {
		b.WriteString(m.voiceView())
	}
	b.WriteString("\n")
	b.WriteString(m.outputView())
	b.WriteString("\n")
	if line := m.messageLine(); line != "" {
		b.WriteString(line + "\n")
	}
	if m.status != "" {
		b.WriteString(dimStyle.Render(m.status) + "\n")
	}
	b.WriteString(m.helpView())
	return b.String()
}

func (m tuiModel) headerView() string {
	tabs := []string{"text", "voice"}
	for i, t := range tabs {
		if inputMode(i) == m.mode {
			tabs[i] = activeTab.Render(t)
		} else {
			tabs[i] = dimStyle.Render(t)
		}
	}
	arrow := " → "
	if !m.pair.CanSwap() {
		arrow = " ⇢ "
	}
	pair := pairStyle.Render(string(m.pair.Source) + arrow + string(m.pair.Target))
	return titleStyle.Render("quicktranslator") + "  " + pair + "  " + strings.Join(tabs, dimStyle.Render(" | "))
}

func (m tuiModel) textView() string {
	var b strings.Builder
	b.WriteString(m.input.View() + "\n")
	info := fmt.Sprintf("%d characters", utf8.RuneCountInString(m.input.Value()))
	if m.pair.Source.RTL() {
		info += "  (right-to-left input)"
	}
	b.WriteString(dimStyle.Render(info) + "\n")
	return b.String()
}

func (m tuiModel) voiceView() string {
	var b strings.Builder
	switch m.snap.State {
	case workflow.Recording:
		elapsed := time.Since(m.snap.RecordingStarted)
		limit := m.snap.TimeLimit
		b.WriteString(recStyle.Render(fmt.Sprintf("● REC %s / %s", clock(elapsed), clock(limit))) + "\n")
		if v := m.viz.View(); v != "" {
			b.WriteString(v + "\n")
		}
		if m.silence != nil && m.silence.Warned() {
			b.WriteString(warnStyle.Render("⚠ no voice detected") + "\n")
		}
		b.WriteString(dimStyle.Render("press space to stop") + "\n")
	case workflow.AwaitingTranscription:
		b.WriteString(m.spinner.View() + " Transcribing...\n")
	case workflow.ReviewingTranscript:
		b.WriteString(dimStyle.Render("Review the transcript, then press enter to translate or esc to discard") + "\n")
		b.WriteString(m.draft.View() + "\n")
	default:
		if m.snap.Input != "" && m.snap.State != workflow.Idle {
			b.WriteString(dimStyle.Render("Heard: ") + m.snap.Input + "\n")
		}
		b.WriteString(dimStyle.Render("○ press space to record") + "\n")
	}
	return b.String()
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func (m tuiModel) outputView() string {
	w := max(m.width-4, 20)
	var body string
	switch {
	case m.snap.State == workflow.AwaitingTranslation:
		body = m.spinner.View() + " Translating..."
	case m.snap.Result.Text != "":
		body = outputStyle.Width(w).Render(m.snap.Result.Text)
		if m.copied {
			body += "\n" + copiedStyle.Render("Copied!")
		}
	default:
		body = dimStyle.Render("Translation appears here")
	}
	return paneStyle.Width(w + 2).Render(body)
}

func (m tuiModel) messageLine() string {
	switch {
	case m.snap.State == workflow.Error && m.snap.Message != "":
		return errorStyle.Render(m.snap.Message)
	case m.flash != "":
		return warnStyle.Render(m.flash)
	case m.snap.Notice != "":
		return warnStyle.Render(m.snap.Notice)
	case !m.settings.HasAPIKey():
		return warnStyle.Render("No API key set. Press ctrl+s to open settings.")
	}
	return ""
}

func (m tuiModel) helpView() string {
	bindings := []key.Binding{keys.Mode, keys.Source, keys.Target}
	if m.pair.CanSwap() {
		bindings = append(bindings, keys.Swap)
	}
	switch {
	case m.mode == modeVoice && m.snap.State == workflow.ReviewingTranscript:
		bindings = append(bindings, keys.Translate, keys.Back)
	case m.mode == modeVoice:
		bindings = append(bindings, keys.Record)
	case m.canTranslate(m.input.Value()):
		bindings = append(bindings, keys.Translate)
	}
	if m.snap.Result.Text != "" {
		bindings = append(bindings, keys.Copy)
	}
	bindings = append(bindings, keys.Settings, keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+helpStyle.Render(" "+h.Desc))
	}
	return strings.Join(parts, helpStyle.Render(" • ")) + "\n" + helpStyle.Render("quicktranslator "+version)
}
