package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quicktranslator/settings"
)

type panelAction int

const (
	panelNone panelAction = iota
	panelSave
	panelCancel
	panelForward // key belongs to the API key input
)

const (
	fieldAPIKey = iota
	fieldModel
	fieldLimit
	fieldLowercase
	fieldEdit
	fieldCount
)

var (
	panelTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB")).MarginBottom(1)
	panelLabel   = lipgloss.NewStyle().Width(26).Foreground(lipgloss.Color("245"))
	panelFocused = lipgloss.NewStyle().Width(26).Foreground(lipgloss.Color("#2563EB")).Bold(true)
)

// settingsPanel edits a copy of the settings. Nothing is applied until the
// caller saves the value.
type settingsPanel struct {
	apiKey    textinput.Model
	model     settings.Model
	limit     int
	lowercase bool
	editFirst bool
	focus     int
}

func newSettingsPanel(s settings.Settings, width int) *settingsPanel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "sk-..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Width = width
	ti.SetValue(s.APIKey)
	return &settingsPanel{
		apiKey:    ti,
		model:     s.Model,
		limit:     settings.ClampTimeLimit(s.RecordingTimeLimitMinutes),
		lowercase: s.LowercaseOutput,
		editFirst: s.EditBeforeTranslate,
	}
}

func (p *settingsPanel) move(step int) {
	p.focus = (p.focus + step + fieldCount) % fieldCount
	if p.focus == fieldAPIKey {
		p.apiKey.Focus()
	} else {
		p.apiKey.Blur()
	}
}

func (p *settingsPanel) handle(msg tea.KeyMsg) panelAction {
	k := msg.String()
	switch k {
	case "enter":
		return panelSave
	case "esc":
		return panelCancel
	case "tab", "down":
		p.move(1)
		return panelNone
	case "shift+tab", "up":
		p.move(-1)
		return panelNone
	}

	switch p.focus {
	case fieldAPIKey:
		return panelForward
	case fieldModel:
		switch k {
		case "left", "h":
			p.model = p.model.Next(-1)
		case "right", "l":
			p.model = p.model.Next(1)
		}
	case fieldLimit:
		switch k {
		case "left", "h", "-":
			p.limit = settings.ClampTimeLimit(p.limit - 1)
		case "right", "l", "+":
			p.limit = settings.ClampTimeLimit(p.limit + 1)
		}
	case fieldLowercase:
		if k == " " || k == "x" {
			p.lowercase = !p.lowercase
		}
	case fieldEdit:
		if k == " " || k == "x" {
			p.editFirst = !p.editFirst
		}
	}
	return panelNone
}

func (p *settingsPanel) value() settings.Settings {
	return settings.Settings{
		Model:                     p.model,
		LowercaseOutput:           p.lowercase,
		APIKey:                    p.apiKey.Value(),
		EditBeforeTranslate:       p.editFirst,
		RecordingTimeLimitMinutes: p.limit,
	}.Normalize()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (p *settingsPanel) view() string {
	rows := []struct {
		label string
		value string
	}{
		{"OpenAI API key", p.apiKey.View()},
		{"Model", fmt.Sprintf("‹ %s ›", p.model)},
		{"Recording limit (minutes)", fmt.Sprintf("‹ %d ›", p.limit)},
		{"Lowercase output", checkbox(p.lowercase)},
		{"Edit before translating", checkbox(p.editFirst)},
	}

	var b strings.Builder
	b.WriteString(panelTitle.Render("Settings") + "\n")
	for i, r := range rows {
		label := panelLabel.Render(r.label)
		if i == p.focus {
			label = panelFocused.Render(r.label)
		}
		b.WriteString(label + r.value + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("tab/↑↓ move • ←/→ change • space toggle • enter save • esc cancel"))
	return b.String()
}
