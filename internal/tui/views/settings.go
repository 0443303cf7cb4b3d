package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/inflaton/internal/config"
)

// Settings view styles
var (
	settingsTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FF6B6B")).
				MarginBottom(1)

	settingsPathStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Italic(true).
				MarginBottom(1)

	settingsTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Padding(0, 2)

	settingsTabActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#ffe66d")).
				Background(lipgloss.Color("#2d3436")).
				Padding(0, 2)

	settingsHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#a8dadc"))

	settingsKeyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a8dadc")).
				Width(18)

	settingsRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#f1faee"))

	settingsMutedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	settingsHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				MarginTop(1)
)

var settingsTabs = []string{"General", "Templates"}

// SettingsModel shows the active configuration.
type SettingsModel struct {
	config    *config.Config
	configDir string
	keySource string

	tab     int
	scrollY int

	width  int
	height int
}

// NewSettingsModel creates a new settings model. keySource names where the
// API key came from, empty when none was found.
func NewSettingsModel(cfg *config.Config, configDir, keySource string) SettingsModel {
	return SettingsModel{
		config:    cfg,
		configDir: configDir,
		keySource: keySource,
	}
}

// SetSize updates the view dimensions.
func (m *SettingsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages.
func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "right", "l":
			m.tab = (m.tab + 1) % len(settingsTabs)
			m.scrollY = 0
		case "left", "h":
			m.tab = (m.tab + len(settingsTabs) - 1) % len(settingsTabs)
			m.scrollY = 0
		case "j", "down":
			m.scrollY++
		case "k", "up":
			if m.scrollY > 0 {
				m.scrollY--
			}
		case "g":
			m.scrollY = 0
		}
	}
	return m, nil
}

// View renders the settings view.
func (m SettingsModel) View() string {
	var b strings.Builder

	b.WriteString(settingsTitleStyle.Render("Inflaton Configuration"))
	b.WriteString("\n")
	b.WriteString(settingsPathStyle.Render("Config: " + m.configDir))
	b.WriteString("\n\n")

	var tabViews []string
	for i, t := range settingsTabs {
		style := settingsTabStyle
		if i == m.tab {
			style = settingsTabActiveStyle
		}
		tabViews = append(tabViews, style.Render(t))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabViews...))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#3d5a80")).Render(strings.Repeat("─", max(min(m.width-4, 60), 10))))
	b.WriteString("\n\n")

	switch m.tab {
	case 0:
		b.WriteString(m.renderGeneral())
	case 1:
		b.WriteString(m.renderTemplates())
	}

	b.WriteString("\n")
	b.WriteString(settingsHelpStyle.Render("←/→: switch tabs • j/k: scroll"))

	return b.String()
}

func (m SettingsModel) renderGeneral() string {
	if m.config == nil {
		return settingsMutedStyle.Render("No configuration loaded")
	}

	timeout := "none"
	if m.config.RequestTimeout > 0 {
		timeout = m.config.RequestTimeout.String()
	}
	endpoint := m.config.BaseURL
	if endpoint == "" {
		endpoint = "default"
	}
	key := settingsMutedStyle.Render("not set (export GEMINI_API_KEY)")
	if m.keySource != "" {
		key = settingsRowStyle.Render("from " + m.keySource)
	}
	historyDB := m.config.HistoryDB
	if historyDB == "" {
		historyDB = "disabled"
	}

	rows := [][2]string{
		{"Model", m.config.Model},
		{"Endpoint", endpoint},
		{"Request timeout", timeout},
		{"History", historyDB},
		{"Log file", m.config.LogFile},
		{"Theme", m.config.Theme},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(settingsKeyStyle.Render(r[0]))
		b.WriteString(settingsRowStyle.Render(r[1]))
		b.WriteString("\n")
	}
	b.WriteString(settingsKeyStyle.Render("API key"))
	b.WriteString(key)
	b.WriteString("\n")
	return b.String()
}

func (m SettingsModel) renderTemplates() string {
	var b strings.Builder

	if m.config == nil || len(m.config.Templates) == 0 {
		b.WriteString(settingsMutedStyle.Render("No templates configured"))
		b.WriteString("\n")
		b.WriteString(settingsMutedStyle.Render("Run 'inflaton init' to create config files"))
		return b.String()
	}

	templates := m.config.Templates
	b.WriteString(settingsHeaderStyle.Render(fmt.Sprintf("Templates (%d configured)", len(templates))))
	b.WriteString("\n\n")
	b.WriteString(settingsMutedStyle.Render(fmt.Sprintf("%-6s %-14s %s", "Key", "Label", "Phrase")))
	b.WriteString("\n")
	b.WriteString(settingsMutedStyle.Render(strings.Repeat("─", 50)))
	b.WriteString("\n")

	visibleHeight := max(m.height-12, 5)
	start := min(m.scrollY, len(templates))
	end := min(start+visibleHeight, len(templates))

	for i := start; i < end; i++ {
		t := templates[i]
		key := "-"
		if i < 9 {
			key = fmt.Sprintf("alt+%d", i+1)
		}
		b.WriteString(settingsRowStyle.Render(fmt.Sprintf("%-6s %-14s %s", key, t.Label, t.Phrase)))
		b.WriteString("\n")
	}

	if len(templates) > visibleHeight {
		b.WriteString("\n")
		b.WriteString(settingsMutedStyle.Render(fmt.Sprintf("Showing %d-%d of %d", start+1, end, len(templates))))
	}

	return b.String()
}
