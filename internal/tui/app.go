package tui

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/inflaton/internal/config"
	"github.com/f3rmion/inflaton/internal/history"
	"github.com/f3rmion/inflaton/internal/session"
	"github.com/f3rmion/inflaton/internal/tui/views"
	"go.uber.org/zap"
)

// ViewType represents the current active view
type ViewType int

const (
	ViewAnalyze ViewType = iota
	ViewHistory
	ViewSettings
)

// MenuItem represents a sidebar menu entry
type MenuItem struct {
	Label    string
	View     ViewType
	Shortcut string
}

// ViewSwitchMsg requests a view change
type ViewSwitchMsg struct {
	View ViewType
}

// Deps are the collaborators of the application.
type Deps struct {
	Config     *config.Config
	ConfigDir  string
	Controller *session.Controller
	Store      *history.Store // nil disables history
	KeySource  string
	Logger     *zap.Logger
}

// AppModel is the main TUI model
type AppModel struct {
	log *zap.Logger

	// Layout state
	width        int
	height       int
	sidebarWidth int
	ready        bool

	// Navigation
	currentView   ViewType
	menuItems     []MenuItem
	selectedMenu  int
	sidebarActive bool

	analyzeView  views.AnalyzeModel
	historyView  views.HistoryModel
	settingsView views.SettingsModel

	showHelp bool
}

// NewApp creates the TUI application.
func NewApp(deps Deps) AppModel {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default(deps.ConfigDir)
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		recorder views.Recorder
		store    views.HistoryStore
	)
	if deps.Store != nil {
		recorder = deps.Store
		store = deps.Store
	}

	exportDir := ""
	if deps.ConfigDir != "" {
		exportDir = filepath.Join(deps.ConfigDir, "exports")
	}

	menuItems := []MenuItem{
		{Label: "Analyze", View: ViewAnalyze, Shortcut: "1"},
		{Label: "History", View: ViewHistory, Shortcut: "2"},
		{Label: "Settings", View: ViewSettings, Shortcut: "3"},
	}

	return AppModel{
		log:          log,
		sidebarWidth: 18,
		currentView:  ViewAnalyze,
		menuItems:    menuItems,

		analyzeView: views.NewAnalyzeModel(views.AnalyzeDeps{
			Controller: deps.Controller,
			Templates:  cfg.Templates,
			Recorder:   recorder,
			ExportDir:  exportDir,
			Theme:      cfg.Theme,
			Logger:     log,
		}),
		historyView:  views.NewHistoryModel(store, cfg.Theme),
		settingsView: views.NewSettingsModel(cfg, deps.ConfigDir, deps.KeySource),
	}
}

// Init initializes the model
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.historyView.Load())
}

// typing reports whether printable keys belong to a text field.
func (m AppModel) typing() bool {
	if m.sidebarActive {
		return false
	}
	switch m.currentView {
	case ViewAnalyze:
		return true
	case ViewHistory:
		return m.historyView.Searching()
	}
	return false
}

func (m *AppModel) switchTo(v ViewType) {
	m.currentView = v
	for i, item := range m.menuItems {
		if item.View == v {
			m.selectedMenu = i
			break
		}
	}
	m.sidebarActive = false
}

// Update handles messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		key := msg.String()
		switch key {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.sidebarActive = !m.sidebarActive
			return m, nil
		case "f1":
			m.switchTo(ViewAnalyze)
			return m, nil
		case "f2":
			m.switchTo(ViewHistory)
			return m, nil
		case "f3":
			m.switchTo(ViewSettings)
			return m, nil
		case "esc":
			if m.currentView == ViewHistory && m.historyView.Nested() && !m.sidebarActive {
				break
			}
			if m.sidebarActive {
				return m, tea.Quit
			}
			m.sidebarActive = true
			return m, nil
		}

		if !m.typing() {
			switch key {
			case "q":
				return m, tea.Quit
			case "?":
				m.showHelp = true
				return m, nil
			case "1", "2", "3":
				m.switchTo(m.menuItems[key[0]-'1'].View)
				return m, nil
			}
		}

		if m.sidebarActive {
			switch key {
			case "j", "down":
				if m.selectedMenu < len(m.menuItems)-1 {
					m.selectedMenu++
				}
			case "k", "up":
				if m.selectedMenu > 0 {
					m.selectedMenu--
				}
			case "enter", "l", "right":
				m.switchTo(m.menuItems[m.selectedMenu].View)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentWidth := m.width - m.sidebarWidth - 4
		contentHeight := m.height - 2

		m.analyzeView.SetSize(contentWidth, contentHeight)
		m.historyView.SetSize(contentWidth, contentHeight)
		m.settingsView.SetSize(contentWidth, contentHeight)
		return m, nil

	case ViewSwitchMsg:
		m.switchTo(msg.View)
		return m, nil

	case views.RunSavedMsg:
		m.log.Debug("run saved", zap.String("id", msg.ID))
		return m, m.historyView.Load()
	}

	if _, ok := msg.(tea.KeyMsg); ok {
		var cmd tea.Cmd
		switch m.currentView {
		case ViewAnalyze:
			m.analyzeView, cmd = m.analyzeView.Update(msg)
		case ViewHistory:
			m.historyView, cmd = m.historyView.Update(msg)
		case ViewSettings:
			m.settingsView, cmd = m.settingsView.Update(msg)
		}
		return m, cmd
	}

	// Async results reach their view whichever one is shown
	var cmds [2]tea.Cmd
	m.analyzeView, cmds[0] = m.analyzeView.Update(msg)
	m.historyView, cmds[1] = m.historyView.Update(msg)
	return m, tea.Batch(cmds[:]...)
}

// View renders the UI
func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var content string
	switch m.currentView {
	case ViewAnalyze:
		content = m.analyzeView.View()
	case ViewHistory:
		content = m.historyView.View()
	case ViewSettings:
		content = m.settingsView.View()
	}

	mainContent := ContentStyle.
		Width(m.width - m.sidebarWidth - 4).
		Height(m.height - 2).
		Render(content)

	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), mainContent)
}

func (m AppModel) renderSidebar() string {
	var items []string

	items = append(items, SidebarTitleStyle.Render(" φ INFLATON "))
	items = append(items, "")

	for i, item := range m.menuItems {
		label := item.Shortcut + ". " + item.Label

		style := SidebarItemStyle
		if i == m.selectedMenu {
			if m.sidebarActive {
				style = SidebarItemActiveStyle
			} else {
				style = SidebarItemStyle.Bold(true).Foreground(ColorSecondary)
			}
		}
		items = append(items, style.Render(label))
	}

	usedHeight := len(items) + 4
	for i := 0; i < m.height-usedHeight-2; i++ {
		items = append(items, "")
	}
	items = append(items, SidebarHelpStyle.Render("tab Menu ^C Quit"))

	return SidebarStyle.
		Width(m.sidebarWidth).
		Height(m.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

type helpSection struct {
	title string
	keys  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{"F1-F3", "Switch views"},
		{"tab", "Toggle sidebar focus"},
		{"esc", "Sidebar, then quit"},
		{"ctrl+c", "Quit"},
	}},
	{"Analyze View", [][2]string{
		{"enter", "Derive observables"},
		{"ctrl+l", "Clear input and results"},
		{"alt+1..9", "Insert template phrase"},
		{"ctrl+y", "Copy summary"},
		{"ctrl+s", "Save spectrum chart (PNG)"},
		{"pgup/pgdn", "Scroll results"},
	}},
	{"History View", [][2]string{
		{"j/k ↑/↓", "Navigate runs"},
		{"enter", "Open run"},
		{"/", "Filter"},
		{"d", "Delete run"},
		{"r", "Refresh"},
	}},
}

func (m AppModel) renderHelp() string {
	var b strings.Builder
	b.WriteString(HelpTitleStyle.Render("Inflaton - Inflation Theory Analyzer"))
	b.WriteString("\n\n")

	for _, s := range helpSections {
		b.WriteString(HelpSectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, k := range s.keys {
			b.WriteString(HelpKeyStyle.Render(k[0]) + HelpDescStyle.Render(k[1]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorMuted).Italic(true).Render("Press any key to close"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, HelpBoxStyle.Render(b.String()))
}
