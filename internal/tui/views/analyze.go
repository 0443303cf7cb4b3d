// Package views provides the individual views for the unified TUI.
package views

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/inflaton/internal/chart"
	"github.com/f3rmion/inflaton/internal/clipboard"
	"github.com/f3rmion/inflaton/internal/config"
	"github.com/f3rmion/inflaton/internal/cosmo"
	"github.com/f3rmion/inflaton/internal/report"
	"github.com/f3rmion/inflaton/internal/session"
	"github.com/f3rmion/inflaton/internal/tui/components"
	"go.uber.org/zap"
)

// Styles (use from parent package or define locally)
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			Background(lipgloss.Color("#1a1a2e")).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ecdc4"))

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#ffe66d")).
			Padding(0, 1)

	templateKeyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffe66d")).
				Bold(true)

	templateLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a8dadc"))

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3d5a80")).
			Foreground(lipgloss.Color("#a8e6cf")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff6b6b")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8e6cf")).
			Bold(true)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffe66d")).
			Bold(true).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8e6cf")).
			Bold(true)
)

// logLines is how many run log lines the panel shows.
const logLines = 6

// Recorder persists successful runs.
type Recorder interface {
	Save(ctx context.Context, input string, resp *cosmo.CalculationResponse) (string, error)
}

// RunSavedMsg is sent after a successful run was written to history.
type RunSavedMsg struct {
	ID string
}

type analysisDoneMsg struct {
	done session.Completion
}

type saveFailedMsg struct {
	err error
}

type exportedMsg struct {
	path string
	err  error
}

type clearNoticeMsg struct{}

func clearNoticeAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearNoticeMsg{}
	})
}

// AnalyzeModel is the theory analysis view model.
type AnalyzeModel struct {
	ctrl      *session.Controller
	input     textinput.Model
	spinner   spinner.Model
	results   viewport.Model
	renderer  *components.Renderer
	templates []config.Template

	recorder  Recorder
	exportDir string
	log       *zap.Logger

	// Theory of the run in flight, saved with its result
	pending string
	notice  string

	width  int
	height int
}

// AnalyzeDeps are the collaborators of the analyze view.
type AnalyzeDeps struct {
	Controller *session.Controller
	Templates  []config.Template
	Recorder   Recorder // nil disables history
	ExportDir  string
	Theme      string
	Logger     *zap.Logger
}

// NewAnalyzeModel creates a new analyze view model.
func NewAnalyzeModel(deps AnalyzeDeps) AnalyzeModel {
	ti := textinput.New()
	ti.Placeholder = "Describe an inflationary action or potential, e.g. V(φ) = λφ⁴..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffe66d"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return AnalyzeModel{
		ctrl:      deps.Controller,
		input:     ti,
		spinner:   sp,
		results:   viewport.New(60, 10),
		renderer:  components.NewRenderer(deps.Theme),
		templates: deps.Templates,
		recorder:  deps.Recorder,
		exportDir: deps.ExportDir,
		log:       log,
	}
}

// SetSize updates the view dimensions.
func (m *AnalyzeModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 8
	m.renderer.SetWidth(width - 2)
	m.results.Width = width
	m.refreshResults()
}

// Controller exposes the session state.
func (m AnalyzeModel) Controller() *session.Controller {
	return m.ctrl
}

// Update handles messages.
func (m AnalyzeModel) Update(msg tea.Msg) (AnalyzeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "enter":
			return m.run()
		case "ctrl+l":
			m.ctrl.Clear()
			m.input.SetValue("")
			m.pending = ""
			m.refreshResults()
			return m, nil
		case "ctrl+y":
			return m.copySummary()
		case "ctrl+s":
			return m, m.exportChart()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		default:
			if idx, ok := templateIndex(key); ok {
				m.insertTemplate(idx)
				return m, nil
			}
		}

	case analysisDoneMsg:
		if !m.ctrl.Complete(msg.done) {
			m.log.Debug("dropped stale completion", zap.Uint64("run", msg.done.RunID))
			return m, nil
		}
		m.refreshResults()
		if m.ctrl.Status() == cosmo.StatusSuccess && m.recorder != nil {
			return m, m.save(m.pending, m.ctrl.Result())
		}
		return m, nil

	case saveFailedMsg:
		m.log.Warn("saving run failed", zap.Error(msg.err))
		m.notice = "History save failed: " + msg.err.Error()
		return m, clearNoticeAfter(4 * time.Second)

	case exportedMsg:
		if msg.err != nil {
			m.notice = "Export failed: " + msg.err.Error()
		} else {
			m.notice = "Chart saved to " + msg.path
		}
		return m, clearNoticeAfter(4 * time.Second)

	case clearNoticeMsg:
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Status() != cosmo.StatusDeriving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetInput(m.input.Value())
	return m, cmd
}

func (m AnalyzeModel) run() (AnalyzeModel, tea.Cmd) {
	m.ctrl.SetInput(m.input.Value())
	run, err := m.ctrl.Begin(context.Background())
	if err != nil {
		return m, nil
	}
	m.pending = strings.TrimSpace(run.Theory)
	m.refreshResults()

	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return analysisDoneMsg{done: run.Execute()}
	})
}

func (m *AnalyzeModel) insertTemplate(idx int) {
	if idx >= len(m.templates) {
		return
	}
	value := m.input.Value()
	if value != "" && !strings.HasSuffix(value, " ") {
		value += " "
	}
	value += m.templates[idx].Phrase
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.ctrl.SetInput(value)
}

func (m AnalyzeModel) copySummary() (AnalyzeModel, tea.Cmd) {
	resp := m.ctrl.Result()
	if resp == nil {
		return m, nil
	}
	if err := clipboard.Write(report.Summary(resp)); err != nil {
		m.notice = "Copy failed: " + err.Error()
	} else {
		m.notice = "Copied!"
	}
	return m, clearNoticeAfter(2 * time.Second)
}

func (m AnalyzeModel) save(theory string, resp *cosmo.CalculationResponse) tea.Cmd {
	rec := m.recorder
	return func() tea.Msg {
		id, err := rec.Save(context.Background(), theory, resp)
		if err != nil {
			return saveFailedMsg{err: err}
		}
		return RunSavedMsg{ID: id}
	}
}

func (m AnalyzeModel) exportChart() tea.Cmd {
	resp := m.ctrl.Result()
	if resp == nil || m.exportDir == "" {
		return nil
	}
	path := filepath.Join(m.exportDir, ExportName(resp.TheoryName, time.Now()))
	return func() tea.Msg {
		return exportedMsg{path: path, err: chart.SaveFile(path, resp.SpectrumData, chart.DefaultOptions())}
	}
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// ExportName builds a file name for an exported chart.
func ExportName(theory string, t time.Time) string {
	slug := strings.Trim(strings.ToLower(unsafeName.ReplaceAllString(theory, "-")), "-")
	if slug == "" {
		slug = "spectrum"
	}
	return slug + "-" + t.Format("20060102-150405") + ".png"
}

func templateIndex(key string) (int, bool) {
	if len(key) != 5 || !strings.HasPrefix(key, "alt+") {
		return 0, false
	}
	d := key[4]
	if d < '1' || d > '9' {
		return 0, false
	}
	return int(d - '1'), true
}

func (m *AnalyzeModel) refreshResults() {
	if resp := m.ctrl.Result(); resp != nil {
		m.results.SetContent(m.renderer.Result(resp))
	} else {
		m.results.SetContent("")
	}
	m.results.GotoTop()
}

// View renders the analyze view.
func (m AnalyzeModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Inflation Theory Analyzer"))
	b.WriteString("\n\n")
	b.WriteString(inputBoxStyle.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderTemplates())
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	if logs := m.ctrl.Logs(); len(logs) > 0 {
		b.WriteString(m.renderLogs(logs))
		b.WriteString("\n")
	}

	if m.ctrl.Status() == cosmo.StatusSuccess {
		header := b.String()
		results := m.results
		height := m.height - lipgloss.Height(header) - 2
		if height < 5 {
			height = 5
		}
		results.Height = height
		b.WriteString(results.View())
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.helpLine()))

	return b.String()
}

func (m AnalyzeModel) renderTemplates() string {
	var parts []string
	for i, t := range m.templates {
		if i >= 9 {
			break
		}
		parts = append(parts, templateKeyStyle.Render(fmt.Sprintf("alt+%d", i+1))+" "+templateLabelStyle.Render(t.Label))
	}
	return lipgloss.NewStyle().Width(m.width).Render(strings.Join(parts, "  "))
}

func (m AnalyzeModel) renderStatus() string {
	switch m.ctrl.Status() {
	case cosmo.StatusDeriving, cosmo.StatusCalculating:
		return m.spinner.View() + " " + loadingStyle.Render("Deriving slow-roll parameters...")
	case cosmo.StatusSuccess:
		return successStyle.Render("✓ " + m.ctrl.Result().Summary())
	case cosmo.StatusError:
		return errorStyle.Render("✗ Calculation failed") + "\n" + errorStyle.Render(m.ctrl.Err())
	default:
		return subtitleStyle.Render("Enter a theory and press Enter to derive its observables")
	}
}

func (m AnalyzeModel) renderLogs(logs []session.LogLine) string {
	if len(logs) > logLines {
		logs = logs[len(logs)-logLines:]
	}
	lines := make([]string, len(logs))
	for i, l := range logs {
		lines[i] = l.String()
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return logBoxStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m AnalyzeModel) helpLine() string {
	var parts []string
	if m.ctrl.CanRun() {
		parts = append(parts, "enter: run")
	}
	parts = append(parts, "ctrl+l: clear")
	if m.ctrl.Status() == cosmo.StatusSuccess {
		parts = append(parts, "pgup/pgdn: scroll", "ctrl+y: copy")
		if m.exportDir != "" {
			parts = append(parts, "ctrl+s: save chart")
		}
	}
	return strings.Join(parts, " • ")
}
