package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/inflaton/internal/history"
	"github.com/f3rmion/inflaton/internal/tui/components"
)

// History view styles
var (
	historyRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1faee")).
			Padding(0, 1)

	historyRowActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#ffe66d")).
				Background(lipgloss.Color("#2d3436")).
				Padding(0, 1)

	historyMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888"))

	historySearchBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#ffe66d")).
				Padding(0, 1)

	historyNoDataStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Italic(true)
)

// historyLimit caps how many runs the list loads.
const historyLimit = 200

// HistoryStore is the subset of the run store the history view needs.
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
	Get(ctx context.Context, id string) (*history.Entry, error)
	Delete(ctx context.Context, id string) error
}

type historyLoadedMsg struct {
	entries []history.Entry
	err     error
}

type entryLoadedMsg struct {
	entry *history.Entry
	err   error
}

type entryDeletedMsg struct {
	id  string
	err error
}

// HistoryModel lists stored runs and shows one in detail.
type HistoryModel struct {
	store    HistoryStore
	renderer *components.Renderer

	entries  []history.Entry
	filtered []history.Entry
	cursor   int
	err      error

	searchInput textinput.Model
	searching   bool

	detail *history.Entry
	pager  viewport.Model

	width  int
	height int
}

// NewHistoryModel creates a history view. A nil store disables the view.
func NewHistoryModel(store HistoryStore, theme string) HistoryModel {
	si := textinput.New()
	si.Placeholder = "Filter by theory..."
	si.CharLimit = 80
	si.Width = 30

	return HistoryModel{
		store:       store,
		renderer:    components.NewRenderer(theme),
		searchInput: si,
		pager:       viewport.New(60, 10),
	}
}

// SetSize updates the view dimensions.
func (m *HistoryModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.renderer.SetWidth(width - 2)
	m.pager.Width = width
	m.pager.Height = max(height-4, 5)
	if m.detail != nil {
		m.pager.SetContent(m.renderDetail(m.detail))
	}
}

// Searching reports whether the filter input has focus.
func (m HistoryModel) Searching() bool {
	return m.searching
}

// Load reloads the run list.
func (m HistoryModel) Load() tea.Cmd {
	store := m.store
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := store.List(context.Background(), historyLimit)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (m HistoryModel) open(id string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		e, err := store.Get(context.Background(), id)
		return entryLoadedMsg{entry: e, err: err}
	}
}

func (m HistoryModel) remove(id string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return entryDeletedMsg{id: id, err: store.Delete(context.Background(), id)}
	}
}

// Update handles messages.
func (m HistoryModel) Update(msg tea.Msg) (HistoryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.err = msg.err
		m.entries = msg.entries
		m.applyFilter()
		return m, nil

	case entryLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.detail = msg.entry
		m.pager.SetContent(m.renderDetail(msg.entry))
		m.pager.GotoTop()
		return m, nil

	case entryDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if m.detail != nil && m.detail.ID == msg.id {
			m.detail = nil
		}
		return m, m.Load()

	case tea.KeyMsg:
		if m.store == nil {
			return m, nil
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m HistoryModel) updateSearch(msg tea.KeyMsg) (HistoryModel, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m HistoryModel) updateDetail(msg tea.KeyMsg) (HistoryModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "h", "left":
		m.detail = nil
		return m, nil
	case "d":
		return m, m.remove(m.detail.ID)
	}
	var cmd tea.Cmd
	m.pager, cmd = m.pager.Update(msg)
	return m, cmd
}

func (m HistoryModel) updateList(msg tea.KeyMsg) (HistoryModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.filtered)-1, 0)
	case "/":
		m.searching = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case "r":
		return m, m.Load()
	case "enter", "l", "right":
		if e, ok := m.current(); ok {
			return m, m.open(e.ID)
		}
	case "d":
		if e, ok := m.current(); ok {
			return m, m.remove(e.ID)
		}
	}
	return m, nil
}

func (m HistoryModel) current() (history.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return history.Entry{}, false
	}
	return m.filtered[m.cursor], true
}

func (m *HistoryModel) applyFilter() {
	term := strings.ToLower(strings.TrimSpace(m.searchInput.Value()))
	if term == "" {
		m.filtered = m.entries
	} else {
		m.filtered = nil
		for _, e := range m.entries {
			if strings.Contains(strings.ToLower(e.TheoryName), term) ||
				strings.Contains(strings.ToLower(e.Input), term) {
				m.filtered = append(m.filtered, e)
			}
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(len(m.filtered)-1, 0)
	}
}

func (m HistoryModel) renderDetail(e *history.Entry) string {
	var b strings.Builder
	b.WriteString(historyMetaStyle.Render(fmt.Sprintf("%s  •  %s", shortID(e.ID), e.CreatedAt.Format("2006-01-02 15:04"))))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(e.Input))
	b.WriteString("\n\n")
	b.WriteString(m.renderer.Result(e.Response))
	return b.String()
}

// View renders the history view.
func (m HistoryModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("History"))
	b.WriteString("\n\n")

	if m.store == nil {
		b.WriteString(historyNoDataStyle.Render("History is disabled. Set history_db in config.yaml to enable it."))
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	if m.detail != nil {
		b.WriteString(m.pager.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc: back • d: delete • pgup/pgdn: scroll"))
		return b.String()
	}

	if m.searching || m.searchInput.Value() != "" {
		b.WriteString(historySearchBoxStyle.Render(m.searchInput.View()))
		b.WriteString("\n")
	}

	if len(m.filtered) == 0 {
		b.WriteString(historyNoDataStyle.Render("No saved runs yet."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("r: refresh"))
		return b.String()
	}

	rows := max(m.height-8, 3)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.filtered))

	for i := start; i < end; i++ {
		e := m.filtered[i]
		line := fmt.Sprintf("%s  %-28s n_s=%.4f  r=%.5f", e.CreatedAt.Format("01-02 15:04"), truncateRunes(e.TheoryName, 28), e.Ns, e.R)
		if i == m.cursor {
			b.WriteString(historyRowActiveStyle.Render("▸ " + line))
		} else {
			b.WriteString(historyRowStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(historyMetaStyle.Render(fmt.Sprintf("%d of %d runs", len(m.filtered), len(m.entries))))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓: navigate • enter: open • /: filter • d: delete • r: refresh"))

	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Nested reports whether esc is handled by the view itself.
func (m HistoryModel) Nested() bool {
	return m.searching || m.detail != nil
}
