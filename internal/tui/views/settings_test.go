package views

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/f3rmion/inflaton/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestSettingsGeneral(t *testing.T) {
	cfg := config.Default("/tmp/inflaton")
	cfg.RequestTimeout = 30 * time.Second

	m := NewSettingsModel(cfg, "/tmp/inflaton", "GEMINI_API_KEY")
	m.SetSize(120, 40)
	view := m.View()

	assert.Contains(t, view, "gemini-2.5-flash")
	assert.Contains(t, view, "30s")
	assert.Contains(t, view, "from GEMINI_API_KEY")
	assert.Contains(t, view, "/tmp/inflaton/history.db")
}

func TestSettingsMissingKey(t *testing.T) {
	m := NewSettingsModel(config.Default("/tmp/inflaton"), "/tmp/inflaton", "")
	m.SetSize(120, 40)
	assert.Contains(t, m.View(), "not set")
	assert.Contains(t, m.View(), "none")
}

func TestSettingsTemplatesTab(t *testing.T) {
	cfg := config.Default("/tmp/inflaton")
	m := NewSettingsModel(cfg, "/tmp/inflaton", "config")
	m.SetSize(160, 40)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view := m.View()
	assert.Contains(t, view, "Templates (7 configured)")
	assert.Contains(t, view, "alt+1")
	assert.Contains(t, view, cfg.Templates[0].Label)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Contains(t, m.View(), "Request timeout")
}
