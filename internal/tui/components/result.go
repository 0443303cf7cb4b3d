// Package components renders the parts of a calculation result shared by
// the analyze and history views.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/inflaton/internal/cosmo"
	"github.com/f3rmion/inflaton/internal/report"
	"github.com/f3rmion/inflaton/internal/tui/plot"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3d5a80")).
			Padding(0, 1).
			Width(14).
			Align(lipgloss.Center)

	cardLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8dadc")).
			Bold(true)

	cardValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffe66d")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ecdc4")).
			Bold(true)

	theoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff6b6b")).
			Bold(true)

	potentialStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1faee")).
			Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3d5a80")).
			Padding(0, 1)

	legendStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	outlookStyle = map[string]lipgloss.Style{
		cosmo.OutlookCurrent:  lipgloss.NewStyle().Foreground(lipgloss.Color("#a8e6cf")).Bold(true),
		cosmo.OutlookFuture:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ffe66d")).Bold(true),
		cosmo.OutlookUnlikely: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Bold(true),
	}
)

// Renderer draws results at a given width.
type Renderer struct {
	width    int
	style    string
	markdown *glamour.TermRenderer
}

// NewRenderer creates a renderer. style is a glamour style name
// ("dark", "light", "notty", ...).
func NewRenderer(style string) *Renderer {
	if style == "" {
		style = "dark"
	}
	return &Renderer{style: style, width: 80}
}

// SetWidth updates the wrap width.
func (r *Renderer) SetWidth(width int) {
	if width < 40 {
		width = 40
	}
	if width != r.width {
		r.width = width
		r.markdown = nil
	}
}

// Result renders the whole result panel.
func (r *Renderer) Result(resp *cosmo.CalculationResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(theoryStyle.Render(resp.TheoryName))
	b.WriteString("\n")
	if resp.PotentialForm != "" {
		b.WriteString(potentialStyle.Render(resp.PotentialForm))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(r.Stats(resp.Observables))
	b.WriteString("\n\n")
	b.WriteString(r.Chart(resp))
	b.WriteString("\n\n")
	b.WriteString(r.Steps(resp.DerivationSteps))
	b.WriteString("\n")
	b.WriteString(r.Interpretation(resp))

	return b.String()
}

// Stats renders one card per observable.
func (r *Renderer) Stats(o cosmo.ObservableResult) string {
	var cards []string
	for _, s := range o.Stats() {
		cards = append(cards, cardStyle.Render(cardLabelStyle.Render(s.Label)+"\n"+cardValueStyle.Render(s.Value)))
	}

	// Wrap cards onto several rows on narrow terminals.
	perRow := r.width / (lipgloss.Width(cards[0]) + 1)
	if perRow < 1 {
		perRow = 1
	}
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := i + perRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Chart renders the log-log spectrum with a legend.
func (r *Renderer) Chart(resp *cosmo.CalculationResponse) string {
	cols := r.width - 4
	art := plot.GetCached(resp, cols, 12)
	if art == "" {
		return boxStyle.Render(legendStyle.Render("No plottable spectrum data"))
	}
	legend := plot.ScalarStyle.Render("━ P_s(k) scalar") + "   " +
		plot.TensorStyle.Render("━ P_t(k) tensor") + "   " +
		legendStyle.Render(fmt.Sprintf("k: %d points, log-log", len(resp.SpectrumData)))
	return sectionStyle.Render("Power Spectrum") + "\n" + boxStyle.Render(art) + "\n" + legend
}

// Steps renders the derivation steps in order as markdown.
func (r *Renderer) Steps(steps []cosmo.DerivationStep) string {
	if len(steps) == 0 {
		return ""
	}
	var md strings.Builder
	md.WriteString("## Derivation\n\n")
	for i, s := range steps {
		md.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, s.Title))
		if s.Content != "" {
			md.WriteString(s.Content)
			md.WriteString("\n\n")
		}
		if s.Equation != "" {
			md.WriteString("```\n")
			md.WriteString(s.Equation)
			md.WriteString("\n```\n\n")
		}
	}
	return r.renderMarkdown(md.String())
}

// Interpretation renders the interpretation box followed by the detection
// outlook on a single unwrapped line.
func (r *Renderer) Interpretation(resp *cosmo.CalculationResponse) string {
	outlook := cosmo.Outlook(resp.Observables.R)
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Interpretation"))
	if resp.Interpretation != "" {
		b.WriteString("\n")
		b.WriteString(report.WordWrap(resp.Interpretation, r.width-4))
	}
	return boxStyle.Width(r.width).Render(b.String()) + "\n" + outlookStyle[outlook].Render(outlook)
}

func (r *Renderer) renderMarkdown(md string) string {
	if r.markdown == nil {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStylePath(r.style),
			glamour.WithWordWrap(r.width),
		)
		if err != nil {
			return md
		}
		r.markdown = tr
	}
	out, err := r.markdown.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
