// Package report renders a calculation response for the CLI and clipboard.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/f3rmion/inflaton/internal/cosmo"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, yaml or json)", s)
	}
}

// Write renders resp to w in the given format.
func Write(w io.Writer, resp *cosmo.CalculationResponse, f Format, width int) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, Text(resp, width))
		return err
	}
}

// Text renders a plain-text report.
func Text(resp *cosmo.CalculationResponse, width int) string {
	if width <= 0 {
		width = 80
	}
	var sb strings.Builder

	sb.WriteString(resp.TheoryName)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", runewidth.StringWidth(resp.TheoryName)))
	sb.WriteString("\n")
	if resp.PotentialForm != "" {
		sb.WriteString(fmt.Sprintf("Potential: %s\n", resp.PotentialForm))
	}

	sb.WriteString("\nObservables:\n")
	for _, s := range resp.Observables.Stats() {
		sb.WriteString(fmt.Sprintf("  %-4s %s\n", s.Label, s.Value))
	}

	if len(resp.DerivationSteps) > 0 {
		sb.WriteString("\nDerivation:\n")
		for i, step := range resp.DerivationSteps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step.Title))
			if step.Content != "" {
				sb.WriteString(indent(WordWrap(step.Content, width-5), "     "))
				sb.WriteString("\n")
			}
			if step.Equation != "" {
				sb.WriteString(fmt.Sprintf("     %s\n", step.Equation))
			}
		}
	}

	if len(resp.SpectrumData) > 0 {
		sb.WriteString("\nPower spectrum:\n")
		sb.WriteString(fmt.Sprintf("  %-12s %-12s %-12s\n", "k [Mpc^-1]", "P_s", "P_t"))
		for _, p := range resp.SpectrumData {
			sb.WriteString(fmt.Sprintf("  %-12.4g %-12.4g %-12.4g\n", p.K, p.Scalar, p.Tensor))
		}
	}

	sb.WriteString("\nInterpretation:\n")
	if resp.Interpretation != "" {
		sb.WriteString(indent(WordWrap(resp.Interpretation, width-2), "  "))
		sb.WriteString("\n")
	}
	// Outlook is never wrapped.
	sb.WriteString("  " + cosmo.Outlook(resp.Observables.R))
	sb.WriteString("\n")

	return sb.String()
}

// Summary is the short form copied to the clipboard.
func Summary(resp *cosmo.CalculationResponse) string {
	var parts []string
	for _, s := range resp.Observables.Stats() {
		parts = append(parts, s.Label+" = "+s.Value)
	}
	return resp.TheoryName + ": " + strings.Join(parts, ", ") + "\n" + cosmo.Outlook(resp.Observables.R)
}

// WordWrap wraps s at width display columns.
func WordWrap(s string, width int) string {
	if width <= 0 {
		width = 60
	}
	var lines []string
	var currentLine strings.Builder
	currentWidth := 0

	words := strings.Fields(s)
	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)
		if currentWidth+wordWidth+1 > width && currentWidth > 0 {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentWidth = 0
		}
		if currentWidth > 0 {
			currentLine.WriteString(" ")
			currentWidth++
		}
		currentLine.WriteString(word)
		currentWidth += wordWidth
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}
	return strings.Join(lines, "\n")
}

func indent(s, prefix string) string {
	if s == "" {
		return s
	}
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
