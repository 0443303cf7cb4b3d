package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/f3rmion/inflaton/internal/config"
	"github.com/f3rmion/inflaton/internal/cosmo"
	"github.com/f3rmion/inflaton/internal/llm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAnalyzer struct {
	resp *cosmo.CalculationResponse
	err  error
}

func (f fakeAnalyzer) Analyze(context.Context, string) (*cosmo.CalculationResponse, error) {
	return f.resp, f.err
}

func starobinsky() *cosmo.CalculationResponse {
	return &cosmo.CalculationResponse{
		TheoryName:      "Starobinsky",
		DerivationSteps: []cosmo.DerivationStep{{Title: "Potential", Content: "Einstein frame potential."}},
		Observables:     cosmo.ObservableResult{Ns: 0.965, R: 0.003, As: 2.1e-9},
		SpectrumData: []cosmo.SpectrumPoint{
			{K: 1e-4, Scalar: 2.3e-9, Tensor: 6.9e-12},
			{K: 0.05, Scalar: 2.1e-9, Tensor: 6.3e-12},
			{K: 1, Scalar: 1.9e-9, Tensor: 6.0e-12},
		},
		Interpretation: "Plateau model.",
	}
}

func useAnalyzer(t *testing.T, a llm.Analyzer, err error) {
	t.Helper()
	orig := newAnalyzer
	newAnalyzer = func(context.Context, *config.Config, *zap.Logger) (llm.Analyzer, error) {
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	t.Cleanup(func() { newAnalyzer = orig })
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI with a private config directory.
func execute(t *testing.T, dir, stdin string, args ...string) (string, string, error) {
	t.Helper()
	for _, name := range llm.APIKeyEnvVars {
		t.Setenv(name, "")
	}

	viper.Reset()
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", dir}, args...))

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAnalyzeText(t *testing.T) {
	useAnalyzer(t, fakeAnalyzer{resp: starobinsky()}, nil)
	dir := t.TempDir()

	out, errOut, err := execute(t, dir, "", "analyze", "--no-save", "Starobinsky", "Inflation")
	require.NoError(t, err)

	assert.Contains(t, out, "Starobinsky\n===========")
	assert.Contains(t, out, "0.00300")
	assert.Contains(t, out, cosmo.OutlookFuture)
	assert.Contains(t, errOut, "Parsing action: Starobinsky Inflation")
	assert.Contains(t, errOut, "Derivation complete")
	assert.NoFileExists(t, filepath.Join(dir, "history.db"))
}

func TestAnalyzeJSONFromStdin(t *testing.T) {
	useAnalyzer(t, fakeAnalyzer{resp: starobinsky()}, nil)
	dir := t.TempDir()
	chartPath := filepath.Join(dir, "out", "spectrum.png")

	out, _, err := execute(t, dir, "R + R^2 gravity\n", "analyze", "--no-save", "--format", "json", "--chart", chartPath)
	require.NoError(t, err)

	resp, err := cosmo.Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Starobinsky", resp.TheoryName)
	assert.FileExists(t, chartPath)
}

func TestAnalyzeErrors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		useAnalyzer(t, fakeAnalyzer{resp: starobinsky()}, nil)
		_, _, err := execute(t, t.TempDir(), "   \n", "analyze")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no theory given")
	})

	t.Run("request failure", func(t *testing.T) {
		useAnalyzer(t, fakeAnalyzer{err: errors.New("network timeout")}, nil)
		_, errOut, err := execute(t, t.TempDir(), "", "analyze", "phi^4")
		require.Error(t, err)
		assert.Equal(t, "network timeout", err.Error())
		assert.Contains(t, errOut, "Error: calculation failed.")
	})

	t.Run("no api key", func(t *testing.T) {
		useAnalyzer(t, nil, llm.ErrNoAPIKey)
		_, _, err := execute(t, t.TempDir(), "", "analyze", "phi^4")
		assert.ErrorIs(t, err, llm.ErrNoAPIKey)
	})

	t.Run("bad format", func(t *testing.T) {
		useAnalyzer(t, fakeAnalyzer{resp: starobinsky()}, nil)
		_, _, err := execute(t, t.TempDir(), "", "analyze", "--format", "xml", "phi^4")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown format")
	})
}

func TestHistoryCommands(t *testing.T) {
	useAnalyzer(t, fakeAnalyzer{resp: starobinsky()}, nil)
	dir := t.TempDir()

	_, errOut, err := execute(t, dir, "", "analyze", "Starobinsky Inflation")
	require.NoError(t, err)
	require.Contains(t, errOut, "Saved as ")
	id := strings.TrimSpace(errOut[strings.Index(errOut, "Saved as ")+len("Saved as "):])
	require.Len(t, id, 8)

	out, _, err := execute(t, dir, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "0.9650")

	out, _, err = execute(t, dir, "", "history", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Input: Starobinsky Inflation")
	assert.Contains(t, out, "0.00300")

	chartPath := filepath.Join(dir, "saved.png")
	_, _, err = execute(t, dir, "", "history", "chart", id, chartPath)
	require.NoError(t, err)
	assert.FileExists(t, chartPath)

	out, _, err = execute(t, dir, "", "history", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	out, _, err = execute(t, dir, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved runs.")
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inflaton")

	out, _, err := execute(t, dir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created config.yaml")
	assert.Contains(t, out, "Created templates.yaml")

	cfg, err := config.LoadConfig(filepath.Join(dir, config.ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, llm.DefaultModel, cfg.Model)

	templates, err := config.LoadTemplates(filepath.Join(dir, config.TemplatesFile))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTemplates(), templates)

	_, _, err = execute(t, dir, "", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, os.WriteFile(filepath.Join(dir, config.TemplatesFile), []byte("templates: []\n"), 0644))
	_, _, err = execute(t, dir, "", "init", "--force")
	require.NoError(t, err)
	templates, err = config.LoadTemplates(filepath.Join(dir, config.TemplatesFile))
	require.NoError(t, err)
	assert.Len(t, templates, len(config.DefaultTemplates()))
}
