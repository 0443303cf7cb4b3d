package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/f3rmion/inflaton/internal/chart"
	"github.com/f3rmion/inflaton/internal/report"
	"github.com/f3rmion/inflaton/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [theory...]",
	Short: "Derive the observables of an inflation theory",
	Long: `Send a theory description to the model and print the derivation,
observables and interpretation.

The theory is read from the arguments, or from stdin when none are given.
Run log lines are written to stderr.

Example:
  inflaton analyze "Starobinsky inflation"
  inflaton analyze --format json "V(phi) = lambda phi^4" > quartic.json
  echo "Higgs inflation" | inflaton analyze --chart higgs.png`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("format", "f", "text", "output format: text, yaml or json")
	analyzeCmd.Flags().String("chart", "", "write the power spectrum chart to this PNG file")
	analyzeCmd.Flags().Bool("no-save", false, "do not record the run in history")
	analyzeCmd.Flags().Int("width", 80, "wrap width for text output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	chartPath, _ := cmd.Flags().GetString("chart")
	noSave, _ := cmd.Flags().GetBool("no-save")
	width, _ := cmd.Flags().GetInt("width")

	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	theory := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading theory from stdin: %w", err)
		}
		theory = string(data)
	}

	ctx := cmd.Context()
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	defer e.log.Sync()
	if e.analyzerErr != nil {
		return e.analyzerErr
	}

	ctrl := e.newController()
	ctrl.SetInput(theory)
	runErr := ctrl.RunSync(ctx)

	stderr := cmd.ErrOrStderr()
	for _, l := range ctrl.Logs() {
		fmt.Fprintln(stderr, l)
	}
	switch {
	case errors.Is(runErr, session.ErrEmptyInput):
		return errors.New("no theory given: pass it as arguments or on stdin")
	case runErr != nil:
		return runErr
	}

	resp := ctrl.Result()
	if err := report.Write(cmd.OutOrStdout(), resp, format, width); err != nil {
		return err
	}

	if chartPath != "" {
		if err := chart.SaveFile(chartPath, resp.SpectrumData, chart.DefaultOptions()); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		fmt.Fprintf(stderr, "Chart written to %s\n", chartPath)
	}

	if noSave {
		return nil
	}
	store, err := e.openStore()
	if err != nil {
		e.log.Warn("history disabled", zap.Error(err))
		return nil
	}
	if store == nil {
		return nil
	}
	defer store.Close()

	id, err := store.Save(ctx, strings.TrimSpace(theory), resp)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Saved as %s\n", id[:8])
	return nil
}
