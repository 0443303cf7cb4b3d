package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/f3rmion/inflaton/internal/chart"
	"github.com/f3rmion/inflaton/internal/history"
	"github.com/f3rmion/inflaton/internal/report"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show and delete saved analyses",
	Long: `Every successful analysis is saved to the history database
(history_db in config.yaml). Runs are addressed by their id or any
unambiguous prefix of it.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved analyses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyChartCmd = &cobra.Command{
	Use:   "chart <id> <out.png>",
	Short: "Write the power spectrum chart of a saved analysis",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryChart,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyChartCmd, historyDeleteCmd)

	historyListCmd.Flags().IntP("limit", "n", 20, "maximum number of runs (0 for all)")
	historyShowCmd.Flags().StringP("format", "f", "text", "output format: text, yaml or json")
}

// withStore opens the history database for a subcommand.
func withStore(cmd *cobra.Command, fn func(*history.Store) error) error {
	e, err := loadEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.log.Sync()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("history is disabled: set history_db in %s", getConfigDir())
	}
	defer store.Close()

	return fn(store)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	return withStore(cmd, func(s *history.Store) error {
		entries, err := s.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No saved runs.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tTHEORY\tN_S\tR")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%.5f\n",
				e.ID[:8], e.CreatedAt.Format("2006-01-02 15:04"), e.TheoryName, e.Ns, e.R)
		}
		return tw.Flush()
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	return withStore(cmd, func(s *history.Store) error {
		e, err := s.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if format == report.FormatText {
			fmt.Fprintf(out, "Run %s, %s\nInput: %s\n\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Input)
		}
		return report.Write(out, e.Response, format, 80)
	})
}

func runHistoryChart(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(s *history.Store) error {
		e, err := s.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := chart.SaveFile(args[1], e.Response.SpectrumData, chart.DefaultOptions()); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", args[1])
		return nil
	})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(s *history.Store) error {
		e, err := s.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := s.Delete(cmd.Context(), e.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", e.ID[:8], e.TheoryName)
		return nil
	})
}
