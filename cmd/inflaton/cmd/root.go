// Package cmd contains all CLI commands for inflaton.
package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/f3rmion/inflaton/internal/config"
	"github.com/f3rmion/inflaton/internal/history"
	"github.com/f3rmion/inflaton/internal/llm"
	"github.com/f3rmion/inflaton/internal/logging"
	"github.com/f3rmion/inflaton/internal/session"
	"github.com/f3rmion/inflaton/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgDir string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inflaton",
	Short: "Derive inflationary observables from a theory description",
	Long: `inflaton sends a free-text description of an inflation model (an action,
a potential, or just a name such as "Starobinsky inflation") to the Gemini API
and shows the slow-roll derivation it returns:

  - spectral index n_s, tensor-to-scalar ratio r, amplitude A_s
  - tensor index n_t and running alpha_s when available
  - the scalar and tensor power spectra on log-log axes
  - an interpretation and a detection outlook for primordial B-modes

Running 'inflaton' without arguments launches the interactive TUI.
Set GEMINI_API_KEY (or INFLATON_API_KEY) before running.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default is $HOME/.config/inflaton)")
	rootCmd.PersistentFlags().Bool("verbose", false, "debug logging")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig registers defaults for the chosen config directory.
func initConfig() {
	dir := cfgDir
	if dir == "" {
		d, err := config.GetConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding config directory:", err)
			os.Exit(1)
		}
		dir = d
	}

	config.SetDefaults(viper.GetViper(), dir)
	viper.Set("config_dir", dir)
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	return viper.GetString("config_dir")
}

// env bundles what the commands share.
type env struct {
	cfg *config.Config
	dir string
	log *zap.Logger

	analyzer    llm.Analyzer
	analyzerErr error
}

// newAnalyzer builds the remote model client. Tests replace it.
var newAnalyzer = func(ctx context.Context, cfg *config.Config, log *zap.Logger) (llm.Analyzer, error) {
	c, err := llm.NewClient(ctx, llm.Options{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// loadEnv reads the configuration and creates the logger and the client.
// A client error is kept in analyzerErr so the TUI can still start.
func loadEnv(ctx context.Context) (*env, error) {
	dir := getConfigDir()
	v := viper.GetViper()
	if err := config.ReadInto(v, dir); err != nil {
		return nil, err
	}
	cfg, err := config.FromViper(v, dir)
	if err != nil {
		return nil, err
	}

	if cfg.LogFile != "" {
		if err := config.EnsureDir(dir); err != nil {
			return nil, err
		}
	}
	log, err := logging.New(cfg.LogFile, cfg.Verbose)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, dir: dir, log: log}
	e.analyzer, e.analyzerErr = newAnalyzer(ctx, cfg, log)
	if e.analyzerErr != nil {
		log.Warn("model client unavailable", zap.Error(e.analyzerErr))
		e.analyzer = llm.Unavailable(e.analyzerErr)
	}
	return e, nil
}

// openStore opens the history database, or returns nil when disabled.
func (e *env) openStore() (*history.Store, error) {
	if e.cfg.HistoryDB == "" {
		return nil, nil
	}
	return history.Open(e.cfg.HistoryDB, e.log)
}

func (e *env) newController() *session.Controller {
	return session.New(e.analyzer, session.WithModelName(e.cfg.Model))
}

// runTUI launches the TUI application.
func runTUI(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.log.Sync()

	store, err := e.openStore()
	if err != nil {
		e.log.Warn("history disabled", zap.Error(err))
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	p := tea.NewProgram(
		tui.NewApp(tui.Deps{
			Config:     e.cfg,
			ConfigDir:  e.dir,
			Controller: e.newController(),
			Store:      store,
			KeySource:  llm.KeySource(e.cfg.APIKey),
			Logger:     e.log,
		}),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}
