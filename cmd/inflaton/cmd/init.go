package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/f3rmion/inflaton/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize inflaton configuration",
	Long: `Initialize inflaton configuration files in your config directory.

This creates:
  - config.yaml     (model, endpoint, request timeout, history database)
  - templates.yaml  (quick-insert phrases bound to alt+1..alt+9 in the TUI)

The API key is best left out of config.yaml; export GEMINI_API_KEY instead.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "overwrite existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	configDir := getConfigDir()
	out := cmd.OutOrStdout()

	configPath := filepath.Join(configDir, config.ConfigFile)
	templatesPath := filepath.Join(configDir, config.TemplatesFile)

	if !force {
		for _, path := range []string{configPath, templatesPath} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
		}
	}

	if err := config.EnsureDir(configDir); err != nil {
		return err
	}

	fmt.Fprintf(out, "Initializing inflaton configuration in %s\n\n", configDir)

	defaults := config.Default(configDir)
	if err := config.SaveConfig(configPath, defaults); err != nil {
		return err
	}
	fmt.Fprintf(out, "  Created %s\n", config.ConfigFile)

	if err := config.SaveTemplates(templatesPath, defaults.Templates); err != nil {
		return err
	}
	fmt.Fprintf(out, "  Created %s\n", config.TemplatesFile)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration initialized!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. export GEMINI_API_KEY=...")
	fmt.Fprintln(out, "  2. Run 'inflaton analyze \"Starobinsky inflation\"' to test a request")
	fmt.Fprintln(out, "  3. Run 'inflaton' to open the interactive TUI")

	return nil
}
