package cmd

import (
	"fmt"
	"os"

	"github.com/meysamhadeli/smartlint/constants/lipgloss"
	"github.com/meysamhadeli/smartlint/dispatcher"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Print the effective configuration after every source is applied",
	Long: `The 'config' command prints the configuration a run in this directory would
use, as YAML: defaults, then the config file, the environment, the project
override script and the command-line flags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd, args)
		if err != nil {
			return err
		}
		defer rootDependencies.Logger.Sync() //nolint:errcheck
		return handleConfigCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func handleConfigCommand(deps *RootDependencies) error {
	cfg := deps.Config

	if cfg.ConfigFile != "" {
		fmt.Fprintln(os.Stdout, lipgloss.Gray.Render("# config file: "+cfg.ConfigFile))
	}
	for _, key := range cfg.OverrideKeys {
		fmt.Fprintln(os.Stdout, lipgloss.Gray.Render(fmt.Sprintf("# %s set by %s", key, cfg.OverrideFile)))
	}

	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return &ExitError{Code: dispatcher.ExitConfigError, Err: fmt.Errorf("failed to encode configuration: %w", err)}
	}
	return encoder.Close()
}
