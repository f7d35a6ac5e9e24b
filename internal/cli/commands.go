package cli

import (
	"fmt"

	"github.com/rileyhilliard/ghkey/internal/config"
	"github.com/rileyhilliard/ghkey/internal/errors"
	"github.com/spf13/cobra"
)

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for ghkey.

Examples:
  # Bash
  ghkey completion bash > /etc/bash_completion.d/ghkey

  # Zsh
  ghkey completion zsh > "${fpath[1]}/_ghkey"

  # Fish
  ghkey completion fish > ~/.config/fish/completions/ghkey.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration ghkey would run with, after defaults, the config
file and GHKEY_* environment overrides are applied.

The config file is the first of:
  $GHKEY_CONFIG
  ./.ghkey.yaml
  ~/.config/ghkey/config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := config.LoadOrDefault()
		if err != nil {
			return err
		}

		data, err := config.Dump(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if path == "" {
			fmt.Fprintln(out, "# no config file, using defaults")
		} else {
			fmt.Fprintf(out, "# %s\n", path)
		}
		_, err = out.Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(configCmd)
}
