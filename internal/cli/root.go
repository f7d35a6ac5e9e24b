package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/ghkey/internal/config"
	"github.com/rileyhilliard/ghkey/internal/ui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ghkey",
	Short: "Put this machine's SSH key on your GitHub account",
	Long: `ghkey makes sure this machine can push to GitHub over SSH.

It creates an SSH key if there isn't one yet, signs you in to GitHub and
uploads the public key unless your account already has it.

How you sign in is fixed by the build (device code or password) and can be
changed with auth.flow in the config file. See "ghkey config".`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.ConfigureColors(cmd.OutOrStdout())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := config.LoadOrDefault()
		if err != nil {
			return err
		}

		env := newEnvironment(cmd.OutOrStdout(), cfg)
		if path != "" {
			env.log.Debug("config: %s", path)
		}

		_, err = provisionKey(cmd.Context(), cfg, env)
		return err
	},
}

// Execute runs the root command and exits with its status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command tree with args and returns the process exit
// status: 0 on success, 1 on any failure, which is reported to stderr.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
