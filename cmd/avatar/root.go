package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func (a *app) newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "avatar",
		Short: "Run project CLI tools from digest-pinned container images",
		Long: `avatar runs the command-line tools a project declares in
.avatar-cli/avatar-cli.yml inside containers pinned by image digest.

Start a session with 'avatar shell'. Inside it, every declared tool is on
PATH and runs in its container against the project directory.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				a.logger.SetLevel(log.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine commands and checks to stderr")

	rootCmd.AddCommand(
		a.newShellCmd(),
		a.newRunCmd(),
		a.newStatusCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// execute runs the management command tree. Errors cobra produces itself
// (unknown command, bad flags, wrong argument count) come back as usage
// errors; everything else is returned as the command produced it.
func (a *app) execute(ctx context.Context, args []string) error {
	rootCmd := a.newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{Err: err}
	})

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && strings.HasPrefix(err.Error(), "unknown command ") {
		return &usageError{Err: err}
	}
	return err
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{Err: err}
		}
		return nil
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the avatar version",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "avatar %s\n", version)
		},
	}
}
