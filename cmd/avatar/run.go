package main

import (
	"github.com/spf13/cobra"

	"github.com/avatar-cli/avatar/internal/docker"
	"github.com/avatar-cli/avatar/internal/session"
)

func (a *app) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tool> [args...]",
		Short: "Run one declared tool",
		Long: `Run one tool declared in the project config, with the given arguments.

Inside a session this behaves exactly like calling the tool by name. Outside
a session the project is located from the current directory.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStandalone(args[0], args[1:])
		},
	}
	// Everything after the tool name belongs to the tool.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// runTool is tool mode: the binary was invoked through a shim under a
// tool's name.
func (a *app) runTool(tool string, args []string) error {
	resolved, err := session.Resume(a.sc, tool)
	if err != nil {
		return err
	}
	return a.invoke(resolved, args)
}

func (a *app) runStandalone(tool string, args []string) error {
	resolved, err := session.Standalone(a.sc, tool)
	if err != nil {
		return err
	}
	return a.invoke(resolved, args)
}

func (a *app) invoke(r *session.Resolved, args []string) error {
	a.logger.Debug("invoking",
		"tool", r.Binary.Path,
		"image", r.Binary.Reference(),
		"workdir", r.WorkingDir,
	)
	return a.invoker().Invoke(docker.Request{
		Token:       r.Token,
		ProjectRoot: r.Paths.Root,
		WorkingDir:  r.WorkingDir,
		Binary:      r.Binary,
		Args:        args,
	})
}
