package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avatar-cli/avatar/internal/integrity"
	"github.com/avatar-cli/avatar/internal/session"
)

// envError means a variable the session needs is missing from the
// environment.
type envError struct {
	Name string
}

func (e *envError) Error() string {
	return fmt.Sprintf("the environment variable %s is not set", e.Name)
}

// shellNotFoundError means the session shell could not be resolved.
type shellNotFoundError struct {
	Shell string
	Err   error
}

func (e *shellNotFoundError) Error() string {
	return fmt.Sprintf("failed to find shell %s: %v", e.Shell, e.Err)
}

func (e *shellNotFoundError) Unwrap() error { return e.Err }

func (a *app) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start a session shell for the current project",
		Long: `Start an interactive shell with the project's tools on PATH.

The config, lock and state files must agree and every pinned image must
already be present locally. Sessions cannot be nested; type 'exit' to leave.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd)
		},
	}
}

func (a *app) runShell(cmd *cobra.Command) error {
	sess, err := session.Begin(a.sc)
	if err != nil {
		return err
	}
	a.logger.Debug("project located", "root", sess.ProjectPath(), "token", sess.Token)

	state, err := integrity.Verify(sess.Paths)
	if err != nil {
		return err
	}

	if err := a.gate().EnsureAvailable(cmd.Context(), state); err != nil {
		return err
	}

	if !a.sc.HasPath {
		return &envError{Name: "PATH"}
	}

	shell := a.sc.Shell
	if shell == "" {
		shell = a.settings.Shell
	}
	shellPath, err := a.lookPath(shell)
	if err != nil {
		return &shellNotFoundError{Shell: shell, Err: err}
	}

	a.logger.Debug("starting session shell", "shell", shellPath)
	return a.exec(shellPath, []string{shell}, sess.Environ(a.sc.Environ, a.sc.Path))
}
