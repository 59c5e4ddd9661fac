package session

import (
	"fmt"

	"github.com/avatar-cli/avatar/internal/document"
	"github.com/avatar-cli/avatar/internal/integrity"
	"github.com/avatar-cli/avatar/internal/project"
)

// NoSessionError is returned when a tool is invoked by name outside of an
// avatar session.
type NoSessionError struct {
	Tool string
}

func (e *NoSessionError) Error() string {
	return fmt.Sprintf("'%s' was invoked outside of an avatar session", e.Tool)
}

// UnknownBinaryError is returned when the requested tool is not part of the
// verified configuration.
type UnknownBinaryError struct {
	Name string
}

func (e *UnknownBinaryError) Error() string {
	return fmt.Sprintf("'%s' is not a binary managed by this avatar project", e.Name)
}

// Resolved is a verified state plus the tool record a caller asked for.
type Resolved struct {
	Token      string
	Paths      project.Paths
	WorkingDir string
	State      *document.SessionState
	Binary     document.BinaryConfig
}

// Resume re-derives the session paths from ctx, checks that the working
// directory is still inside the project, re-verifies the integrity chain
// and resolves tool. It runs at the start of every in-session invocation.
func Resume(ctx Context, tool string) (*Resolved, error) {
	if !ctx.InSession() || ctx.ProjectPath == "" {
		return nil, &NoSessionError{Tool: tool}
	}

	paths := ctx.Paths()
	if err := project.CheckWithin(paths.Root, ctx.WorkingDir); err != nil {
		return nil, err
	}

	return resolve(paths, ctx.Token, ctx.WorkingDir, tool)
}

// Standalone resolves tool for a one-off invocation. Inside a session it
// behaves like Resume; outside it locates the project from the working
// directory and mints a correlation token.
func Standalone(ctx Context, tool string) (*Resolved, error) {
	if ctx.InSession() && ctx.ProjectPath != "" {
		return Resume(ctx, tool)
	}

	root, ok := project.Locate(ctx.WorkingDir)
	if !ok {
		return nil, &NotInProjectError{Dir: ctx.WorkingDir}
	}
	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	return resolve(project.Layout(root), token, ctx.WorkingDir, tool)
}

func resolve(paths project.Paths, token, wd, tool string) (*Resolved, error) {
	state, err := integrity.Verify(paths)
	if err != nil {
		return nil, err
	}

	binary, ok := state.Binary(tool)
	if !ok {
		return nil, &UnknownBinaryError{Name: tool}
	}

	return &Resolved{
		Token:      token,
		Paths:      paths,
		WorkingDir: wd,
		State:      state,
		Binary:     binary,
	}, nil
}

// Paths returns the session's artifact paths. Locations provided by the
// environment win; any that are unset fall back to the standard layout of
// the project path.
func (c Context) Paths() project.Paths {
	p := project.Layout(c.ProjectPath)
	if c.ConfigPath != "" {
		p.Config = c.ConfigPath
	}
	if c.LockPath != "" {
		p.Lock = c.LockPath
	}
	if c.StatePath != "" {
		p.State = c.StatePath
	}
	return p
}
