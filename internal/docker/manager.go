// Package docker drives the container engine client: it probes the local
// image store and replaces the current process with a digest-pinned
// `run` invocation.
package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/avatar-cli/avatar/internal/constants"
	"github.com/avatar-cli/avatar/internal/logging"
)

// Default timeout for engine probes
const defaultCommandTimeout = 30 * time.Second

type (
	// ExecCommandFunc creates the exec.Cmd for an engine call. Tests swap
	// it for a helper process.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// LookPathFunc resolves a binary name on the host PATH.
	LookPathFunc func(file string) (string, error)

	// Option configures a Manager.
	Option func(*Manager)
)

// EngineNotFoundError means the engine client binary is not installed.
type EngineNotFoundError struct {
	Engine string
	Err    error
}

func (e *EngineNotFoundError) Error() string {
	return fmt.Sprintf("%s client is not available: %v", e.Engine, e.Err)
}

func (e *EngineNotFoundError) Unwrap() error { return e.Err }

// ProbeError means the engine was found but could not answer a query.
type ProbeError struct {
	Engine string
	Ref    string
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("unable to use %s to inspect image %s: %v", e.Engine, e.Ref, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Manager implements Engine using the engine's CLI.
type Manager struct {
	name        string
	timeout     time.Duration
	lookPath    LookPathFunc
	execCommand ExecCommandFunc
	logger      *log.Logger
}

// NewManager creates a Manager for the named client binary. An empty name
// means docker.
func NewManager(name string, opts ...Option) *Manager {
	if name == "" {
		name = constants.DefaultEngine
	}
	m := &Manager{
		name:        name,
		timeout:     defaultCommandTimeout,
		lookPath:    exec.LookPath,
		execCommand: exec.CommandContext,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTimeout bounds every engine probe.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn LookPathFunc) Option {
	return func(m *Manager) { m.lookPath = fn }
}

// WithExecCommand replaces exec.CommandContext.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(m *Manager) { m.execCommand = fn }
}

// WithLogger sets the debug logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func (m *Manager) Name() string {
	return m.name
}

func (m *Manager) Path() (string, error) {
	path, err := m.lookPath(m.name)
	if err != nil {
		return "", &EngineNotFoundError{Engine: m.name, Err: err}
	}
	return path, nil
}

func (m *Manager) ImageExists(ctx context.Context, ref string) (bool, error) {
	path, err := m.Path()
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := m.execCommand(ctx, path, "image", "inspect", ref)
	cmd.Stdout = nil
	cmd.Stderr = &stderr
	err = cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return false, &ProbeError{Engine: m.name, Ref: ref, Err: fmt.Errorf("command timed out after %v", m.timeout)}
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		m.logger.Debug("image present", "ref", ref)
		return true, nil
	case errors.As(err, &exitErr) && isMissingImage(stderr.String()):
		m.logger.Debug("image absent", "ref", ref, "status", exitErr.ExitCode())
		return false, nil
	case errors.As(err, &exitErr):
		// Daemon unreachable, permission denied on the socket, ...
		return false, &ProbeError{Engine: m.name, Ref: ref, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
	default:
		return false, &ProbeError{Engine: m.name, Ref: ref, Err: err}
	}
}

// isMissingImage recognizes the "image not found" diagnostics of docker
// ("No such image", "No such object") and podman ("image not known").
func isMissingImage(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "no such image") ||
		strings.Contains(s, "no such object") ||
		strings.Contains(s, "image not known")
}
