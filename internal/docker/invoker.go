package docker

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/avatar-cli/avatar/internal/constants"
	"github.com/avatar-cli/avatar/internal/document"
	"github.com/avatar-cli/avatar/internal/logging"
	"github.com/avatar-cli/avatar/internal/project"
	"github.com/avatar-cli/avatar/internal/terminal"
)

// Request describes one tool invocation.
type Request struct {
	// Token is exported into the container so nested invocations can see
	// they already run inside a session.
	Token       string
	ProjectRoot string
	WorkingDir  string
	Binary      document.BinaryConfig
	// Args are forwarded verbatim to the in-image executable.
	Args []string
}

// PreconditionError means Invoke was reached with a working directory
// outside the project. Containment is checked upstream, so this is a
// programming defect, not a user error.
type PreconditionError struct {
	ProjectRoot string
	WorkingDir  string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated: working directory '%s' is not inside project directory '%s'", e.WorkingDir, e.ProjectRoot)
}

// ExecError means the process could not be replaced.
type ExecError struct {
	Path string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to exec %s: %v", e.Path, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

type (
	// ExecFunc replaces the current process. It returns only on failure.
	ExecFunc func(path string, args []string, env []string) error

	// InvokerOption configures an Invoker.
	InvokerOption func(*Invoker)
)

// Invoker builds and executes `run` command lines.
type Invoker struct {
	engine      Engine
	interactive func() bool
	ids         func() (int, int)
	environ     func() []string
	exec        ExecFunc
	logger      *log.Logger
}

// NewInvoker creates an Invoker on top of engine.
func NewInvoker(engine Engine, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		engine:      engine,
		interactive: terminal.IsInteractive,
		ids:         hostIDs,
		environ:     os.Environ,
		exec:        execSyscall,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// WithInteractive overrides the stdin/stdout terminal probe.
func WithInteractive(fn func() bool) InvokerOption {
	return func(inv *Invoker) { inv.interactive = fn }
}

// WithHostIDs overrides the uid/gid lookup.
func WithHostIDs(fn func() (uid, gid int)) InvokerOption {
	return func(inv *Invoker) { inv.ids = fn }
}

// WithEnviron overrides the environment passed to the engine client.
func WithEnviron(fn func() []string) InvokerOption {
	return func(inv *Invoker) { inv.environ = fn }
}

// WithExec overrides the process replacement primitive.
func WithExec(fn ExecFunc) InvokerOption {
	return func(inv *Invoker) { inv.exec = fn }
}

// WithInvokerLogger sets the debug logger.
func WithInvokerLogger(l *log.Logger) InvokerOption {
	return func(inv *Invoker) {
		if l != nil {
			inv.logger = l
		}
	}
}

// Args returns the engine arguments (without the program name) for req.
func (inv *Invoker) Args(req Request) ([]string, error) {
	workdir, err := containerWorkdir(req.ProjectRoot, req.WorkingDir)
	if err != nil {
		return nil, err
	}

	args := []string{"run", "--rm", "--init", "-i"}
	if inv.interactive() {
		args = append(args, "-t")
	}

	uid, gid := inv.ids()
	args = append(args,
		"--user", fmt.Sprintf("%d:%d", uid, gid),
		"--mount", bindMount(req.ProjectRoot, constants.MountPoint),
		"--workdir", workdir,
		"--env", constants.EnvSessionToken+"="+req.Token,
		req.Binary.Reference(),
		req.Binary.Path,
	)
	return append(args, req.Args...), nil
}

// Invoke replaces the current process with the engine running req. It
// never returns on success.
func (inv *Invoker) Invoke(req Request) error {
	enginePath, err := inv.engine.Path()
	if err != nil {
		return err
	}

	args, err := inv.Args(req)
	if err != nil {
		return err
	}

	argv := append([]string{inv.engine.Name()}, args...)
	inv.logger.Debug("exec", "engine", enginePath, "argv", strings.Join(argv, " "))

	if err := inv.exec(enginePath, argv, inv.environ()); err != nil {
		return &ExecError{Path: enginePath, Err: err}
	}
	return nil
}

// containerWorkdir maps wd below root onto the mount point.
func containerWorkdir(root, wd string) (string, error) {
	if err := project.CheckWithin(root, wd); err != nil {
		return "", &PreconditionError{ProjectRoot: root, WorkingDir: wd}
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(wd))
	if err != nil {
		return "", &PreconditionError{ProjectRoot: root, WorkingDir: wd}
	}
	return path.Join(constants.MountPoint, filepath.ToSlash(rel)), nil
}

// bindMount renders a --mount value. The engine parses it as a CSV record,
// so a field holding a comma or quote is quoted.
func bindMount(source, target string) string {
	return strings.Join([]string{
		"type=bind",
		csvField("source=" + source),
		csvField("target=" + target),
	}, ",")
}

func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExecProcess replaces the current process with path. It never returns on
// success. Used for the session shell, which is not a container.
func ExecProcess(path string, argv []string, env []string) error {
	if err := execSyscall(path, argv, env); err != nil {
		return &ExecError{Path: path, Err: err}
	}
	return nil
}
