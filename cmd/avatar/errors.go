package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/avatar-cli/avatar/internal/constants"
	"github.com/avatar-cli/avatar/internal/docker"
	"github.com/avatar-cli/avatar/internal/document"
	"github.com/avatar-cli/avatar/internal/exitcode"
	"github.com/avatar-cli/avatar/internal/images"
	"github.com/avatar-cli/avatar/internal/integrity"
	"github.com/avatar-cli/avatar/internal/platform"
	"github.com/avatar-cli/avatar/internal/project"
	"github.com/avatar-cli/avatar/internal/session"
)

// usageError wraps argument and flag errors reported by cobra.
type usageError struct {
	Err error
}

func (e *usageError) Error() string { return e.Err.Error() }
func (e *usageError) Unwrap() error { return e.Err }

// settingsError wraps a failure to load user settings.
type settingsError struct {
	Err error
}

func (e *settingsError) Error() string { return e.Err.Error() }
func (e *settingsError) Unwrap() error { return e.Err }

// failure is how an error is shown to the user.
type failure struct {
	Code exitcode.Code
	Hint string
	// Internal failures are defects, not user errors.
	Internal bool
}

// classify maps an error to its exit code and remediation hint. It is the
// only place that knows about exit codes. known is false for errors no
// component documents.
func classify(err error) (f failure, known bool) {
	var (
		alreadyActive *session.AlreadyActiveError
		notInProject  *session.NotInProjectError
		noSession     *session.NoSessionError
		unknownBinary *session.UnknownBinaryError
		workingDir    *session.WorkingDirError
		outside       *project.OutsideProjectError
		missing       *integrity.MissingArtifactError
		stale         *integrity.StaleError
		load          *document.LoadError
		notPresent    *images.NotPresentError
		engineDown    *images.EngineUnavailableError
		engineMissing *docker.EngineNotFoundError
		precondition  *docker.PreconditionError
		execErr       *docker.ExecError
		unsupported   *platform.UnsupportedError
		env           *envError
		shellMissing  *shellNotFoundError
		settings      *settingsError
		usage         *usageError
	)

	switch {
	case errors.As(err, &alreadyActive):
		return failure{Code: exitcode.Usage, Hint: "If the environment changed, type 'exit' and run 'avatar shell' again."}, true
	case errors.As(err, &notInProject):
		return failure{Code: exitcode.Usage, Hint: fmt.Sprintf("Run avatar from a directory below one that contains %s/%s.", constants.MetadataDir, constants.ConfigFile)}, true
	case errors.As(err, &noSession):
		return failure{Code: exitcode.Usage, Hint: "Start a session with 'avatar shell', or use 'avatar run <tool>'."}, true
	case errors.As(err, &outside):
		return failure{Code: exitcode.Usage, Hint: "Change back into the project directory, or type 'exit' to leave the session."}, true
	case errors.As(err, &precondition):
		return failure{Code: exitcode.Software, Internal: true}, true
	case errors.As(err, &unknownBinary):
		return failure{Code: exitcode.UnknownTool, Hint: "Run 'avatar status' to list the tools this project declares."}, true
	case errors.As(err, &stale):
		return failure{Code: exitcode.DataErr, Hint: "Regenerate the lock and state files, then type 'exit' and start a new session."}, true
	case errors.As(err, &missing):
		return failure{Code: exitcode.NoInput, Hint: "Generate the missing file, then start a new session."}, true
	case errors.As(err, &load):
		return classifyLoad(load), true
	case errors.As(err, &notPresent):
		return failure{Code: exitcode.Unavailable, Hint: "Pull it with: " + notPresent.PullCommand()}, true
	case errors.As(err, &engineMissing):
		return failure{Code: exitcode.Unavailable, Hint: fmt.Sprintf("Install %s and make sure it is on PATH.", engineMissing.Engine)}, true
	case errors.As(err, &engineDown):
		return failure{Code: exitcode.Unavailable, Hint: "Check that the container engine daemon is running."}, true
	case errors.As(err, &execErr):
		return failure{Code: exitcode.OSErr}, true
	case errors.As(err, &workingDir):
		return failure{Code: exitcode.NoInput}, true
	case errors.As(err, &env):
		return failure{Code: exitcode.OSErr}, true
	case errors.As(err, &shellMissing):
		return failure{Code: exitcode.OSErr, Hint: "Set SHELL to an installed shell."}, true
	case errors.As(err, &unsupported):
		return failure{Code: exitcode.OSErr}, true
	case errors.As(err, &settings):
		return failure{Code: exitcode.Config}, true
	case errors.As(err, &usage):
		return failure{Code: exitcode.Usage, Hint: "Run 'avatar --help' for usage."}, true
	}
	return failure{Code: exitcode.Software, Internal: true}, false
}

func classifyLoad(err *document.LoadError) failure {
	switch err.Kind {
	case document.KindMissing:
		return failure{Code: exitcode.NoInput}
	case document.KindPermission:
		return failure{Code: exitcode.NoPerm, Hint: "Check the file's permissions."}
	case document.KindMalformed:
		return failure{Code: exitcode.DataErr, Hint: "Fix the file, or regenerate it if it is generated."}
	default:
		return failure{Code: exitcode.OSErr}
	}
}

// report prints err and returns the exit code for it. A nil err is OK.
func report(w io.Writer, logger *log.Logger, err error) exitcode.Code {
	if err == nil {
		return exitcode.OK
	}
	f, _ := classify(err)

	if f.Internal {
		if logger != nil {
			logger.Error("internal error", "err", err, "code", f.Code)
		}
		fmt.Fprintln(w, ErrorStyle.Render("avatar: internal error: "+err.Error()))
	} else {
		fmt.Fprintln(w, ErrorStyle.Render("avatar: "+err.Error()))
	}
	if f.Hint != "" {
		fmt.Fprintln(w, HintStyle.Render(f.Hint))
	}
	return f.Code
}

func (a *app) report(err error) exitcode.Code {
	if a.stderr == nil {
		return report(os.Stderr, a.logger, err)
	}
	return report(a.stderr, a.logger, err)
}
