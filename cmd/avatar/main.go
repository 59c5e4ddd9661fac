package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/avatar-cli/avatar/internal/config"
	"github.com/avatar-cli/avatar/internal/constants"
	"github.com/avatar-cli/avatar/internal/exitcode"
	"github.com/avatar-cli/avatar/internal/logging"
	"github.com/avatar-cli/avatar/internal/platform"
	"github.com/avatar-cli/avatar/internal/session"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args)
	stop()
	os.Exit(int(code))
}

// run dispatches on the name the binary was invoked under: the management
// names get the cobra command tree, any other name is a tool shim.
func run(ctx context.Context, args []string) exitcode.Code {
	if err := platform.Check(); err != nil {
		return report(os.Stderr, nil, err)
	}

	settings, err := config.Load("")
	if err != nil {
		return report(os.Stderr, nil, &settingsError{Err: err})
	}
	logger, err := logging.New(os.Stderr, settings.LogLevel)
	if err != nil {
		return report(os.Stderr, nil, &settingsError{Err: err})
	}

	sc, err := session.FromEnvironment()
	if err != nil {
		return report(os.Stderr, logger, err)
	}

	a := newApp(sc, settings, logger, os.Stdout, os.Stderr)

	args = withProgramName(args)
	name := invocationName(args)
	if isManagementName(name) {
		return a.report(a.execute(ctx, args[1:]))
	}
	logger.Debug("tool mode", "tool", name)
	return a.report(a.runTool(name, args[1:]))
}

// withProgramName returns args, or a bare management invocation when the
// caller passed no argv at all.
func withProgramName(args []string) []string {
	if len(args) == 0 {
		return []string{constants.ManagementNames[0]}
	}
	return args
}

// invocationName returns the base name of argv[0], without a Windows
// executable suffix.
func invocationName(args []string) string {
	if len(args) == 0 {
		return constants.ManagementNames[0]
	}
	name := filepath.Base(args[0])
	return strings.TrimSuffix(name, ".exe")
}

func isManagementName(name string) bool {
	return slices.Contains(constants.ManagementNames, name)
}
