package main

import (
	"io"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/avatar-cli/avatar/internal/config"
	"github.com/avatar-cli/avatar/internal/docker"
	"github.com/avatar-cli/avatar/internal/images"
	"github.com/avatar-cli/avatar/internal/session"
)

// app carries what every command needs. It is built once per process from
// the environment and passed down explicitly.
type app struct {
	sc       session.Context
	settings config.Settings
	logger   *log.Logger
	stdout   io.Writer
	stderr   io.Writer

	engine      docker.Engine
	invokerOpts []docker.InvokerOption

	// exec replaces the process with the session shell.
	exec     docker.ExecFunc
	lookPath func(string) (string, error)
}

func newApp(sc session.Context, settings config.Settings, logger *log.Logger, stdout, stderr io.Writer) *app {
	engine := docker.NewManager(settings.Engine,
		docker.WithTimeout(settings.EngineTimeout),
		docker.WithLogger(logger),
	)
	return &app{
		sc:       sc,
		settings: settings,
		logger:   logger,
		stdout:   stdout,
		stderr:   stderr,
		engine:   engine,
		exec:     docker.ExecProcess,
		lookPath: exec.LookPath,
	}
}

func (a *app) gate() images.Gate {
	return images.NewPresenceGate(a.engine, a.logger)
}

func (a *app) invoker() *docker.Invoker {
	opts := []docker.InvokerOption{
		docker.WithInvokerLogger(a.logger),
		docker.WithEnviron(func() []string { return a.sc.Environ }),
	}
	return docker.NewInvoker(a.engine, append(opts, a.invokerOpts...)...)
}
