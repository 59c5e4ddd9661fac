// Package session owns the lifecycle of an avatar shell session: nested
// session detection, token generation, the environment handed to the
// session shell, and the re-verification every in-session invocation runs.
package session

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/avatar-cli/avatar/internal/constants"
)

// Context is everything this package reads from the process environment.
// It is built once at start-up and passed down explicitly.
type Context struct {
	// Token is the session token; HasToken is true when the variable is
	// set, even to an empty value.
	Token    string
	HasToken bool

	ProjectPath string
	ConfigPath  string
	LockPath    string
	StatePath   string

	WorkingDir string
	Shell      string
	Path       string
	HasPath    bool

	// Environ is the full process environment, the base for child
	// processes.
	Environ []string
}

// WorkingDirError means the current directory could not be determined.
type WorkingDirError struct {
	Err error
}

func (e *WorkingDirError) Error() string {
	return fmt.Sprintf("unable to get current working directory: %v", e.Err)
}

func (e *WorkingDirError) Unwrap() error { return e.Err }

var sessionKeys = map[string]string{
	"project_path": constants.EnvProjectPath,
	"config_path":  constants.EnvConfigPath,
	"lock_path":    constants.EnvLockPath,
	"state_path":   constants.EnvStatePath,
	"token":        constants.EnvSessionToken,
	"shell":        "SHELL",
	"path":         "PATH",
}

// FromEnvironment reads the session context from the process environment
// and the current working directory.
func FromEnvironment() (Context, error) {
	v := viper.New()
	v.AllowEmptyEnv(true)
	for key, env := range sessionKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Context{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return Context{}, &WorkingDirError{Err: err}
	}

	return Context{
		Token:       v.GetString("token"),
		HasToken:    v.IsSet("token"),
		ProjectPath: v.GetString("project_path"),
		ConfigPath:  v.GetString("config_path"),
		LockPath:    v.GetString("lock_path"),
		StatePath:   v.GetString("state_path"),
		WorkingDir:  wd,
		Shell:       v.GetString("shell"),
		Path:        v.GetString("path"),
		HasPath:     v.IsSet("path"),
		Environ:     os.Environ(),
	}, nil
}

// InSession reports whether the process runs inside an avatar session.
func (c Context) InSession() bool {
	return c.HasToken
}
