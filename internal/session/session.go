package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/avatar-cli/avatar/internal/constants"
	"github.com/avatar-cli/avatar/internal/project"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// AlreadyActiveError is returned when a session is started from inside
// another one.
type AlreadyActiveError struct {
	Token string
}

func (e *AlreadyActiveError) Error() string {
	return fmt.Sprintf("you are already in an avatar session (with token '%s')", e.Token)
}

// NotInProjectError is returned when no project root encloses Dir.
type NotInProjectError struct {
	Dir string
}

func (e *NotInProjectError) Error() string {
	return fmt.Sprintf("'%s' is not inside an avatar project directory", e.Dir)
}

// Session is a freshly started session, owned by one shell process.
type Session struct {
	Token string
	Paths project.Paths
}

// Begin starts a session for the project enclosing the working directory.
// It refuses to nest sessions.
func Begin(ctx Context) (*Session, error) {
	if ctx.InSession() {
		return nil, &AlreadyActiveError{Token: ctx.Token}
	}

	root, ok := project.Locate(ctx.WorkingDir)
	if !ok {
		return nil, &NotInProjectError{Dir: ctx.WorkingDir}
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, Paths: project.Layout(root)}, nil
}

// ProjectPath returns the project root.
func (s *Session) ProjectPath() string { return s.Paths.Root }

// ConfigPath returns the project config path.
func (s *Session) ConfigPath() string { return s.Paths.Config }

// LockPath returns the locked config path.
func (s *Session) LockPath() string { return s.Paths.Lock }

// StatePath returns the session state path.
func (s *Session) StatePath() string { return s.Paths.State }

// Vars returns the session variables exported to the session shell.
func (s *Session) Vars() map[string]string {
	return map[string]string{
		constants.EnvProjectPath:  s.Paths.Root,
		constants.EnvConfigPath:   s.Paths.Config,
		constants.EnvLockPath:     s.Paths.Lock,
		constants.EnvStatePath:    s.Paths.State,
		constants.EnvSessionToken: s.Token,
	}
}

// Environ returns base with the session variables set and the shim
// directory prepended to pathVar. Existing entries for those variables
// are replaced.
func (s *Session) Environ(base []string, pathVar string) []string {
	vars := s.Vars()
	vars["PATH"] = s.Paths.Shims
	if pathVar != "" {
		vars["PATH"] = s.Paths.Shims + ":" + pathVar
	}

	env := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, override := vars[key]; override {
			continue
		}
		env = append(env, kv)
	}
	for _, key := range []string{
		"PATH",
		constants.EnvConfigPath,
		constants.EnvLockPath,
		constants.EnvProjectPath,
		constants.EnvSessionToken,
		constants.EnvStatePath,
	} {
		env = append(env, key+"="+vars[key])
	}
	return env
}

// NewToken returns a random alphanumeric session token.
func NewToken() (string, error) {
	size := big.NewInt(int64(len(tokenAlphabet)))
	var b strings.Builder
	b.Grow(constants.SessionTokenLength)
	for i := 0; i < constants.SessionTokenLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("failed to generate session token: %w", err)
		}
		b.WriteByte(tokenAlphabet[n.Int64()])
	}
	return b.String(), nil
}
