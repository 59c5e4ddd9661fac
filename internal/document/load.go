package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrorKind classifies a LoadError.
type ErrorKind int

const (
	// KindMissing means the path does not exist or is not a regular file.
	KindMissing ErrorKind = iota
	// KindPermission means the file exists but cannot be read.
	KindPermission
	// KindIO covers any other read failure.
	KindIO
	// KindMalformed means the contents could not be parsed or validated.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindPermission:
		return "permission denied"
	case KindIO:
		return "i/o error"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// LoadError describes why a document could not be loaded. Line and Column
// are 1-based and zero when the parser did not report a location.
type LoadError struct {
	Kind    ErrorKind
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case KindMissing:
		return fmt.Sprintf("file '%s' does not exist or is not a regular file", e.Path)
	case KindMalformed:
		switch {
		case e.Line > 0 && e.Column > 0:
			return fmt.Sprintf("malformed file '%s' at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
		case e.Line > 0:
			return fmt.Sprintf("malformed file '%s' at line %d: %s", e.Path, e.Line, e.Message)
		default:
			return fmt.Sprintf("malformed file '%s': %s", e.Path, e.Message)
		}
	default:
		return fmt.Sprintf("unable to read '%s' (%s): %v", e.Path, e.Kind, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// yaml.v3 reports locations as "line N: message" inside its error text.
var yamlLineRegex = regexp.MustCompile(`line (\d+): (.*)`)

// LoadProjectConfig loads the project config at path.
func LoadProjectConfig(path string) (*ProjectConfig, Hash, error) {
	var cfg ProjectConfig
	h, err := loadAndHash(path, &cfg)
	if err != nil {
		return nil, "", err
	}
	return &cfg, h, nil
}

// LoadLockedConfig loads and validates the locked config at path.
func LoadLockedConfig(path string) (*LockedConfig, Hash, error) {
	var lock LockedConfig
	h, err := loadAndHash(path, &lock)
	if err != nil {
		return nil, "", err
	}
	if err := lock.validate(); err != nil {
		return nil, "", &LoadError{Kind: KindMalformed, Path: path, Message: err.Error(), Err: err}
	}
	return &lock, h, nil
}

// LoadSessionState loads and validates the session state at path.
func LoadSessionState(path string) (*SessionState, Hash, error) {
	var state SessionState
	h, err := loadAndHash(path, &state)
	if err != nil {
		return nil, "", err
	}
	if err := (*LockedConfig)(&state).validate(); err != nil {
		return nil, "", &LoadError{Kind: KindMalformed, Path: path, Message: err.Error(), Err: err}
	}
	return &state, h, nil
}

// loadAndHash reads path, hashes the raw bytes and decodes them into out.
func loadAndHash(path string, out any) (Hash, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", &LoadError{Kind: KindMissing, Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		kind := KindIO
		if errors.Is(err, fs.ErrPermission) {
			kind = KindPermission
		}
		return "", &LoadError{Kind: kind, Path: path, Err: err}
	}

	h := HashBytes(data)

	if err := yaml.Unmarshal(data, out); err != nil {
		return "", malformed(path, err)
	}
	return h, nil
}

func malformed(path string, err error) *LoadError {
	le := &LoadError{Kind: KindMalformed, Path: path, Message: err.Error(), Err: err}

	msg := err.Error()
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}
	if m := yamlLineRegex.FindStringSubmatch(msg); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			le.Line = line
			le.Message = m[2]
		}
	}
	return le
}
