// Package logging builds the stderr logger shared by the avatar commands.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Prefix is printed in front of every log line.
const Prefix = "avatar"

// New returns a logger writing to w at the given level name. An empty
// level means "warn".
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.WarnLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	return log.NewWithOptions(w, log.Options{
		Prefix: Prefix,
		Level:  lvl,
	}), nil
}

// Discard returns a logger that drops everything. Components use it when
// no logger is configured.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
