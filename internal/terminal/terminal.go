package terminal

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTerminal returns true if stdout is a terminal.
func IsStdoutTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsInteractive returns true when both stdin and stdout are terminals,
// the only case where a pseudo-TTY should be requested for a container.
// Pipes and scripts get plain attached stdin.
func IsInteractive() bool {
	return IsTerminal() && IsStdoutTerminal()
}
