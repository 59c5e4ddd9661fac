// Package exitcode defines the process exit codes of the avatar binary.
// Values follow the BSD sysexits(3) convention.
package exitcode

// Code is a process exit status.
type Code int

const (
	OK Code = 0

	// Usage covers caller misuse: outside the project, nested session,
	// not inside a session, bad arguments.
	Usage Code = 64

	// DataErr signals a broken integrity chain or a malformed document.
	DataErr Code = 65

	// NoInput signals a missing config, lock or state file, or an
	// unreadable working directory.
	NoInput Code = 66

	// Unavailable signals a missing container engine or image.
	Unavailable Code = 69

	// Software signals an internal invariant violation.
	Software Code = 70

	// OSErr signals an operating system failure such as a failed exec.
	OSErr Code = 71

	// NoPerm signals a document that exists but cannot be read.
	NoPerm Code = 77

	// Config signals unreadable or invalid user settings.
	Config Code = 78

	// UnknownTool is returned when the requested tool is not part of the
	// resolved configuration. Matches the shell's "command not found".
	UnknownTool Code = 127
)

// String returns the sysexits name of the code.
func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case Usage:
		return "USAGE"
	case DataErr:
		return "DATAERR"
	case NoInput:
		return "NOINPUT"
	case Unavailable:
		return "UNAVAILABLE"
	case Software:
		return "SOFTWARE"
	case OSErr:
		return "OSERR"
	case NoPerm:
		return "NOPERM"
	case Config:
		return "CONFIG"
	case UnknownTool:
		return "NOTFOUND"
	default:
		return "UNKNOWN"
	}
}
