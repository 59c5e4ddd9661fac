package platform

import (
	"fmt"
	"runtime"
)

// OS represents an operating system family.
type OS string

const (
	MacOS   OS = "darwin"
	Linux   OS = "linux"
	BSD     OS = "bsd"
	Unknown OS = "unknown"
)

// Detect returns the current operating system.
func Detect() OS {
	return detect(runtime.GOOS)
}

func detect(goos string) OS {
	switch goos {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	case "freebsd", "openbsd", "netbsd", "dragonfly":
		return BSD
	default:
		return Unknown
	}
}

// IsSupported returns true if the current OS has POSIX paths and process
// replacement.
func IsSupported() bool {
	return Detect() != Unknown
}

// UnsupportedError is returned by Check on unsupported systems.
type UnsupportedError struct {
	GOOS string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported operating system: %s (a POSIX system is required)", e.GOOS)
}

// Check fails on operating systems avatar does not support.
func Check() error {
	if !IsSupported() {
		return &UnsupportedError{GOOS: runtime.GOOS}
	}
	return nil
}
