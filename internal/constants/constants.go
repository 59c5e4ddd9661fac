package constants

import "os"

// Project metadata layout, relative to the project root.
const (
	// MetadataDir is the directory that marks a project root.
	MetadataDir = ".avatar-cli"

	// ConfigFile is the human-authored project config inside MetadataDir.
	ConfigFile = "avatar-cli.yml"

	// LockFile is the resolver output inside MetadataDir.
	LockFile = "avatar-cli.lock.yml"

	// VolatileDir holds regenerable, session-scoped artifacts.
	VolatileDir = "volatile"

	// StateFile is the session state inside VolatileDir.
	StateFile = "state.yml"

	// ShimDir holds the per-tool shims prepended to PATH inside a session.
	ShimDir = "bin"
)

// Session environment variables.
const (
	EnvProjectPath  = "AVATARCLI_PROJECT_PATH"
	EnvConfigPath   = "AVATARCLI_CONFIG_PATH"
	EnvLockPath     = "AVATARCLI_CONFIG_LOCK_PATH"
	EnvStatePath    = "AVATARCLI_STATE_PATH"
	EnvSessionToken = "AVATARCLI_SESSION_TOKEN"

	// EnvPrefix is the prefix viper uses for AVATARCLI_* lookups.
	EnvPrefix = "AVATARCLI"
)

// Container-related constants
const (
	// DefaultEngine is the container engine client binary.
	DefaultEngine = "docker"

	// MountPoint is where the project root is bind-mounted inside containers.
	MountPoint = "/playground"
)

// Session-related constants
const (
	// SessionTokenLength is the number of alphanumeric characters in a token.
	SessionTokenLength = 16

	// DefaultShell is used when SHELL is not set.
	DefaultShell = "/bin/sh"
)

// Program names that select management mode.
var ManagementNames = []string{"avatar", "avatar-cli"}

// File permissions
const (
	// DirPermissions is the default permission mode for directories.
	DirPermissions os.FileMode = 0755

	// FilePermissions is the default permission mode for generated files.
	FilePermissions os.FileMode = 0644
)
