// Package integrity verifies the hash chain that links the project config
// to the locked config and the locked config to the session state.
//
// Verification is never cached: another process may regenerate the lock or
// the state at any time, and the next invocation has to notice.
package integrity

import (
	"fmt"
	"os"

	"github.com/avatar-cli/avatar/internal/document"
	"github.com/avatar-cli/avatar/internal/project"
)

// Artifact names one of the three chained documents.
type Artifact string

const (
	ArtifactConfig Artifact = "config"
	ArtifactLock   Artifact = "lock"
	ArtifactState  Artifact = "state"
)

// Link names one of the two hash links.
type Link int

const (
	// LinkLock is project config -> locked config.
	LinkLock Link = iota + 1
	// LinkState is locked config -> session state.
	LinkState
)

func (l Link) String() string {
	switch l {
	case LinkLock:
		return "config->lock"
	case LinkState:
		return "lock->state"
	default:
		return "unknown"
	}
}

// MissingArtifactError means one of the chained files does not exist,
// usually because the install step has not run.
type MissingArtifactError struct {
	Which Artifact
	Path  string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("the %s file '%s' does not exist", e.Which, e.Path)
}

// StaleError means a stored hash does not commit to the bytes of the
// previous document in the chain.
type StaleError struct {
	Link   Link
	Source string // document whose bytes were hashed
	Target string // document holding the stored hash
	Want   document.Hash
	Stored string
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("the hash for the file '%s' does not match with the one in '%s'", e.Source, e.Target)
}

// Verify checks both links for the documents at paths and returns the
// verified session state.
func Verify(paths project.Paths) (*document.SessionState, error) {
	for _, a := range []struct {
		which Artifact
		path  string
	}{
		{ArtifactConfig, paths.Config},
		{ArtifactLock, paths.Lock},
		{ArtifactState, paths.State},
	} {
		if !isRegularFile(a.path) {
			return nil, &MissingArtifactError{Which: a.which, Path: a.path}
		}
	}

	_, configHash, err := document.LoadProjectConfig(paths.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	lock, lockHash, err := document.LoadLockedConfig(paths.Lock)
	if err != nil {
		return nil, fmt.Errorf("failed to load lock file: %w", err)
	}

	if !configHash.Matches(lock.ProjectConfigHash) {
		return nil, &StaleError{
			Link:   LinkLock,
			Source: paths.Config,
			Target: paths.Lock,
			Want:   configHash,
			Stored: lock.ProjectConfigHash,
		}
	}

	state, _, err := document.LoadSessionState(paths.State)
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	if !lockHash.Matches(state.ProjectConfigHash) {
		return nil, &StaleError{
			Link:   LinkState,
			Source: paths.Lock,
			Target: paths.State,
			Want:   lockHash,
			Stored: state.ProjectConfigHash,
		}
	}

	return state, nil
}

// VerifyProject runs Verify on the standard layout of root.
func VerifyProject(root string) (*document.SessionState, error) {
	return Verify(project.Layout(root))
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
