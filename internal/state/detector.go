// Package state takes a read-only snapshot of a project for `avatar status`.
package state

import (
	"context"
	"os"
	"sort"

	"github.com/avatar-cli/avatar/internal/document"
	"github.com/avatar-cli/avatar/internal/images"
	"github.com/avatar-cli/avatar/internal/integrity"
	"github.com/avatar-cli/avatar/internal/project"
	"github.com/avatar-cli/avatar/internal/session"
)

// Engine is the subset of the engine client the detector needs.
type Engine interface {
	Path() (string, error)
	ImageExists(ctx context.Context, ref string) (bool, error)
}

// ImageStatus is the local presence of one pinned image.
type ImageStatus struct {
	Ref     string
	Present bool
	Err     error
}

// ProjectState represents the current state of an avatar project.
type ProjectState struct {
	WorkingDir   string
	ProjectFound bool
	Paths        project.Paths

	ConfigExists bool
	LockExists   bool
	StateExists  bool

	// ChainErr is nil when the integrity chain verified.
	ChainErr error
	Tools    []string

	InSession bool
	Token     string

	EnginePath string
	EngineErr  error
	Images     []ImageStatus
}

// Verified reports whether the integrity chain holds.
func (s *ProjectState) Verified() bool {
	return s.ProjectFound && s.ChainErr == nil
}

// Detector checks the state of a project.
type Detector struct {
	sc     session.Context
	engine Engine
}

// NewDetector creates a new state detector.
func NewDetector(sc session.Context, engine Engine) *Detector {
	return &Detector{sc: sc, engine: engine}
}

// Detect checks all aspects of the project state. Failures are recorded in
// the snapshot, never returned.
func (d *Detector) Detect(ctx context.Context) *ProjectState {
	st := &ProjectState{
		WorkingDir: d.sc.WorkingDir,
		InSession:  d.sc.InSession(),
		Token:      d.sc.Token,
	}

	st.EnginePath, st.EngineErr = d.engine.Path()

	if st.InSession && d.sc.ProjectPath != "" {
		// Same paths tool invocations verify.
		st.Paths = d.sc.Paths()
	} else {
		root, ok := project.Locate(d.sc.WorkingDir)
		if !ok {
			return st
		}
		st.Paths = project.Layout(root)
	}
	st.ProjectFound = true

	st.ConfigExists = fileExists(st.Paths.Config)
	st.LockExists = fileExists(st.Paths.Lock)
	st.StateExists = fileExists(st.Paths.State)

	verified, err := integrity.Verify(st.Paths)
	if err != nil {
		st.ChainErr = err
		return st
	}

	for tool := range verified.Binaries {
		st.Tools = append(st.Tools, tool)
	}
	sort.Strings(st.Tools)

	if st.EngineErr == nil {
		st.Images = d.checkImages(ctx, verified)
	}
	return st
}

func (d *Detector) checkImages(ctx context.Context, verified *document.SessionState) []ImageStatus {
	var out []ImageStatus
	for _, img := range images.Pinned(verified) {
		ref := document.PinnedReference(img.Name, img.Digest)
		present, err := d.engine.ImageExists(ctx, ref)
		out = append(out, ImageStatus{Ref: ref, Present: present, Err: err})
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
