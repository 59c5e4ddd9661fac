// Package images gates session start on the presence of every image the
// verified state references.
//
// Gate is the only check between a verified state and a container launch.
// Pulling on demand belongs in another Gate implementation; callers only
// depend on the interface.
package images

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/avatar-cli/avatar/internal/constants"
	"github.com/avatar-cli/avatar/internal/document"
	"github.com/avatar-cli/avatar/internal/logging"
)

// Gate ensures images are usable before anything runs.
type Gate interface {
	EnsureAvailable(ctx context.Context, state *document.SessionState) error
}

// Inspector answers local presence queries by digest reference.
type Inspector interface {
	// Name returns the engine client name, e.g. "docker" or "podman".
	Name() string
	ImageExists(ctx context.Context, ref string) (bool, error)
}

// EngineUnavailableError means the engine could not be queried at all.
type EngineUnavailableError struct {
	Err error
}

func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("container engine unavailable: %v", e.Err)
}

func (e *EngineUnavailableError) Unwrap() error { return e.Err }

// NotPresentError means an image is not in the local image store.
type NotPresentError struct {
	Name   string
	Digest string
	// Engine is the client that was asked, used to phrase the pull hint.
	Engine string
}

func (e *NotPresentError) Error() string {
	return fmt.Sprintf("image %s not available", document.PinnedReference(e.Name, e.Digest))
}

// Ref returns the digest-pinned reference of the missing image.
func (e *NotPresentError) Ref() string {
	return document.PinnedReference(e.Name, e.Digest)
}

// PullCommand returns the command that fetches the missing image.
func (e *NotPresentError) PullCommand() string {
	engine := e.Engine
	if engine == "" {
		engine = constants.DefaultEngine
	}
	return engine + " pull " + e.Ref()
}

// PresenceGate checks local presence and fails on the first missing image.
// Results are never cached; a sibling process may prune images any time.
type PresenceGate struct {
	inspector Inspector
	logger    *log.Logger
}

// NewPresenceGate creates a PresenceGate. A nil logger discards output.
func NewPresenceGate(inspector Inspector, logger *log.Logger) *PresenceGate {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PresenceGate{inspector: inspector, logger: logger}
}

// EnsureAvailable checks every image state references, through its image
// index or its binaries.
func (g *PresenceGate) EnsureAvailable(ctx context.Context, state *document.SessionState) error {
	for _, img := range Pinned(state) {
		ref := document.PinnedReference(img.Name, img.Digest)
		g.logger.Debug("checking image", "ref", ref)

		ok, err := g.inspector.ImageExists(ctx, ref)
		if err != nil {
			return &EngineUnavailableError{Err: err}
		}
		if !ok {
			return &NotPresentError{Name: img.Name, Digest: img.Digest, Engine: g.inspector.Name()}
		}
	}
	return nil
}

// Image is one (name, digest) pair.
type Image struct {
	Name   string
	Digest string
}

// Pinned returns the unique (name, digest) pairs of state's image index
// and binaries, sorted by name then digest. Tags sharing a digest collapse
// into one entry. A nil state has no images.
func Pinned(state *document.SessionState) []Image {
	if state == nil {
		return nil
	}
	seen := make(map[Image]bool)
	var out []Image
	add := func(img Image) {
		if !seen[img] {
			seen[img] = true
			out = append(out, img)
		}
	}
	for name, tags := range state.Images {
		for _, d := range tags {
			add(Image{Name: name, Digest: d})
		}
	}
	for _, b := range state.Binaries {
		add(Image{Name: b.OCIImageName, Digest: b.OCIImageHash})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Digest < out[j].Digest
	})
	return out
}
