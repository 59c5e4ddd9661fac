package docker

import "context"

// Engine is the container engine client.
type Engine interface {
	// Name returns the client binary name, e.g. "docker".
	Name() string

	// Path resolves the client binary on the host PATH.
	Path() (string, error)

	// ImageExists reports whether ref is present in the local image store.
	// A non-nil error means the engine itself could not be queried.
	ImageExists(ctx context.Context, ref string) (bool, error)
}
