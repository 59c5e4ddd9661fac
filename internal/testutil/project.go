// Package testutil builds on-disk avatar projects for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/avatar-cli/avatar/internal/constants"
	"github.com/avatar-cli/avatar/internal/document"
	"github.com/avatar-cli/avatar/internal/project"
)

var (
	// TerraformDigest is the image digest pinned for terraform in fixtures.
	TerraformDigest = strings.Repeat("a", 64)
	// KubectlDigest is the image digest pinned for kubectl in fixtures.
	KubectlDigest = strings.Repeat("b", 64)
)

// DefaultConfig is the project config written by NewProject.
const DefaultConfig = `avatarVersion: "0.1"
images:
  org/tf:
    "1.5":
      binaries:
        terraform:
          path: /usr/bin/terraform
  bitnami/kubectl:
    "1.28":
      binaries:
        kubectl:
          path: /opt/bitnami/kubectl/bin/kubectl
`

// Project is a fixture project with a consistent config, lock and state.
type Project struct {
	Root  string
	Paths project.Paths

	Lock document.LockedConfig
}

// NewProject writes a complete, consistent project under a temp dir.
func NewProject(t *testing.T) *Project {
	t.Helper()

	root := t.TempDir()
	// Resolve symlinked temp dirs (macOS /var -> /private/var) so paths
	// compare equal to what os.Getwd reports.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	p := &Project{
		Root:  root,
		Paths: project.Layout(root),
		Lock: document.LockedConfig{
			Images: document.ImageIndex{
				"org/tf":          {"1.5": TerraformDigest},
				"bitnami/kubectl": {"1.28": KubectlDigest},
			},
			Binaries: map[string]document.BinaryConfig{
				"terraform": {OCIImageName: "org/tf", OCIImageHash: TerraformDigest, Path: "/usr/bin/terraform"},
				"kubectl":   {OCIImageName: "bitnami/kubectl", OCIImageHash: KubectlDigest, Path: "/opt/bitnami/kubectl/bin/kubectl"},
			},
		},
	}

	p.WriteConfig(t, []byte(DefaultConfig))
	p.Relock(t)
	return p
}

// WriteConfig overwrites the project config without touching lock or state.
func (p *Project) WriteConfig(t *testing.T, data []byte) {
	t.Helper()
	WriteFile(t, p.Paths.Config, data)
}

// Relock rewrites the lock from the current config bytes and the state
// from the new lock bytes, the way an install step would.
func (p *Project) Relock(t *testing.T) {
	t.Helper()

	config := ReadFile(t, p.Paths.Config)
	p.Lock.ProjectConfigHash = document.HashBytes(config).String()
	lockBytes := marshal(t, p.Lock)
	WriteFile(t, p.Paths.Lock, lockBytes)

	state := p.Lock
	state.ProjectConfigHash = document.HashBytes(lockBytes).String()
	WriteFile(t, p.Paths.State, marshal(t, state))
}

// Mkdir creates rel below the project root and returns its absolute path.
func (p *Project) Mkdir(t *testing.T, rel string) string {
	t.Helper()
	dir := filepath.Join(p.Root, rel)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		t.Fatalf("Failed to create %s: %v", dir, err)
	}
	return dir
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// ReadFile reads path or fails the test.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return data
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal fixture: %v", err)
	}
	return data
}
