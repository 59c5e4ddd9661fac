// Package document loads and hashes the three layered project documents:
// the project config, the locked config and the session state.
//
// Every document is hashed over its exact on-disk bytes before it is
// parsed, so a stored hash commits to the file as written, not to a
// normalized re-serialization.
package document

import (
	_ "crypto/sha256" // registers the hash behind digest.SHA256
	"fmt"
	"path"
	"sort"

	"github.com/distribution/reference"
	"github.com/opencontainers/go-digest"
)

// Hash is the lowercase hex SHA-256 of a document's raw bytes.
type Hash string

// HashBytes returns the content hash of b.
func HashBytes(b []byte) Hash {
	return Hash(digest.SHA256.FromBytes(b).Encoded())
}

// Matches reports whether stored, as written in a downstream document,
// commits to h.
func (h Hash) Matches(stored string) bool {
	return string(h) == stored
}

func (h Hash) String() string { return string(h) }

// ProjectConfig is the human-authored config. Only the parts this core
// reads are modelled; resolution belongs to the install step.
type ProjectConfig struct {
	AvatarVersion string                               `yaml:"avatarVersion"`
	Images        map[string]map[string]ImageTagConfig `yaml:"images"`
}

// ImageTagConfig lists the binaries one image tag provides.
type ImageTagConfig struct {
	Binaries map[string]BinarySpec `yaml:"binaries"`
}

// BinarySpec is the user-declared location of a tool inside an image.
type BinarySpec struct {
	Path string `yaml:"path"`
}

// Tools returns the declared tool names, sorted.
func (c *ProjectConfig) Tools() []string {
	seen := make(map[string]bool)
	for _, tags := range c.Images {
		for _, tag := range tags {
			for name := range tag.Binaries {
				seen[name] = true
			}
		}
	}
	tools := make([]string, 0, len(seen))
	for name := range seen {
		tools = append(tools, name)
	}
	sort.Strings(tools)
	return tools
}

// BinaryConfig is the resolved, digest-pinned record for one tool.
type BinaryConfig struct {
	OCIImageName string `yaml:"ociImageName"`
	OCIImageHash string `yaml:"ociImageHash"`
	Path         string `yaml:"path"`
}

// Digest returns the image digest in algorithm:hex form.
func (b BinaryConfig) Digest() digest.Digest {
	return digest.NewDigestFromEncoded(digest.SHA256, b.OCIImageHash)
}

// Reference returns the digest-pinned image reference, name@sha256:hex.
func (b BinaryConfig) Reference() string {
	return PinnedReference(b.OCIImageName, b.OCIImageHash)
}

// PinnedReference formats name@sha256:encoded.
func PinnedReference(name, encoded string) string {
	return name + "@" + digest.NewDigestFromEncoded(digest.SHA256, encoded).String()
}

// ImageIndex maps image name to tag to encoded sha256 digest.
type ImageIndex map[string]map[string]string

// LockedConfig is the resolver output. ProjectConfigHash commits to the
// project config bytes.
type LockedConfig struct {
	ProjectConfigHash string                  `yaml:"projectConfigHash"`
	Images            ImageIndex              `yaml:"images"`
	Binaries          map[string]BinaryConfig `yaml:"binaries"`
}

// SessionState is the per-session copy of the locked config. Its
// ProjectConfigHash commits to the locked config bytes instead.
type SessionState LockedConfig

// Binary looks up the resolved record for tool.
func (s *SessionState) Binary(tool string) (BinaryConfig, bool) {
	b, ok := s.Binaries[tool]
	return b, ok
}

func (l *LockedConfig) validate() error {
	if err := validateEncoded(l.ProjectConfigHash); err != nil {
		return fmt.Errorf("projectConfigHash: %w", err)
	}

	for _, name := range sortedKeys(l.Images) {
		if err := validateImageName(name); err != nil {
			return fmt.Errorf("images.%s: %w", name, err)
		}
		for _, tag := range sortedKeys(l.Images[name]) {
			if err := validateEncoded(l.Images[name][tag]); err != nil {
				return fmt.Errorf("images.%s.%s: %w", name, tag, err)
			}
		}
	}

	for _, tool := range sortedKeys(l.Binaries) {
		b := l.Binaries[tool]
		if err := validateImageName(b.OCIImageName); err != nil {
			return fmt.Errorf("binaries.%s.ociImageName: %w", tool, err)
		}
		if err := validateEncoded(b.OCIImageHash); err != nil {
			return fmt.Errorf("binaries.%s.ociImageHash: %w", tool, err)
		}
		if !path.IsAbs(b.Path) {
			return fmt.Errorf("binaries.%s.path: %q is not an absolute path", tool, b.Path)
		}
	}
	return nil
}

func validateEncoded(encoded string) error {
	if encoded == "" {
		return fmt.Errorf("missing sha256 value")
	}
	if err := digest.NewDigestFromEncoded(digest.SHA256, encoded).Validate(); err != nil {
		return fmt.Errorf("invalid sha256 value %q: %w", encoded, err)
	}
	return nil
}

func validateImageName(name string) error {
	named, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return fmt.Errorf("invalid image name %q: %w", name, err)
	}
	if !reference.IsNameOnly(named) {
		return fmt.Errorf("image name %q must not carry a tag or digest", name)
	}
	return nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
