// Package project finds avatar project roots and checks that a directory
// belongs to one.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/avatar-cli/avatar/internal/constants"
)

// OutsideProjectError is returned when the current directory is not the
// project root or one of its descendants.
type OutsideProjectError struct {
	Project string
	Current string
}

func (e *OutsideProjectError) Error() string {
	return fmt.Sprintf("the configured project directory is '%s', but you are in '%s'", e.Project, e.Current)
}

// Locate walks from start up to the filesystem root and returns the first
// directory holding a project config file. The nearest match wins.
func Locate(start string) (string, bool) {
	for _, dir := range ancestors(start) {
		info, err := os.Stat(Layout(dir).Config)
		if err == nil && info.Mode().IsRegular() {
			return dir, true
		}
	}
	return "", false
}

// CheckWithin fails unless current is root or lies below it.
func CheckWithin(root, current string) error {
	root = filepath.Clean(root)
	for _, dir := range ancestors(current) {
		if dir == root {
			return nil
		}
	}
	return &OutsideProjectError{Project: root, Current: current}
}

// ancestors returns path and all of its parents, innermost first.
func ancestors(path string) []string {
	dir := filepath.Clean(path)
	var dirs []string
	for {
		dirs = append(dirs, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			return dirs
		}
		dir = parent
	}
}

// Paths holds the well-known artifact locations of a project.
type Paths struct {
	Root   string
	Config string
	Lock   string
	State  string
	Shims  string
}

// Layout returns the artifact paths for the project rooted at root.
func Layout(root string) Paths {
	meta := filepath.Join(root, constants.MetadataDir)
	volatile := filepath.Join(meta, constants.VolatileDir)
	return Paths{
		Root:   root,
		Config: filepath.Join(meta, constants.ConfigFile),
		Lock:   filepath.Join(meta, constants.LockFile),
		State:  filepath.Join(volatile, constants.StateFile),
		Shims:  filepath.Join(volatile, constants.ShimDir),
	}
}
