//go:build !unix

package docker

import (
	"errors"
	"os"
	"os/exec"
)

// execSyscall emulates process replacement where the OS has none: it runs
// the child with inherited stdio and exits with its status. It only
// returns if the child could not be started.
func execSyscall(path string, args []string, env []string) error {
	cmd := exec.Command(path, args[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &exitErr):
		os.Exit(exitErr.ExitCode())
	}
	return err
}

func hostIDs() (uid, gid int) {
	return os.Getuid(), os.Getgid()
}
