//go:build unix

package docker

import "golang.org/x/sys/unix"

// execSyscall replaces the current process with a new one.
// This function does not return on success.
func execSyscall(path string, args []string, env []string) error {
	return unix.Exec(path, args, env)
}

// hostIDs returns the real uid and gid of the calling user.
func hostIDs() (uid, gid int) {
	return unix.Getuid(), unix.Getgid()
}
