//go:build !windows

package fsutil

import "golang.org/x/sys/unix"

// IsWritable reports whether the current process may write to path.
// For directories this means creating files inside it.
func IsWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
