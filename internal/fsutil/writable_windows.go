//go:build windows

package fsutil

import (
	"os"
)

// IsWritable reports whether the current process may write to path.
// Windows ACLs are not reflected in mode bits, so the check actually opens the
// file for writing, or creates a temp file for directories.
func IsWritable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if info.IsDir() {
		f, err := os.CreateTemp(path, ".write-test-")
		if err != nil {
			return false
		}
		name := f.Name()
		f.Close()
		os.Remove(name)
		return true
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
