package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"sonerezh/internal/logging"
	"sonerezh/internal/shared"

	"github.com/oklog/ulid/v2"
)

// installLock serializes install submissions across requests and processes.
// It is a file created with O_EXCL that holds the run ID of its owner.
// A lock left behind by a crashed process is removed by the housekeeping
// worker once it is older than installer.stale_after.
type installLock struct {
	path  string
	RunID string
}

func acquireInstallLock(path string) (*installLock, error) {
	runID := ulid.Make().String()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			holder, _ := os.ReadFile(path)
			return nil, fmt.Errorf("%w: held by run %s", shared.ErrInstallLocked, strings.TrimSpace(string(holder)))
		}
		return nil, fmt.Errorf("failed to create install lock %s: %w", path, err)
	}

	_, writeErr := f.WriteString(runID + "\n")
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write install lock %s: %w", path, err)
	}
	return &installLock{path: path, RunID: runID}, nil
}

// Release removes the lock if it still belongs to this run. A lock taken over
// by another run after housekeeping removed ours is left alone.
func (l *installLock) Release() {
	holder, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Log.Errorf("Failed to read install lock %s: %v", l.path, err)
		}
		return
	}
	if owner := strings.TrimSpace(string(holder)); owner != l.RunID {
		logging.Log.Warnf("Install lock %s is held by run %s, not releasing it for run %s", l.path, owner, l.RunID)
		return
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		logging.Log.Errorf("Failed to release install lock %s: %v", l.path, err)
	}
}
