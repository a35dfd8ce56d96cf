// filepath: internal/housekeeping/tasks.go
package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"sonerezh/internal/logging"
	"sonerezh/internal/services"
)

// Dependencies defines what the housekeeping tasks work on.
type Dependencies struct {
	Files   FileStore
	Auditor services.Auditor // optional

	// Paths are the installer state files to watch, typically install.lock
	// and the staged database.toml.pending.
	Paths      []string
	StaleAfter time.Duration
	Now        func() time.Time // defaults to time.Now
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Report summarizes a housekeeping run.
type Report struct {
	Removed []string
	Message string
}

// RunChecks removes every watched file older than StaleAfter.
//
// An install holds its lock for at most the probe and connect timeouts, so a
// lock past that age belongs to a process that died mid-install.
func RunChecks(ctx context.Context, deps Dependencies) (*Report, error) {
	report := &Report{}
	now := deps.now()
	var errs []error

	for _, path := range deps.Paths {
		modTime, err := deps.Files.ModTime(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("stat %s: %w", path, err))
			}
			continue
		}

		age := now.Sub(modTime)
		if age <= deps.StaleAfter {
			continue
		}

		logging.Log.Warnf("Housekeeping: removing stale %s (age %s).", path, age.Truncate(time.Second))
		if err := deps.Files.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		report.Removed = append(report.Removed, path)

		if deps.Auditor != nil {
			deps.Auditor.Log(ctx, "housekeeping.remove", "system", path, map[string]interface{}{
				"age": age.String(),
			})
		}
	}

	if len(report.Removed) == 0 {
		report.Message = "Housekeeping complete. Nothing to remove."
	} else {
		report.Message = fmt.Sprintf("Housekeeping complete. Removed %s.", strings.Join(report.Removed, ", "))
	}
	return report, errors.Join(errs...)
}
