// filepath: internal/housekeeping/service.go
package housekeeping

import (
	"context"
	"errors"
	"os"
	"time"

	"sonerezh/internal/logging"
)

const (
	// DefaultCheckInterval is used when no watched file exists.
	DefaultCheckInterval = 1 * time.Hour
	// MinCheckInterval is the minimum time between checks to prevent busy-looping.
	MinCheckInterval = 1 * time.Minute
)

// Service provides the background worker for automated housekeeping.
type Service struct {
	Deps   Dependencies
	timer  *time.Timer
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewService creates a new housekeeping service instance.
func NewService(deps Dependencies) *Service {
	if deps.Files == nil {
		deps.Files = OSFileStore{}
	}
	return &Service{
		Deps:   deps,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start kicks off the background housekeeping service.
func (s *Service) Start() {
	logging.Log.Info("Starting background housekeeping service.")
	s.timer = time.NewTimer(0) // Fire immediately on start

	go func() {
		defer close(s.doneCh)
		for {
			select {
			case <-s.timer.C:
				s.runChecks()
				nextRun := s.scheduleNextRun()
				s.timer.Reset(nextRun)
				logging.Log.Debugf("Next housekeeping check scheduled in %v.", nextRun)
			case <-s.stopCh:
				s.timer.Stop()
				return
			}
		}
	}()
}

// Stop terminates the background housekeeping service and waits for a
// running check to finish.
func (s *Service) Stop() {
	logging.Log.Info("Stopping background housekeeping service.")
	close(s.stopCh)
	<-s.doneCh
}

// scheduleNextRun calculates the duration until the oldest watched file turns stale.
func (s *Service) scheduleNextRun() time.Duration {
	next := DefaultCheckInterval
	now := s.Deps.now()

	for _, path := range s.Deps.Paths {
		modTime, err := s.Deps.Files.ModTime(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logging.Log.Errorf("Housekeeping could not stat %s to schedule next run: %v", path, err)
			}
			continue
		}
		// Check just after the file crosses the threshold.
		if d := modTime.Add(s.Deps.StaleAfter).Sub(now) + time.Second; d < next {
			next = d
		}
	}

	if next < MinCheckInterval {
		return MinCheckInterval
	}
	return next
}

func (s *Service) runChecks() {
	logging.Log.Debug("Housekeeping service: checking installer state files...")
	report, err := RunChecks(context.Background(), s.Deps)
	if err != nil {
		logging.Log.Errorf("Housekeeping run failed: %v", err)
	}
	if report != nil && len(report.Removed) > 0 {
		logging.Log.Info(report.Message)
	}
}
