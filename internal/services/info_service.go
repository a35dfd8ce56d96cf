// filepath: internal/services/info_service.go
package services

import (
	"sonerezh/internal/models"
	"time"
)

var _ InfoService = (*infoService)(nil)

type infoService struct {
	Version   string
	StartTime time.Time
	installed func() bool
}

// NewInfoService creates a new InfoService.
func NewInfoService(version string, startTime time.Time, installed func() bool) *infoService {
	return &infoService{
		Version:   version,
		StartTime: startTime,
		installed: installed,
	}
}

// GetInfo retrieves the application information.
func (s *infoService) GetInfo() models.Info {
	return models.Info{
		Version:     s.Version,
		UptimeSince: s.StartTime,
		Installed:   s.installed(),
	}
}
