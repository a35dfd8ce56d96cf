// filepath: internal/services/requirements.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"sonerezh/internal/fsutil"
	"sonerezh/internal/logging"
	"sonerezh/internal/media"
	"sonerezh/internal/models"
)

var _ RequirementProber = (*prober)(nil)

// prober checks the server prerequisites. It never writes anything; the
// converter lookup is the only external process it starts.
type prober struct {
	converter *media.Converter
	configDir string
	coreFile  string

	drivers    func() []string
	imageCheck func() error
	writable   func(path string) bool
}

// NewProber creates a RequirementProber for the given configuration directory and
// application configuration file.
func NewProber(converter *media.Converter, configDir, coreFile string) *prober {
	return &prober{
		converter:  converter,
		configDir:  configDir,
		coreFile:   coreFile,
		drivers:    sql.Drivers,
		imageCheck: media.CheckImageProcessing,
		writable:   fsutil.IsWritable,
	}
}

// Probe runs every check in display order.
func (p *prober) Probe(ctx context.Context) models.RequirementReport {
	var report models.RequirementReport

	if err := p.imageCheck(); err != nil {
		logging.Log.Warnf("Prober: image processing unavailable: %v", err)
		report.Add("image", models.StatusDanger, "Image processing (PNG, JPEG, GIF) is missing.")
	} else {
		report.Add("image", models.StatusSuccess, "Image processing (PNG, JPEG, GIF) is available.")
	}

	if path, ok := p.converter.Find(ctx); ok {
		report.AutoConversion = true
		report.ConverterPath = path
		report.Add("converter", models.StatusSuccess, fmt.Sprintf("Audio converter is installed! (%s)", path))
	} else {
		report.Add("converter", models.StatusWarning, "Audio converter (avconv or ffmpeg) is missing. Sonerezh will not be able to convert your tracks.")
	}

	p.checkDrivers(&report)

	if p.writable(p.configDir) {
		report.Add("conf", models.StatusSuccess, p.configDir+" is writable")
	} else {
		report.Add("conf", models.StatusDanger, p.configDir+" is not writable")
	}

	if p.writable(p.coreFile) {
		report.Add("core", models.StatusSuccess, p.coreFile+" is writable")
	} else {
		report.Add("core", models.StatusDanger, p.coreFile+" is not writable")
	}

	logging.Log.Debugf("Prober: %d checks, missing requirements: %t", len(report.Checks), report.MissingRequirements)
	return report
}

func (p *prober) checkDrivers(report *models.RequirementReport) {
	registered := p.drivers()
	if len(registered) == 0 {
		report.Add("drivers", models.StatusDanger, "At least one database driver must be available to run Sonerezh (mysql, pgsql or sqlite).")
		return
	}

	for _, ds := range models.Datasources {
		if slices.Contains(registered, ds.Driver()) {
			report.AvailableDatasources = append(report.AvailableDatasources, ds)
			report.Add(string(ds), models.StatusSuccess, string(ds)+" driver is installed.")
		} else {
			report.Add(string(ds), models.StatusWarning, fmt.Sprintf("%s driver is required if you want to use Sonerezh with %s.", ds, ds.Label()))
		}
	}
}
