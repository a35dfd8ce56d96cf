// filepath: internal/media/converter.go
package media

import (
	"context"
	"os"
	"time"

	"sonerezh/internal/logging"
)

// ConverterNames are the audio converters looked up on PATH, in order of preference.
var ConverterNames = []string{"avconv", "ffmpeg"}

// Converter resolves the audio conversion binary used for auto-conversion.
type Converter struct {
	locator        Locator
	configuredPath string
	timeout        time.Duration
}

// NewConverter creates a Converter. A configured path wins over the PATH lookup
// when it exists.
func NewConverter(locator Locator, configuredPath string, timeout time.Duration) *Converter {
	if locator == nil {
		locator = ShellLocator{}
	}
	return &Converter{locator: locator, configuredPath: configuredPath, timeout: timeout}
}

// Find returns the converter path and whether one is available.
// Every probe is bounded by the converter timeout.
func (c *Converter) Find(ctx context.Context) (string, bool) {
	if c.configuredPath != "" {
		if _, err := os.Stat(c.configuredPath); err == nil {
			logging.Log.Debugf("Using configured converter path: %s", c.configuredPath)
			return c.configuredPath, true
		}
		logging.Log.Warnf("Configured ffmpeg_path '%s' not found, falling back to system PATH.", c.configuredPath)
	}

	for _, name := range ConverterNames {
		path, ok := c.locate(ctx, name)
		if ok {
			logging.Log.Debugf("Audio converter %s found: %s", name, path)
			return path, true
		}
	}
	return "", false
}

func (c *Converter) locate(ctx context.Context, name string) (string, bool) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.locator.LocateExecutable(ctx, name)
}
