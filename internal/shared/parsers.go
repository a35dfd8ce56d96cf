package shared

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dayDuration = regexp.MustCompile(`^(\d+)\s*d$`)

// ParseDuration parses a duration string into a time.Duration. Everything
// time.ParseDuration accepts works ("500ms", "10s", "1m30s"), plus a day
// suffix ("2d") time.ParseDuration lacks.
// A special value of "0" is allowed and returns 0 duration (disabling the check).
func ParseDuration(durationStr string) (time.Duration, error) {
	trimmedStr := strings.TrimSpace(durationStr)
	// Handle "0" as a special case for "disabled"
	if trimmedStr == "0" {
		return 0, nil
	}

	if d, err := time.ParseDuration(trimmedStr); err == nil {
		return d, nil
	}

	matches := dayDuration.FindStringSubmatch(trimmedStr)
	if len(matches) < 2 {
		return 0, fmt.Errorf("invalid duration format: %s", durationStr)
	}
	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration number: %s", matches[1])
	}
	return time.Duration(value) * 24 * time.Hour, nil
}
