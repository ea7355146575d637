package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Capture files are named gp-YYYYMMDD-HHMMSS.gif, the timestamp being the
// moment the session was played. The width is fixed; anything else is not a
// capture file.
const (
	captureNamePrefix = "gp-"
	captureNameLayout = "20060102-150405"
)

// ParseCaptureName extracts the embedded capture timestamp from a file name.
// The timestamp is interpreted as local wall-clock time.
func ParseCaptureName(fileName string) (time.Time, error) {
	base := filepath.Base(fileName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if !strings.HasPrefix(stem, captureNamePrefix) {
		return time.Time{}, fmt.Errorf("file name %q does not start with %q", base, captureNamePrefix)
	}
	raw := strings.TrimPrefix(stem, captureNamePrefix)
	if len(raw) != len(captureNameLayout) {
		return time.Time{}, fmt.Errorf("file name %q does not embed a %s timestamp", base, captureNameLayout)
	}
	t, err := time.ParseInLocation(captureNameLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("file name %q does not embed a valid timestamp: %w", base, err)
	}
	return t, nil
}

// FormatCaptureName produces the canonical capture file name for a played-at
// timestamp, used when saving downloaded albums.
func FormatCaptureName(t time.Time) string {
	return captureNamePrefix + t.Local().Format(captureNameLayout) + ".gif"
}
