package util

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// StatusTime is the layout of status "created_at" fields.
const StatusTime = "Mon Jan 02 15:04:05 -0700 2006"

// ParseTimestamp accepts status timestamps, ISO 8601 variants, and the decimal epoch
// milliseconds used by direct message events. Results are in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(StatusTime, s)
	if err == nil {
		return t.UTC(), nil
	}

	t, err = dateparse.ParseIn(s, time.UTC)
	if err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("failed to parse %q as timestamp", s)
}
