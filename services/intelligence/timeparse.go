package ai

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted from the NLU, most specific first. Layouts without an offset are read in
// the business timezone.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeTime turns an absolute timestamp string into a time in loc, truncated to the
// minute. Relative phrases ("tomorrow at 3") are rejected.
func NormalizeTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, raw)
		} else {
			t, err = time.ParseInLocation(layout, raw, loc)
		}
		if err == nil {
			return t.In(loc).Truncate(time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// SpokenTime formats t the way it is read out to a caller, e.g. "Friday, October 17 at 3:00 PM".
func SpokenTime(t time.Time) string {
	return t.Format("Monday, January 2 at 3:04 PM")
}
