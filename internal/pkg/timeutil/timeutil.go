package timeutil

import (
	"fmt"
	"strings"
	"time"
)

func NowUnix() int64 {
	return time.Now().Unix()
}

func FromUnix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

var layouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 3:04:05 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/06 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp layouts seen in message exports. Values
// without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
