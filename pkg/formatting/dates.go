package formatting

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses an RFC 3339 timestamp or a YYYY-MM-DD date in UTC.
// dateOnly reports whether the input was a bare date.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q: want RFC 3339 or YYYY-MM-DD", s)
}

// ParseDateBound parses an optional range bound. Empty input yields nil.
// A bare end date is inclusive, so it advances to the following midnight
// for use as an exclusive upper bound.
func ParseDateBound(s string, end bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, dateOnly, err := ParseDate(s)
	if err != nil {
		return nil, err
	}

	if end && dateOnly {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
