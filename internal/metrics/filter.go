package metrics

import (
	"fmt"
	"strings"
	"time"
)

const queryDateLayout = "2006-01-02"

// DateRange is an inclusive calendar window. A nil bound is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ParseDateRange reads YYYY-MM-DD bounds in loc. Empty strings leave the
// bound open.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	var r DateRange
	if s := strings.TrimSpace(start); s != "" {
		t, err := time.ParseInLocation(queryDateLayout, s, loc)
		if err != nil {
			return DateRange{}, fmt.Errorf("startDate %q: %w", start, err)
		}
		r.Start = &t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := time.ParseInLocation(queryDateLayout, s, loc)
		if err != nil {
			return DateRange{}, fmt.Errorf("endDate %q: %w", end, err)
		}
		r.End = &t
	}
	return r, nil
}

func (r DateRange) Unbounded() bool { return r.Start == nil && r.End == nil }

// Contains reports whether t falls in the window. End covers its whole day
// through 23:59:59.999.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(endOfDay(*r.End)) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	f := func(t *time.Time) string {
		if t == nil {
			return "*"
		}
		return t.Format(queryDateLayout)
	}
	return f(r.Start) + ".." + f(r.End)
}

func endOfDay(t time.Time) time.Time {
	return dayStart(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
