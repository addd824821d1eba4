package aggregate

import (
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// TimeWindow is a half-open [Start, End) range of epoch milliseconds.
type TimeWindow struct {
	Start int64
	End   int64
}

// Unbounded returns the window that admits every report.
func Unbounded() TimeWindow {
	return TimeWindow{Start: 0, End: math.MaxInt64}
}

// ResolveWindow converts inclusive calendar-date bounds into a TimeWindow.
// An empty start means epoch zero, an empty end means unbounded. A present end
// date is extended by one full day so the whole end date is included.
func ResolveWindow(startDate, endDate string) (TimeWindow, error) {
	w := Unbounded()

	if startDate != "" {
		start, err := parseDate(startDate)
		if err != nil {
			return TimeWindow{}, err
		}
		w.Start = start.UnixMilli()
	}

	if endDate != "" {
		end, err := parseDate(endDate)
		if err != nil {
			return TimeWindow{}, err
		}
		w.End = end.UnixMilli() + DayMS
	}

	return w, nil
}

// Contains reports whether ms falls inside the window.
func (w TimeWindow) Contains(ms int64) bool {
	return ms >= w.Start && ms < w.End
}

// IsBounded reports whether the window has a finite end.
func (w TimeWindow) IsBounded() bool {
	return w.End != math.MaxInt64
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return t, nil
}
