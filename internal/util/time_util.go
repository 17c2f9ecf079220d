package util

import (
	"time"
)

const DateLayout = "2006-01-02"

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// TradingDays returns the n weekdays ending at end (inclusive when end is a
// weekday), oldest first.
func TradingDays(end time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	current := end
	for i := n - 1; i >= 0; {
		if wd := current.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out[i] = current
			i--
		}
		current = current.AddDate(0, 0, -1)
	}
	return out
}
