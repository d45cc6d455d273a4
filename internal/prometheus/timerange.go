package prometheus

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// ErrInvalidDuration is returned for range text that is not <n>(s|m|h|d).
var ErrInvalidDuration = errors.New("invalid duration format")

var durationPattern = regexp.MustCompile(`^(\d+)(s|m|h|d)$`)

// targetPoints is the number of points a range query aims for.
const targetPoints = 60

// stepLadder is the set of steps, in seconds, a computed step snaps to.
// Anything wider than the last rung snaps to whole hours.
var stepLadder = []int64{15, 30, 60, 300, 900, 3600}

// TimeRange is a query window in unix seconds.
type TimeRange struct {
	Start int64
	End   int64
	Step  int64
}

// Seconds returns the width of the range.
func (r TimeRange) Seconds() int64 {
	return r.End - r.Start
}

// ParseDuration parses range text like "5m", "1h" or "7d".
func ParseDuration(text string) (time.Duration, error) {
	if !durationPattern.MatchString(text) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, text)
	}
	d, err := str2duration.ParseDuration(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDuration, text, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidDuration, text)
	}
	return d, nil
}

// CalculateStep picks a step for a range so a query returns at most about
// 60 points. The naive step is rounded up to the next ladder rung (15s, 30s,
// 1m, 5m, 15m, 1h), or past an hour up to a whole number of hours, so the
// step is never below the naive one. A naive 10s gives 15s and a naive 400s
// gives 15m.
func CalculateStep(rangeSeconds int64) int64 {
	naive := (rangeSeconds + targetPoints - 1) / targetPoints
	for _, rung := range stepLadder {
		if naive <= rung {
			return rung
		}
	}
	return (naive + 3599) / 3600 * 3600
}

// NewTimeRange returns the window of width d ending at now.
func NewTimeRange(d time.Duration, now time.Time) TimeRange {
	end := now.Unix()
	seconds := int64(d / time.Second)
	return TimeRange{
		Start: end - seconds,
		End:   end,
		Step:  CalculateStep(seconds),
	}
}

// RangeFor parses duration text and returns the window ending at now.
func RangeFor(duration string, now time.Time) (TimeRange, error) {
	d, err := ParseDuration(duration)
	if err != nil {
		return TimeRange{}, err
	}
	return NewTimeRange(d, now), nil
}

// FormatDuration renders d in its largest whole unit: 45s, 5m, 2h, 7d.
// Smaller units are truncated.
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh", seconds/3600)
	default:
		return fmt.Sprintf("%dd", seconds/86400)
	}
}
