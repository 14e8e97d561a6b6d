package scheduling

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRange is returned when an interval would not satisfy start < end.
	ErrInvalidRange = errors.New("scheduling: invalid range")
	// ErrInvalidConfiguration is returned when slot generation parameters are unusable.
	ErrInvalidConfiguration = errors.New("scheduling: invalid configuration")
)

// Interval is a half-open time range [Start, End). It is a pure value type;
// every reservation and every generated slot is expressed as an Interval.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval constructs an interval, enforcing start < end.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: start %s, end %s", ErrInvalidRange, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether the two half-open intervals share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether the point falls inside the interval. The end bound
// is exclusive, so Contains(i.End) is false.
func (i Interval) Contains(point time.Time) bool {
	return !point.Before(i.Start) && point.Before(i.End)
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// DurationMinutes returns the interval length in whole minutes.
func (i Interval) DurationMinutes() int {
	return int(i.Duration() / time.Minute)
}
