package booking

import "time"

// Interval is the half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start.UTC(), End: end.UTC()}
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps reports whether the two intervals share at least one instant.
// Intervals that only touch at a boundary do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

func Overlaps(a, b Interval) bool {
	return a.Overlaps(b)
}
