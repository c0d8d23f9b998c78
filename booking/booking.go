package booking

import "time"

type Booking struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	RoomID    string    `json:"roomId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

func (b Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// NewBooking is a reservation request that has not been admitted yet.
type NewBooking struct {
	UserID    string
	RoomID    string
	StartTime time.Time
	EndTime   time.Time
}

// Optional distinguishes a field that was provided from one that was left out.
// Null marks a field that was provided without a value.
type Optional[T any] struct {
	Value   T
	Present bool
	Null    bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{Value: value, Present: true}
}

func Cleared[T any]() Optional[T] {
	return Optional[T]{Present: true, Null: true}
}

func (o Optional[T]) Or(fallback T) T {
	if o.Present {
		return o.Value
	}

	return fallback
}

// Patch holds the fields of an update request. Absent fields keep their
// stored value. UserID and RoomID are only accepted when they match the
// stored booking.
type Patch struct {
	StartTime Optional[time.Time]
	EndTime   Optional[time.Time]
	UserID    Optional[string]
	RoomID    Optional[string]
}

func (p Patch) hasNull() bool {
	return p.StartTime.Null || p.EndTime.Null || p.UserID.Null || p.RoomID.Null
}

type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterByUser
	FilterByRoom
)

type Filter struct {
	Kind FilterKind
	ID   string
}

func AllBookings() Filter {
	return Filter{Kind: FilterAll}
}

func ByUser(userID string) Filter {
	return Filter{Kind: FilterByUser, ID: userID}
}

func ByRoom(roomID string) Filter {
	return Filter{Kind: FilterByRoom, ID: roomID}
}
