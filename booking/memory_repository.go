package booking

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps bookings in process memory. Transactions hold the
// repository write lock and apply their staged writes only on success, so
// readers never observe a partial commit.
type MemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]Booking
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bookings: map[string]Booking{}}
}

func (r *MemoryRepository) GetBookingByID(_ context.Context, id string) (Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]

	if !ok {
		return Booking{}, ErrBookingNotFound
	}

	return booking, nil
}

func (r *MemoryRepository) ListBookings(_ context.Context, filter Filter, skip, limit int) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bookings := []Booking{}

	for _, booking := range r.bookings {
		switch {
		case filter.Kind == FilterByUser && booking.UserID != filter.ID:
			continue
		case filter.Kind == FilterByRoom && booking.RoomID != filter.ID:
			continue
		}

		bookings = append(bookings, booking)
	}

	sortBookings(bookings)

	if skip >= len(bookings) {
		return []Booking{}, nil
	}

	bookings = bookings[skip:]

	if limit < len(bookings) {
		bookings = bookings[:limit]
	}

	return bookings, nil
}

func (r *MemoryRepository) FindOverlapping(_ context.Context, roomID string, interval Interval, excludeID string) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return overlapping(r.bookings, nil, roomID, interval, excludeID), nil
}

func (r *MemoryRepository) DeleteBooking(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return false, nil
	}

	delete(r.bookings, id)

	return true, nil
}

func (r *MemoryRepository) InRoomTx(_ context.Context, _ string, fn func(tx RoomTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{committed: r.bookings, staged: map[string]Booking{}}

	if err := fn(tx); err != nil {
		return err
	}

	for id, booking := range tx.staged {
		r.bookings[id] = booking
	}

	return nil
}

type memoryTx struct {
	committed map[string]Booking
	staged    map[string]Booking
}

func (t *memoryTx) FindOverlapping(_ context.Context, roomID string, interval Interval, excludeID string) ([]Booking, error) {
	return overlapping(t.committed, t.staged, roomID, interval, excludeID), nil
}

func (t *memoryTx) InsertBooking(_ context.Context, booking Booking) (Booking, error) {
	booking.ID = uuid.NewString()
	t.staged[booking.ID] = booking

	return booking, nil
}

func (t *memoryTx) UpdateBookingInterval(_ context.Context, id string, interval Interval) (Booking, error) {
	booking, ok := t.staged[id]

	if !ok {
		booking, ok = t.committed[id]
	}

	if !ok {
		return Booking{}, ErrBookingNotFound
	}

	booking.StartTime = interval.Start
	booking.EndTime = interval.End
	t.staged[id] = booking

	return booking, nil
}

// overlapping scans committed bookings with staged ones layered on top.
func overlapping(committed, staged map[string]Booking, roomID string, interval Interval, excludeID string) []Booking {
	found := []Booking{}

	consider := func(booking Booking) {
		if booking.RoomID != roomID || booking.ID == excludeID {
			return
		}

		if booking.Interval().Overlaps(interval) {
			found = append(found, booking)
		}
	}

	for id, booking := range committed {
		if _, shadowed := staged[id]; shadowed {
			continue
		}
		consider(booking)
	}

	for _, booking := range staged {
		consider(booking)
	}

	sortBookings(found)

	return found
}

func sortBookings(bookings []Booking) {
	slices.SortFunc(bookings, func(a, b Booking) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
