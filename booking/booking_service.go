package booking

//go:generate mockgen -source=booking_service.go -destination=mocks/mock_booking_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hanksha/meeting-room-booking-backend/identity"
	"github.com/hanksha/meeting-room-booking-backend/lock"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

type BookingRepository interface {
	GetBookingByID(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter Filter, skip, limit int) ([]Booking, error)
	FindOverlapping(ctx context.Context, roomID string, interval Interval, excludeID string) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) (bool, error)
	// InRoomTx runs fn in a single transaction. Writes made through the
	// RoomTx become visible together when fn returns nil and are discarded
	// otherwise.
	InRoomTx(ctx context.Context, roomID string, fn func(tx RoomTx) error) error
}

type RoomTx interface {
	FindOverlapping(ctx context.Context, roomID string, interval Interval, excludeID string) ([]Booking, error)
	InsertBooking(ctx context.Context, pending Booking) (Booking, error)
	UpdateBookingInterval(ctx context.Context, id string, interval Interval) (Booking, error)
}

type UserDirectory interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

type RoomCatalog interface {
	RoomExists(ctx context.Context, id string) (bool, error)
}

// Service admits, modifies and cancels bookings. Every write that can
// introduce an overlap runs the availability check and the write under the
// room lock and inside one store transaction.
type Service struct {
	repo   BookingRepository
	users  UserDirectory
	rooms  RoomCatalog
	locker lock.Locker
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo BookingRepository, users UserDirectory, rooms RoomCatalog, locker lock.Locker) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		rooms:  rooms,
		locker: locker,
		now:    time.Now,
		logger: slog.Default().With("component", "booking"),
	}
}

// WithClock replaces the clock used to reject bookings in the past.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreateBooking(ctx context.Context, principal identity.Principal, request NewBooking) (Booking, error) {
	userExists, err := s.users.UserExists(ctx, request.UserID)

	if err != nil {
		return Booking{}, storeError(err)
	}

	if !userExists {
		return Booking{}, ErrUserNotFound
	}

	roomExists, err := s.rooms.RoomExists(ctx, request.RoomID)

	if err != nil {
		return Booking{}, storeError(err)
	}

	if !roomExists {
		return Booking{}, ErrRoomNotFound
	}

	if !CanAct(principal, request.UserID) {
		return Booking{}, ErrForbidden
	}

	interval := NewInterval(request.StartTime, request.EndTime)

	if !interval.Valid() {
		return Booking{}, ErrInvalidInterval
	}

	if interval.Start.Before(s.now()) {
		return Booking{}, ErrPastBooking
	}

	var created Booking

	err = s.admit(ctx, request.RoomID, func(tx RoomTx) error {
		available, err := isAvailable(ctx, tx, request.RoomID, interval, "")

		if err != nil {
			return err
		}

		if !available {
			return ErrConflict
		}

		created, err = tx.InsertBooking(ctx, Booking{
			UserID:    request.UserID,
			RoomID:    request.RoomID,
			StartTime: interval.Start,
			EndTime:   interval.End,
		})

		return err
	})

	if err != nil {
		s.logger.Debug("booking rejected", "room", request.RoomID, "user", request.UserID, "err", err)
		return Booking{}, err
	}

	s.logger.Info("booking created", "id", created.ID, "room", created.RoomID, "user", created.UserID)

	return created, nil
}

func (s *Service) UpdateBooking(ctx context.Context, principal identity.Principal, id string, patch Patch) (Booking, error) {
	current, err := s.repo.GetBookingByID(ctx, id)

	if err != nil {
		return Booking{}, storeError(err)
	}

	if !CanAct(principal, current.UserID) {
		return Booking{}, ErrForbidden
	}

	if patch.hasNull() {
		return Booking{}, ErrNullField
	}

	if patch.UserID.Present && patch.UserID.Value != current.UserID {
		return Booking{}, ErrImmutableField
	}

	if patch.RoomID.Present && patch.RoomID.Value != current.RoomID {
		return Booking{}, ErrImmutableField
	}

	interval := NewInterval(patch.StartTime.Or(current.StartTime), patch.EndTime.Or(current.EndTime))

	if !interval.Valid() {
		return Booking{}, ErrInvalidInterval
	}

	var updated Booking

	err = s.admit(ctx, current.RoomID, func(tx RoomTx) error {
		available, err := isAvailable(ctx, tx, current.RoomID, interval, id)

		if err != nil {
			return err
		}

		if !available {
			return ErrConflict
		}

		updated, err = tx.UpdateBookingInterval(ctx, id, interval)

		return err
	})

	if err != nil {
		s.logger.Debug("booking update rejected", "id", id, "err", err)
		return Booking{}, err
	}

	s.logger.Info("booking updated", "id", updated.ID, "room", updated.RoomID)

	return updated, nil
}

// CancelBooking deletes the booking. A booking that does not exist, or that
// disappears before the delete, yields false without an error.
func (s *Service) CancelBooking(ctx context.Context, principal identity.Principal, id string) (bool, error) {
	current, err := s.repo.GetBookingByID(ctx, id)

	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, storeError(err)
	}

	if !CanAct(principal, current.UserID) {
		return false, ErrForbidden
	}

	deleted, err := s.repo.DeleteBooking(ctx, id)

	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", storeError(err))
	}

	if deleted {
		s.logger.Info("booking canceled", "id", id, "room", current.RoomID)
	}

	return deleted, nil
}

func (s *Service) FindBooking(ctx context.Context, principal identity.Principal, id string) (Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)

	if err != nil {
		return Booking{}, storeError(err)
	}

	if !CanAct(principal, booking.UserID) {
		return Booking{}, ErrForbidden
	}

	return booking, nil
}

func (s *Service) ListBookings(ctx context.Context, principal identity.Principal, filter Filter, skip, limit int) ([]Booking, error) {
	if !CanList(principal, filter) {
		return nil, ErrForbidden
	}

	skip, limit = page(skip, limit)
	bookings, err := s.repo.ListBookings(ctx, filter, skip, limit)

	if err != nil {
		return nil, storeError(err)
	}

	return bookings, nil
}

// CheckAvailability is a read-only check. Its answer can be stale by the time
// a booking is requested; only CreateBooking and UpdateBooking decide.
func (s *Service) CheckAvailability(ctx context.Context, roomID string, start, end time.Time) (bool, error) {
	exists, err := s.rooms.RoomExists(ctx, roomID)

	if err != nil {
		return false, storeError(err)
	}

	if !exists {
		return false, ErrRoomNotFound
	}

	interval := NewInterval(start, end)

	if !interval.Valid() {
		return false, ErrInvalidInterval
	}

	available, err := isAvailable(ctx, s.repo, roomID, interval, "")

	if err != nil {
		return false, storeError(err)
	}

	return available, nil
}

func (s *Service) admit(ctx context.Context, roomID string, fn func(tx RoomTx) error) error {
	unlock, err := s.locker.Lock(ctx, roomLockKey(roomID))

	if err != nil {
		return fmt.Errorf("%w: failed to lock room '%v': %w", ErrStoreUnavailable, roomID, err)
	}

	defer unlock()

	return storeError(s.repo.InRoomTx(ctx, roomID, fn))
}

func roomLockKey(roomID string) string {
	return "room:" + roomID
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return skip, limit
}
