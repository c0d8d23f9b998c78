package booking

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

var ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)

var ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

var ErrRoomNotFound = fmt.Errorf("room %w", ErrNotFound)

var ErrForbidden = errors.New("not allowed to perform this operation")

var ErrInvalidInterval = errors.New("end time must be after start time")

var ErrPastBooking = errors.New("cannot create a booking in the past")

var ErrConflict = errors.New("room is not available during the specified time")

var ErrImmutableField = errors.New("userId and roomId of a booking cannot be changed")

var ErrNullField = errors.New("fields cannot be set to null")

var ErrStoreUnavailable = errors.New("booking store unavailable")

// storeError keeps domain errors as they are and marks anything else coming
// out of a collaborator as ErrStoreUnavailable.
func storeError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
