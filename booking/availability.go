package booking

import "context"

type OverlapReader interface {
	FindOverlapping(ctx context.Context, roomID string, interval Interval, excludeID string) ([]Booking, error)
}

// isAvailable reports whether no booking of the room other than excludeID
// overlaps the candidate. An empty excludeID excludes nothing.
func isAvailable(ctx context.Context, reader OverlapReader, roomID string, candidate Interval, excludeID string) (bool, error) {
	existing, err := reader.FindOverlapping(ctx, roomID, candidate, excludeID)

	if err != nil {
		return false, err
	}

	for _, booking := range existing {
		if excludeID != "" && booking.ID == excludeID {
			continue
		}

		if booking.Interval().Overlaps(candidate) {
			return false, nil
		}
	}

	return true, nil
}
