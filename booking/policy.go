package booking

import "github.com/hanksha/meeting-room-booking-backend/identity"

// CanAct reports whether the principal may read, modify or cancel a booking
// owned by ownerID, or create one on its behalf.
func CanAct(principal identity.Principal, ownerID string) bool {
	return principal.IsAdmin || principal.UserID == ownerID
}

func CanList(principal identity.Principal, filter Filter) bool {
	if principal.IsAdmin {
		return true
	}

	return filter.Kind == FilterByUser && filter.ID == principal.UserID
}
