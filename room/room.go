package room

import (
	"strings"
	"unicode/utf8"
)

type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
}

type NewRoom struct {
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
}

// RoomPatch holds the fields of an update. Nil fields keep their stored value.
type RoomPatch struct {
	Name        *string `json:"name"`
	Capacity    *int    `json:"capacity"`
	Description *string `json:"description"`
}

func (r Room) apply(patch RoomPatch) Room {
	if patch.Name != nil {
		r.Name = *patch.Name
	}

	if patch.Capacity != nil {
		r.Capacity = *patch.Capacity
	}

	if patch.Description != nil {
		r.Description = *patch.Description
	}

	r.Name = strings.TrimSpace(r.Name)

	return r
}

func validate(name string, capacity int) error {
	length := utf8.RuneCountInString(name)

	if length < 3 || length > 100 || capacity <= 0 {
		return ErrInvalidRoom
	}

	return nil
}
