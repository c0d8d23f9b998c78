package room

import "errors"

var ErrRoomNotFound = errors.New("room not found")

var ErrRoomNameTaken = errors.New("room name already exists")

var ErrInvalidRoom = errors.New("room name must be 3 to 100 characters and capacity positive")
