package identity

import "errors"

var ErrUserNotFound = errors.New("user not found")

var ErrUsernameTaken = errors.New("username already exists")

var ErrInvalidUser = errors.New("username must be 3 to 50 characters and password at least 6 characters")

var ErrInvalidCredentials = errors.New("invalid credentials")

var ErrInvalidToken = errors.New("invalid token")

var ErrLastAdmin = errors.New("cannot revoke admin status from the last administrator")

var ErrSelfDelete = errors.New("cannot delete your own account")
