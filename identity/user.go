package identity

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
}

func (u User) Principal() Principal {
	return Principal{UserID: u.ID, IsAdmin: u.IsAdmin}
}

// UserPatch holds the fields an administrator may change on an account. Nil
// fields keep their stored value.
type UserPatch struct {
	Username *string `json:"username"`
	IsAdmin  *bool   `json:"isAdmin"`
}
