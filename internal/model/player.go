package model

import "time"

// UserID uniquely identifies a registered user
type UserID string

// DefaultRating is the rating given to new users and guests
const DefaultRating = 600

// User is a registered account
type User struct {
	ID           UserID
	PasswordHash string // bcrypt hash
	Rating       int
	Code         string // opaque per-user key
	CreatedAt    time.Time
}

// Identity describes who is sitting behind a connection
type Identity struct {
	UserID      UserID // Empty for guests
	DisplayName string
	Rating      int
	Guest       bool
}

// IdentityFromUser builds the identity of a registered user
func IdentityFromUser(u *User) Identity {
	return Identity{
		UserID:      u.ID,
		DisplayName: string(u.ID),
		Rating:      u.Rating,
		Guest:       false,
	}
}
