package types

import "time"

// Author is the single principal that can log in and manage posts.
// Authors are provisioned out of band and never deleted through the API.
type Author struct {
	// ID is the unique identifier of the author (UUID).
	ID string `json:"id" db:"id"`

	// Email is the unique login identifier.
	Email string `json:"email" db:"email"`

	// Name is the display name shown on comments written while logged in.
	Name string `json:"name" db:"name"`

	// PasswordHash stores the bcrypt digest of the author's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the author was provisioned.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change to the author.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
