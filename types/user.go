package types

import "time"

// User represents a person record managed by the service.
// It contains contact details and audit metadata.
type User struct {
	// ID is the unique identifier of the user, assigned by storage.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique across all users.
	Email string `json:"email" db:"email"`

	// Phone is the user's phone number. Its format is not validated.
	Phone string `json:"phone" db:"phone"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent mutation of the user.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserCreate is the payload for creating a user. All fields are required.
type UserCreate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UserPatch is a partial update of a user.
// A nil field is left untouched in storage.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Empty reports whether the patch carries no field at all.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}
