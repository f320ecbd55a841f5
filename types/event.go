package types

import "time"

// UserEventType names a kind of change applied to a user.
type UserEventType string

const (
	UserCreated UserEventType = "user.created"
	UserUpdated UserEventType = "user.updated"
	UserDeleted UserEventType = "user.deleted"
)

// UserEvent describes a committed change to a user record.
type UserEvent struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Type is the kind of change.
	Type UserEventType `json:"type"`

	// UserID is the identifier of the changed user.
	UserID int `json:"user_id"`

	// User is the state after the change. It is nil for deletions.
	User *User `json:"user,omitempty"`

	// OccurredAt is when the change was committed.
	OccurredAt time.Time `json:"occurred_at"`
}
