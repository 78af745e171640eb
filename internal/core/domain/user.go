package domain

import "time"

// User is a persisted identity owned by the user-management subsystem.
// This service only reads it, except for the startup bootstrap upsert.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
}
