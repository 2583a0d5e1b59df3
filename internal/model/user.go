package model

import "time"

// User represents a café/restaurant account as stored in the `users` table.
// UniqueID is the 36-character opaque identifier used for all cross-table
// linkage; the numeric primary key never leaves the repository layer.
type User struct {
	ID           uint64    // users.id (auto increment, internal only)
	UniqueID     string    // users.unique_id
	Name         string    // users.name
	Email        string    // users.email
	Mobile       string    // users.mobile
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
