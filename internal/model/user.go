package model

import "time"

// User represents a registered member as stored in the `users` table.
// Each field corresponds to a column. The json tags are omitted because
// these structs are used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique public handle.
//  Email        – unique email address, stored lower-cased.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account is active; inactive accounts cannot log in.
//  CreatedAt    – timestamp of registration.
//  UpdatedAt    – timestamp of last profile update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
