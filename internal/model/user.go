package model

import "time"

// Column widths of the users table, in characters.
const (
	MaxEmailLen = 254
	MaxNameLen  = 150
)

// User represents an account as stored in the `users` table.  The json
// tags are omitted because the struct never leaves the server; handlers
// respond with Summary instead.
//
// Fields:
//
//	ID           – primary key identifier of the account.
//	Email        – unique email address, compared case-sensitively.
//	PasswordHash – bcrypt hash of the password.
//	Name         – optional display name; empty when not provided.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Name         string    // users.name
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Summary is the public view of an account.  Name is null when empty.
type Summary struct {
	ID    uint64  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Summary returns the public view of u.
func (u User) Summary() Summary {
	s := Summary{ID: u.ID, Email: u.Email}
	if u.Name != "" {
		name := u.Name
		s.Name = &name
	}
	return s
}
