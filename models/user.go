package models

import "time"

// User mirrors the host application's user row as far as this library needs
// it. Exists distinguishes a loaded row from the sentinel returned for
// conversations without messages; callers must check Exists, not compare
// against a zero value.
type User struct {
	ID        int64      `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Email     string     `db:"email" json:"email"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`

	Exists bool `db:"-" json:"-"`
}

// NonexistentUser returns the sentinel user for conversations that have no
// messages: Exists is false and all display fields are empty.
func NonexistentUser() User {
	return User{}
}
