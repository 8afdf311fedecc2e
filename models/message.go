package models

import "time"

// Message is an authored entry in a conversation. Messages are immutable
// except for soft-deletion; creating one bumps the parent conversation's
// updated_at so that latest-activity ordering reflects it.
type Message struct {
	ID             int64      `db:"id" json:"id"`
	ConversationID int64      `db:"conversation_id" json:"conversation_id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Body           string     `db:"body" json:"body"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Trashed reports whether the message is soft-deleted.
func (m *Message) Trashed() bool {
	return m.DeletedAt != nil
}
