package models

import "time"

// Participant links a user to a conversation and carries their read-state.
// Soft-deleting a participant models "left/removed from the conversation";
// restoring it models being re-added.
type Participant struct {
	ID             int64      `db:"id" json:"id"`
	ConversationID int64      `db:"conversation_id" json:"conversation_id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	LastRead       *time.Time `db:"last_read" json:"last_read,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Trashed reports whether the participant is soft-deleted.
func (p *Participant) Trashed() bool {
	return p.DeletedAt != nil
}

// HasRead reports whether the participant has read the conversation as of
// the given activity timestamp.
func (p *Participant) HasRead(activityAt time.Time) bool {
	return p.LastRead != nil && !activityAt.After(*p.LastRead)
}
