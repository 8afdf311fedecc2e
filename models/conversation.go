package models

import (
	"context"
	"time"
)

// Conversation is a thread grouping messages and participants under one subject.
type Conversation struct {
	ID        int64      `db:"id" json:"id"`
	Subject   string     `db:"subject" json:"subject"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`

	creator *User
}

// CreatorLookup resolves the author of the oldest message in a conversation.
type CreatorLookup func(ctx context.Context, conversationID int64) (User, error)

// Creator returns the user that started the conversation, resolving it at
// most once per instance. The lookup is expected to return the sentinel
// NonexistentUser for conversations without messages, never an error for
// that case.
func (c *Conversation) Creator(ctx context.Context, lookup CreatorLookup) (User, error) {
	if c.creator != nil {
		return *c.creator, nil
	}
	user, err := lookup(ctx, c.ID)
	if err != nil {
		return User{}, err
	}
	c.creator = &user
	return user, nil
}

// Trashed reports whether the conversation is soft-deleted.
func (c *Conversation) Trashed() bool {
	return c.DeletedAt != nil
}
