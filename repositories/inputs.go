package repositories

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// timeNow is swapped out in tests to pin timestamps.
var timeNow = func() time.Time { return time.Now().UTC() }

// StartConversationInput describes the atomic "start a conversation"
// operation: the conversation row, its first message, and the creator's
// participant row are written in one transaction.
type StartConversationInput struct {
	Subject      string  `validate:"required"`
	CreatorID    int64   `validate:"required,gt=0"`
	Body         string  `validate:"required"`
	RecipientIDs []int64 `validate:"dive,gt=0"`
}

// NewMessageInput describes a message appended to an existing conversation.
type NewMessageInput struct {
	ConversationID int64  `validate:"required,gt=0"`
	UserID         int64  `validate:"required,gt=0"`
	Body           string `validate:"required"`
}
