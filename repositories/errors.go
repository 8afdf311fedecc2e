package repositories

import "errors"

var (
	// ErrConversationNotFound is returned when a conversation id does not
	// resolve to an active row.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound is returned when a message id does not resolve to
	// an active row.
	ErrMessageNotFound = errors.New("message not found")

	// ErrParticipantNotFound signals that a user has no active participant
	// row in a conversation. Most callers treat it as an expected,
	// recoverable condition rather than a failure.
	ErrParticipantNotFound = errors.New("participant not found")
)
