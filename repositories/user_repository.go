package repositories

import (
	"context"

	"messenger/models"
)

// UserRepo gives a host user entity the messaging capability: listing the
// user's conversations and their aggregate unread counts. It delegates to
// the conversation and message repositories rather than owning queries of
// its own.
type UserRepo struct {
	conversations *ConversationRepo
	messages      *MessageRepo
}

// NewUserRepo constructs a UserRepo on top of the two aggregate repos.
func NewUserRepo(conversations *ConversationRepo, messages *MessageRepo) *UserRepo {
	return &UserRepo{conversations: conversations, messages: messages}
}

// Conversations lists the conversations the user actively participates in,
// most recent activity first.
func (r *UserRepo) Conversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	return r.conversations.GetAllLatest().ForUser(userID).All(ctx)
}

// ConversationsWithNewMessages lists the user's conversations that carry
// unread activity.
func (r *UserRepo) ConversationsWithNewMessages(ctx context.Context, userID int64) ([]models.Conversation, error) {
	return r.conversations.GetAllLatest().ForUserWithNewMessages(userID).All(ctx)
}

// NewConversationsCount counts the user's conversations with unread
// activity.
func (r *UserRepo) NewConversationsCount(ctx context.Context, userID int64) (int64, error) {
	return r.conversations.Query().ForUserWithNewMessages(userID).Count(ctx)
}

// UnreadMessagesCount counts unread messages for the user across all of
// their conversations.
func (r *UserRepo) UnreadMessagesCount(ctx context.Context, userID int64) (int64, error) {
	return r.messages.CountUnreadForUser(ctx, userID)
}
