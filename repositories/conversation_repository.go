package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"messenger/models"
	"messenger/registry"
	"messenger/store"
)

// ConversationRepo implements the conversation aggregate: membership,
// read-state, creator resolution, and the composable listings in
// ConversationQuery.
type ConversationRepo struct {
	store *store.Store
	reg   *registry.Registry
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(s *store.Store, reg *registry.Registry) *ConversationRepo {
	return &ConversationRepo{store: s, reg: reg}
}

func (r *ConversationRepo) table() string {
	return r.reg.Table(registry.TableConversations)
}

func (r *ConversationRepo) messagesTable() string {
	return r.reg.Table(registry.TableMessages)
}

func (r *ConversationRepo) participantsTable() string {
	return r.reg.Table(registry.TableParticipants)
}

func (r *ConversationRepo) usersTable() string {
	return r.reg.Table(registry.TableUsers)
}

// GetConversation fetches an active conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, id int64) (models.Conversation, error) {
	conversation := r.reg.Conversation()
	qb := r.store.Builder().
		Select("*").
		From(r.table()).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	err := r.store.Get(ctx, "conversation.get", conversation, qb)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return models.Conversation{}, err
	}
	return *conversation, nil
}

// GetBySubject returns conversations whose subject matches the LIKE
// pattern, in the store's default order.
func (r *ConversationRepo) GetBySubject(ctx context.Context, pattern string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	qb := r.store.Builder().
		Select("*").
		From(r.table()).
		Where(sq.Eq{"deleted_at": nil}).
		Where(sq.Like{"subject": pattern})
	if err := r.store.Select(ctx, "conversation.by_subject", &conversations, qb); err != nil {
		return nil, err
	}
	return conversations, nil
}

// StartConversation atomically creates a conversation, its first message
// authored by the creator, the creator's participant row (already marked
// read), and participant rows for every recipient.
func (r *ConversationRepo) StartConversation(ctx context.Context, input StartConversationInput) (models.Conversation, error) {
	if err := validate.Struct(input); err != nil {
		return models.Conversation{}, err
	}

	conversation := r.reg.Conversation()
	conversation.Subject = input.Subject

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		now := timeNow()
		conversation.CreatedAt = now
		conversation.UpdatedAt = now

		insert := r.store.Builder().
			Insert(r.table()).
			Columns("subject", "created_at", "updated_at").
			Values(conversation.Subject, now, now).
			Suffix("RETURNING id")
		if err := r.store.Get(ctx, "conversation.create", &conversation.ID, insert); err != nil {
			return err
		}

		firstMessage := r.store.Builder().
			Insert(r.messagesTable()).
			Columns("conversation_id", "user_id", "body", "created_at", "updated_at").
			Values(conversation.ID, input.CreatorID, input.Body, now, now).
			Suffix("RETURNING id")
		var messageID int64
		if err := r.store.Get(ctx, "message.create", &messageID, firstMessage); err != nil {
			return err
		}

		creator := r.store.Builder().
			Insert(r.participantsTable()).
			Columns("conversation_id", "user_id", "last_read", "created_at", "updated_at").
			Values(conversation.ID, input.CreatorID, now, now, now)
		if _, err := r.store.Exec(ctx, "participant.create", creator); err != nil {
			return err
		}

		return r.AddParticipants(ctx, conversation.ID, input.RecipientIDs...)
	})
	if err != nil {
		return models.Conversation{}, err
	}
	return *conversation, nil
}

// AddParticipants ensures an active participant row exists for each user
// id. It is idempotent: an existing active row is left alone, anything else
// results in exactly one new row.
func (r *ConversationRepo) AddParticipants(ctx context.Context, conversationID int64, userIDs ...int64) error {
	for _, userID := range userIDs {
		_, err := r.GetParticipantFromUser(ctx, conversationID, userID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrParticipantNotFound) {
			return err
		}
		now := timeNow()
		insert := r.store.Builder().
			Insert(r.participantsTable()).
			Columns("conversation_id", "user_id", "created_at", "updated_at").
			Values(conversationID, userID, now, now)
		if _, err := r.store.Exec(ctx, "participant.create", insert); err != nil {
			return err
		}
	}
	return nil
}

// RemoveParticipants soft-deletes the participant rows of the given users.
func (r *ConversationRepo) RemoveParticipants(ctx context.Context, conversationID int64, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := timeNow()
	update := r.store.Builder().
		Update(r.participantsTable()).
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{
			"conversation_id": conversationID,
			"user_id":         userIDs,
			"deleted_at":      nil,
		})
	_, err := r.store.Exec(ctx, "participant.remove", update)
	return err
}

// ActivateAllParticipants restores every participant row of the
// conversation, including previously removed ones, so that new activity is
// visible to all of them again.
func (r *ConversationRepo) ActivateAllParticipants(ctx context.Context, conversationID int64) error {
	update := r.store.Builder().
		Update(r.participantsTable()).
		Set("deleted_at", nil).
		Set("updated_at", timeNow()).
		Where(sq.Eq{"conversation_id": conversationID})
	_, err := r.store.Exec(ctx, "participant.activate_all", update)
	return err
}

// MarkAsRead stamps the user's participant row with the current time. A
// user without a participant row is a no-op, not an error.
func (r *ConversationRepo) MarkAsRead(ctx context.Context, conversationID, userID int64) error {
	participant, err := r.GetParticipantFromUser(ctx, conversationID, userID)
	if errors.Is(err, ErrParticipantNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	now := timeNow()
	update := r.store.Builder().
		Update(r.participantsTable()).
		Set("last_read", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": participant.ID})
	_, err = r.store.Exec(ctx, "participant.mark_read", update)
	return err
}

// IsUnread reports whether the conversation has activity the user has not
// read yet. Non-participants are never unread.
func (r *ConversationRepo) IsUnread(ctx context.Context, conversation *models.Conversation, userID int64) (bool, error) {
	participant, err := r.GetParticipantFromUser(ctx, conversation.ID, userID)
	if errors.Is(err, ErrParticipantNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !participant.HasRead(conversation.UpdatedAt), nil
}

// GetParticipantFromUser finds the user's active participant row.
func (r *ConversationRepo) GetParticipantFromUser(ctx context.Context, conversationID, userID int64) (models.Participant, error) {
	participant := r.reg.Participant()
	qb := r.store.Builder().
		Select("*").
		From(r.participantsTable()).
		Where(sq.Eq{
			"conversation_id": conversationID,
			"user_id":         userID,
			"deleted_at":      nil,
		})
	err := r.store.Get(ctx, "participant.get", participant, qb)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	if err != nil {
		return models.Participant{}, err
	}
	return *participant, nil
}

// Creator resolves the author of the conversation's oldest message,
// soft-deleted messages included, memoized on the conversation instance.
// Conversations without messages yield the non-existent-user sentinel.
func (r *ConversationRepo) Creator(ctx context.Context, conversation *models.Conversation) (models.User, error) {
	return conversation.Creator(ctx, r.lookupCreator)
}

func (r *ConversationRepo) lookupCreator(ctx context.Context, conversationID int64) (models.User, error) {
	oldest := r.store.Builder().
		Select("*").
		From(r.messagesTable()).
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("created_at ASC").
		Limit(1)
	message := r.reg.Message()
	err := r.store.Get(ctx, "message.oldest", message, oldest)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NonexistentUser(), nil
	}
	if err != nil {
		return models.User{}, err
	}

	user := r.reg.User()
	qb := r.store.Builder().
		Select("*").
		From(r.usersTable()).
		Where(sq.Eq{r.reg.UserKey(): message.UserID})
	err = r.store.Get(ctx, "user.get", user, qb)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NonexistentUser(), nil
	}
	if err != nil {
		return models.User{}, err
	}
	user.Exists = true
	return *user, nil
}

// UserUnreadMessages returns the conversation's messages the user has not
// read. Non-participants get an empty result; a participant who never read
// the conversation gets every message.
func (r *ConversationRepo) UserUnreadMessages(ctx context.Context, conversation *models.Conversation, userID int64) ([]models.Message, error) {
	var messages []models.Message
	qb := r.store.Builder().
		Select("*").
		From(r.messagesTable()).
		Where(sq.Eq{"conversation_id": conversation.ID, "deleted_at": nil}).
		OrderBy("created_at ASC")
	if err := r.store.Select(ctx, "message.list", &messages, qb); err != nil {
		return nil, err
	}

	participant, err := r.GetParticipantFromUser(ctx, conversation.ID, userID)
	if errors.Is(err, ErrParticipantNotFound) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	if participant.LastRead == nil {
		return messages, nil
	}
	return lo.Filter(messages, func(m models.Message, _ int) bool {
		return m.UpdatedAt.After(*participant.LastRead)
	}), nil
}

// UserUnreadMessagesCount counts the conversation's unread messages for
// the user.
func (r *ConversationRepo) UserUnreadMessagesCount(ctx context.Context, conversation *models.Conversation, userID int64) (int, error) {
	messages, err := r.UserUnreadMessages(ctx, conversation, userID)
	if err != nil {
		return 0, err
	}
	return len(messages), nil
}

// ParticipantsUserIDs returns the user ids associated with the
// conversation, soft-deleted participants included, with any extra ids
// appended at the end as-is.
func (r *ConversationRepo) ParticipantsUserIDs(ctx context.Context, conversationID int64, extra ...int64) ([]int64, error) {
	var userIDs []int64
	qb := r.store.Builder().
		Select("user_id").
		From(r.participantsTable()).
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("id ASC")
	if err := r.store.Select(ctx, "participant.user_ids", &userIDs, qb); err != nil {
		return nil, err
	}
	return append(userIDs, extra...), nil
}

// HasParticipant reports whether the user is an active participant.
func (r *ConversationRepo) HasParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var count int64
	qb := r.store.Builder().
		Select("COUNT(*)").
		From(r.participantsTable()).
		Where(sq.Eq{
			"conversation_id": conversationID,
			"user_id":         userID,
			"deleted_at":      nil,
		})
	if err := r.store.Get(ctx, "participant.count", &count, qb); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Users returns the user rows of the conversation's active participants.
func (r *ConversationRepo) Users(ctx context.Context, conversationID int64, excludeUserIDs ...int64) ([]models.User, error) {
	ut := r.usersTable()
	pt := r.participantsTable()
	userKey := r.reg.UserKey()

	qb := r.store.Builder().
		Select(ut+".*").
		From(ut).
		Join(pt+" ON "+ut+"."+userKey+" = "+pt+".user_id").
		Where(sq.Eq{pt + ".conversation_id": conversationID, pt + ".deleted_at": nil}).
		OrderBy(pt + ".id ASC")
	if len(excludeUserIDs) > 0 {
		qb = qb.Where(sq.NotEq{ut + "." + userKey: excludeUserIDs})
	}

	var users []models.User
	if err := r.store.Select(ctx, "user.list", &users, qb); err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Exists = true
	}
	return users, nil
}

// ParticipantsString builds a display string for the conversation's active
// participants: the requested user columns joined with single spaces per
// user, users joined with ", ". The column concatenation goes through the
// store dialect so it stays portable across backends.
func (r *ConversationRepo) ParticipantsString(ctx context.Context, conversationID int64, excludeUserID *int64, columns ...string) (string, error) {
	if len(columns) == 0 {
		columns = []string{"name"}
	}
	ut := r.usersTable()
	pt := r.participantsTable()
	userKey := r.reg.UserKey()

	qualified := lo.Map(columns, func(column string, _ int) string {
		return ut + "." + column
	})
	selectExpr := r.store.Dialect().ConcatWithSpace("participant_name", qualified...)

	qb := r.store.Builder().
		Select(selectExpr).
		From(ut).
		Join(pt+" ON "+ut+"."+userKey+" = "+pt+".user_id").
		Where(sq.Eq{pt + ".conversation_id": conversationID, pt + ".deleted_at": nil}).
		OrderBy(pt + ".id ASC")
	if excludeUserID != nil {
		qb = qb.Where(sq.NotEq{ut + "." + userKey: *excludeUserID})
	}

	var names []string
	if err := r.store.Select(ctx, "participant.names", &names, qb); err != nil {
		return "", fmt.Errorf("participants string: %w", err)
	}
	return strings.Join(names, ", "), nil
}
