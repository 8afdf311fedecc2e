package repositories

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"messenger/models"
	"messenger/registry"
	"messenger/store"
)

// MessageRepo persists messages and answers the global unread queries.
type MessageRepo struct {
	store *store.Store
	reg   *registry.Registry
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(s *store.Store, reg *registry.Registry) *MessageRepo {
	return &MessageRepo{store: s, reg: reg}
}

func (r *MessageRepo) table() string {
	return r.reg.Table(registry.TableMessages)
}

func (r *MessageRepo) conversationsTable() string {
	return r.reg.Table(registry.TableConversations)
}

func (r *MessageRepo) participantsTable() string {
	return r.reg.Table(registry.TableParticipants)
}

// CreateMessage appends a message to a conversation and bumps the parent
// conversation's updated_at in the same transaction, which is what moves
// the conversation to the top of latest-activity listings.
func (r *MessageRepo) CreateMessage(ctx context.Context, input NewMessageInput) (models.Message, error) {
	if err := validate.Struct(input); err != nil {
		return models.Message{}, err
	}

	message := r.reg.Message()
	message.ConversationID = input.ConversationID
	message.UserID = input.UserID
	message.Body = input.Body

	err := r.store.WithinTx(ctx, func(ctx context.Context) error {
		now := timeNow()
		message.CreatedAt = now
		message.UpdatedAt = now

		touch := r.store.Builder().
			Update(r.conversationsTable()).
			Set("updated_at", now).
			Where(sq.Eq{"id": input.ConversationID, "deleted_at": nil})
		res, err := r.store.Exec(ctx, "conversation.touch", touch)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrConversationNotFound
		}

		insert := r.store.Builder().
			Insert(r.table()).
			Columns("conversation_id", "user_id", "body", "created_at", "updated_at").
			Values(message.ConversationID, message.UserID, message.Body, now, now).
			Suffix("RETURNING id")
		return r.store.Get(ctx, "message.create", &message.ID, insert)
	})
	if err != nil {
		return models.Message{}, err
	}
	return *message, nil
}

// GetMessage fetches an active message by id.
func (r *MessageRepo) GetMessage(ctx context.Context, id int64) (models.Message, error) {
	message := r.reg.Message()
	qb := r.store.Builder().
		Select("*").
		From(r.table()).
		Where(sq.Eq{"id": id, "deleted_at": nil})
	err := r.store.Get(ctx, "message.get", message, qb)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return *message, nil
}

// LatestMessage returns the newest active message of a conversation.
func (r *MessageRepo) LatestMessage(ctx context.Context, conversationID int64) (models.Message, error) {
	message := r.reg.Message()
	qb := r.store.Builder().
		Select("*").
		From(r.table()).
		Where(sq.Eq{"conversation_id": conversationID, "deleted_at": nil}).
		OrderBy("created_at DESC").
		Limit(1)
	err := r.store.Get(ctx, "message.latest", message, qb)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return *message, nil
}

func (r *MessageRepo) unreadForUser(userID int64) sq.SelectBuilder {
	mt := r.table()
	ct := r.conversationsTable()
	pt := r.participantsTable()
	return r.store.Builder().
		Select(mt+".*").
		From(mt).
		Join(ct+" ON "+ct+".id = "+mt+".conversation_id AND "+ct+".deleted_at IS NULL").
		Join(pt+" ON "+pt+".conversation_id = "+mt+".conversation_id AND "+pt+".user_id = ? AND "+pt+".deleted_at IS NULL", userID).
		Where(sq.Eq{mt + ".deleted_at": nil}).
		Where(sq.NotEq{mt + ".user_id": userID}).
		Where(sq.Or{
			sq.Eq{pt + ".last_read": nil},
			sq.Expr(pt + ".last_read < " + mt + ".created_at"),
		})
}

// UnreadForUser returns messages across all conversations the user actively
// participates in, authored by others, and created after the user's last
// read (or any time if they never read the conversation). This backs global
// inbox counts.
func (r *MessageRepo) UnreadForUser(ctx context.Context, userID int64) ([]models.Message, error) {
	var messages []models.Message
	qb := r.unreadForUser(userID).OrderBy(r.table() + ".created_at ASC")
	if err := r.store.Select(ctx, "message.unread", &messages, qb); err != nil {
		return nil, err
	}
	return messages, nil
}

// CountUnreadForUser counts the user's unread messages across all of their
// conversations.
func (r *MessageRepo) CountUnreadForUser(ctx context.Context, userID int64) (int64, error) {
	counter := sq.
		Select("COUNT(*)").
		FromSelect(r.unreadForUser(userID), "unread").
		PlaceholderFormat(r.store.Dialect().Placeholder())
	var count int64
	if err := r.store.Get(ctx, "message.unread_count", &count, counter); err != nil {
		return 0, err
	}
	return count, nil
}

// Recipients returns the active participants of the message's conversation
// other than its author.
func (r *MessageRepo) Recipients(ctx context.Context, message *models.Message) ([]models.Participant, error) {
	var participants []models.Participant
	qb := r.store.Builder().
		Select("*").
		From(r.participantsTable()).
		Where(sq.Eq{"conversation_id": message.ConversationID, "deleted_at": nil}).
		Where(sq.NotEq{"user_id": message.UserID}).
		OrderBy("id ASC")
	if err := r.store.Select(ctx, "participant.recipients", &participants, qb); err != nil {
		return nil, err
	}
	return participants, nil
}

// DeleteMessage soft-deletes a message and touches its parent conversation.
func (r *MessageRepo) DeleteMessage(ctx context.Context, id int64) error {
	return r.store.WithinTx(ctx, func(ctx context.Context) error {
		message, err := r.GetMessage(ctx, id)
		if err != nil {
			return err
		}
		now := timeNow()
		update := r.store.Builder().
			Update(r.table()).
			Set("deleted_at", now).
			Set("updated_at", now).
			Where(sq.Eq{"id": id, "deleted_at": nil})
		if _, err := r.store.Exec(ctx, "message.delete", update); err != nil {
			return err
		}
		touch := r.store.Builder().
			Update(r.conversationsTable()).
			Set("updated_at", now).
			Where(sq.Eq{"id": message.ConversationID})
		_, err = r.store.Exec(ctx, "conversation.touch", touch)
		return err
	})
}
