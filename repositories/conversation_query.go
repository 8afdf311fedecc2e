package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"messenger/models"
)

// ConversationQuery is a composable, lazily-executed conversation listing.
// Scopes narrow it, executors run it; the same query can be executed more
// than once.
type ConversationQuery struct {
	repo *ConversationRepo
	q    sq.SelectBuilder
	err  error
}

// Query starts a listing over active (not soft-deleted) conversations.
func (r *ConversationRepo) Query() *ConversationQuery {
	t := r.table()
	return &ConversationQuery{
		repo: r,
		q: r.store.Builder().
			Select(t + ".*").
			From(t).
			Where(sq.Eq{t + ".deleted_at": nil}),
	}
}

// GetAllLatest lists all conversations ordered by most recent activity,
// irrespective of participation.
func (r *ConversationRepo) GetAllLatest() *ConversationQuery {
	return r.Query().Latest()
}

// Latest orders the listing by updated_at descending.
func (cq *ConversationQuery) Latest() *ConversationQuery {
	cq.q = cq.q.OrderBy(cq.repo.table() + ".updated_at DESC")
	return cq
}

// ForUser keeps conversations where the user has an active participant row.
func (cq *ConversationQuery) ForUser(userID int64) *ConversationQuery {
	t := cq.repo.table()
	pt := cq.repo.participantsTable()
	cq.q = cq.q.
		Join(pt + " ON " + pt + ".conversation_id = " + t + ".id").
		Where(sq.Eq{pt + ".user_id": userID, pt + ".deleted_at": nil})
	return cq
}

// ForUserWithNewMessages keeps conversations where the user has an active
// participant row and there is activity newer than their last read, or they
// have never read the conversation.
func (cq *ConversationQuery) ForUserWithNewMessages(userID int64) *ConversationQuery {
	t := cq.repo.table()
	pt := cq.repo.participantsTable()
	cq.q = cq.q.
		Join(pt + " ON " + pt + ".conversation_id = " + t + ".id").
		Where(sq.Eq{pt + ".user_id": userID, pt + ".deleted_at": nil}).
		Where(sq.Or{
			sq.Expr(t + ".updated_at > " + pt + ".last_read"),
			sq.Eq{pt + ".last_read": nil},
		})
	return cq
}

// Between keeps conversations whose active participants include every one
// of the given user ids. Duplicate ids are collapsed before the count
// comparison so they cannot satisfy it on their own.
func (cq *ConversationQuery) Between(userIDs ...int64) *ConversationQuery {
	ids := lo.Uniq(userIDs)
	t := cq.repo.table()
	pt := cq.repo.participantsTable()
	sub, args, err := sq.
		Select("conversation_id").
		From(pt).
		Where(sq.Eq{"user_id": ids, "deleted_at": nil}).
		GroupBy("conversation_id").
		Having("COUNT(DISTINCT user_id) = ?", len(ids)).
		ToSql()
	if err != nil {
		cq.err = fmt.Errorf("failed to build sql query: %v", err)
		return cq
	}
	cq.q = cq.q.Where(sq.Expr(t+".id IN ("+sub+")", args...))
	return cq
}

// All executes the query and returns every matching conversation.
func (cq *ConversationQuery) All(ctx context.Context) ([]models.Conversation, error) {
	if cq.err != nil {
		return nil, cq.err
	}
	var conversations []models.Conversation
	if err := cq.repo.store.Select(ctx, "conversation.list", &conversations, cq.q); err != nil {
		return nil, err
	}
	return conversations, nil
}

// First executes the query and returns its first row.
func (cq *ConversationQuery) First(ctx context.Context) (models.Conversation, error) {
	if cq.err != nil {
		return models.Conversation{}, cq.err
	}
	conversation := cq.repo.reg.Conversation()
	err := cq.repo.store.Get(ctx, "conversation.first", conversation, cq.q.Limit(1))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return models.Conversation{}, err
	}
	return *conversation, nil
}

// Count executes the query as a count.
func (cq *ConversationQuery) Count(ctx context.Context) (int64, error) {
	if cq.err != nil {
		return 0, cq.err
	}
	counter := sq.
		Select("COUNT(*)").
		FromSelect(cq.q, "listing").
		PlaceholderFormat(cq.repo.store.Dialect().Placeholder())
	var count int64
	if err := cq.repo.store.Get(ctx, "conversation.count", &count, counter); err != nil {
		return 0, err
	}
	return count, nil
}
