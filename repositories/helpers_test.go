package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"messenger/models"
	"messenger/registry"
	"messenger/store"
)

type fixture struct {
	t   *testing.T
	ctx context.Context

	store *store.Store
	reg   *registry.Registry

	conversations *ConversationRepo
	messages      *MessageRepo
	users         *UserRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRegistry(t, registry.New())
}

func newFixtureWithRegistry(t *testing.T, reg *registry.Registry) *fixture {
	t.Helper()

	s, err := store.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx, s, reg))

	conversations := NewConversationRepo(s, reg)
	messages := NewMessageRepo(s, reg)

	return &fixture{
		t:             t,
		ctx:           ctx,
		store:         s,
		reg:           reg,
		conversations: conversations,
		messages:      messages,
		users:         NewUserRepo(conversations, messages),
	}
}

// setNow pins the repository clock for the rest of the test.
func setNow(t *testing.T, tm time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return tm }
	t.Cleanup(func() { timeNow = orig })
}

func (f *fixture) createUser(name, email string) int64 {
	f.t.Helper()
	now := timeNow()
	insert := f.store.Builder().
		Insert(f.reg.Table(registry.TableUsers)).
		Columns("name", "email", "created_at", "updated_at").
		Values(name, email, now, now).
		Suffix("RETURNING id")
	var id int64
	require.NoError(f.t, f.store.Get(f.ctx, "test.seed_user", &id, insert))
	return id
}

// createEmptyConversation inserts a conversation row directly, bypassing
// StartConversation, so it has no messages and no participants.
func (f *fixture) createEmptyConversation(subject string) models.Conversation {
	f.t.Helper()
	now := timeNow()
	insert := f.store.Builder().
		Insert(f.reg.Table(registry.TableConversations)).
		Columns("subject", "created_at", "updated_at").
		Values(subject, now, now).
		Suffix("RETURNING id")
	var id int64
	require.NoError(f.t, f.store.Get(f.ctx, "test.seed_conversation", &id, insert))
	return models.Conversation{ID: id, Subject: subject, CreatedAt: now, UpdatedAt: now}
}

func (f *fixture) startConversation(subject string, creatorID int64, recipientIDs ...int64) models.Conversation {
	f.t.Helper()
	conversation, err := f.conversations.StartConversation(f.ctx, StartConversationInput{
		Subject:      subject,
		CreatorID:    creatorID,
		Body:         "hello",
		RecipientIDs: recipientIDs,
	})
	require.NoError(f.t, err)
	return conversation
}

func (f *fixture) addMessage(conversationID, userID int64, body string) models.Message {
	f.t.Helper()
	message, err := f.messages.CreateMessage(f.ctx, NewMessageInput{
		ConversationID: conversationID,
		UserID:         userID,
		Body:           body,
	})
	require.NoError(f.t, err)
	return message
}

func (f *fixture) reload(conversationID int64) models.Conversation {
	f.t.Helper()
	conversation, err := f.conversations.GetConversation(f.ctx, conversationID)
	require.NoError(f.t, err)
	return conversation
}

func conversationIDs(conversations []models.Conversation) []int64 {
	ids := make([]int64, 0, len(conversations))
	for _, c := range conversations {
		ids = append(ids, c.ID)
	}
	return ids
}
