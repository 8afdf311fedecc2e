package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConversations(t *testing.T) {
	f := newFixture(t)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	dan := f.createUser("Dan Smith", "dan@example.com")

	setNow(t, dayOne)
	first := f.startConversation("first", chris, dan)
	setNow(t, dayTwo)
	second := f.startConversation("second", chris, dan)
	f.startConversation("not dans", chris)

	conversations, err := f.users.Conversations(f.ctx, dan)
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID}, conversationIDs(conversations))
}

func TestUserConversationsWithNewMessages(t *testing.T) {
	f := newFixture(t)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	dan := f.createUser("Dan Smith", "dan@example.com")

	setNow(t, dayOne)
	read := f.startConversation("read", chris, dan)
	unread := f.startConversation("unread", chris, dan)
	require.NoError(t, f.conversations.MarkAsRead(f.ctx, read.ID, dan))

	conversations, err := f.users.ConversationsWithNewMessages(f.ctx, dan)
	require.NoError(t, err)
	assert.Equal(t, []int64{unread.ID}, conversationIDs(conversations))

	count, err := f.users.NewConversationsCount(f.ctx, dan)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// fresh activity in the read conversation makes it new again
	setNow(t, dayTwo)
	f.addMessage(read.ID, chris, "more")
	count, err = f.users.NewConversationsCount(f.ctx, dan)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestUserUnreadMessagesCountAcrossConversations(t *testing.T) {
	f := newFixture(t)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	dan := f.createUser("Dan Smith", "dan@example.com")

	setNow(t, dayOne)
	first := f.startConversation("first", chris, dan)
	second := f.startConversation("second", chris, dan)

	count, err := f.users.UnreadMessagesCount(f.ctx, dan)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, f.conversations.MarkAsRead(f.ctx, first.ID, dan))
	count, err = f.users.UnreadMessagesCount(f.ctx, dan)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// the creator's own messages never count against them
	count, err = f.users.UnreadMessagesCount(f.ctx, chris)
	require.NoError(t, err)
	assert.Zero(t, count)

	setNow(t, dayTwo)
	f.addMessage(second.ID, dan, "a reply")
	count, err = f.users.UnreadMessagesCount(f.ctx, chris)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
