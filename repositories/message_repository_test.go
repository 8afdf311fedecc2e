package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessageTouchesConversation(t *testing.T) {
	f := newFixture(t)
	setNow(t, dayOne)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	conversation := f.startConversation("touch test", chris)

	setNow(t, dayTwo)
	f.addMessage(conversation.ID, chris, "later")

	reloaded := f.reload(conversation.ID)
	assert.True(t, reloaded.UpdatedAt.After(conversation.UpdatedAt))
}

func TestCreateMessageUnknownConversation(t *testing.T) {
	f := newFixture(t)
	chris := f.createUser("Chris Gmyr", "chris@example.com")

	_, err := f.messages.CreateMessage(f.ctx, NewMessageInput{
		ConversationID: 42,
		UserID:         chris,
		Body:           "into the void",
	})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestCreateMessageValidation(t *testing.T) {
	f := newFixture(t)
	setNow(t, dayOne)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	conversation := f.startConversation("validation", chris)

	_, err := f.messages.CreateMessage(f.ctx, NewMessageInput{
		ConversationID: conversation.ID,
		UserID:         chris,
	})
	assert.Error(t, err)
}

func TestUnreadForUser(t *testing.T) {
	f := newFixture(t)
	setNow(t, dayOne)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	dan := f.createUser("Dan Smith", "dan@example.com")
	taylor := f.createUser("Taylor Otwell", "taylor@example.com")

	conversation := f.startConversation("inbox", chris, dan)

	// dan never read: the opening message counts, chris's own does not
	unread, err := f.messages.UnreadForUser(f.ctx, dan)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	unread, err = f.messages.UnreadForUser(f.ctx, chris)
	require.NoError(t, err)
	assert.Empty(t, unread)

	require.NoError(t, f.conversations.MarkAsRead(f.ctx, conversation.ID, dan))
	unread, err = f.messages.UnreadForUser(f.ctx, dan)
	require.NoError(t, err)
	assert.Empty(t, unread)

	setNow(t, dayTwo)
	f.addMessage(conversation.ID, chris, "fresh")
	unread, err = f.messages.UnreadForUser(f.ctx, dan)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "fresh", unread[0].Body)

	count, err := f.messages.CountUnreadForUser(f.ctx, dan)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// taylor participates nowhere
	count, err = f.messages.CountUnreadForUser(f.ctx, taylor)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUnreadForUserSkipsRemovedParticipants(t *testing.T) {
	f := newFixture(t)
	setNow(t, dayOne)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	dan := f.createUser("Dan Smith", "dan@example.com")

	conversation := f.startConversation("left the room", chris, dan)
	require.NoError(t, f.conversations.RemoveParticipants(f.ctx, conversation.ID, dan))

	unread, err := f.messages.UnreadForUser(f.ctx, dan)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestLatestMessage(t *testing.T) {
	f := newFixture(t)
	setNow(t, dayOne)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	conversation := f.startConversation("latest", chris)

	setNow(t, dayTwo)
	f.addMessage(conversation.ID, chris, "newest")

	latest, err := f.messages.LatestMessage(f.ctx, conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, "newest", latest.Body)

	_, err = f.messages.LatestMessage(f.ctx, 42)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestRecipients(t *testing.T) {
	f := newFixture(t)
	setNow(t, dayOne)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	dan := f.createUser("Dan Smith", "dan@example.com")
	taylor := f.createUser("Taylor Otwell", "taylor@example.com")

	conversation := f.startConversation("recipients", chris, dan, taylor)
	message, err := f.messages.LatestMessage(f.ctx, conversation.ID)
	require.NoError(t, err)

	recipients, err := f.messages.Recipients(f.ctx, &message)
	require.NoError(t, err)
	require.Len(t, recipients, 2)
	assert.Equal(t, dan, recipients[0].UserID)
	assert.Equal(t, taylor, recipients[1].UserID)
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture(t)
	setNow(t, dayOne)
	chris := f.createUser("Chris Gmyr", "chris@example.com")
	conversation := f.startConversation("deleting", chris)

	message, err := f.messages.LatestMessage(f.ctx, conversation.ID)
	require.NoError(t, err)
	require.NoError(t, f.messages.DeleteMessage(f.ctx, message.ID))

	_, err = f.messages.GetMessage(f.ctx, message.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.ErrorIs(t, f.messages.DeleteMessage(f.ctx, message.ID), ErrMessageNotFound)
}
