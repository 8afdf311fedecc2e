// Package registry lets a host application substitute its own table names,
// entity factories, and user primary-key column without the query layer
// depending on concrete host types. A Registry is an explicit configuration
// object constructed once at startup and handed to the repositories; it is
// not safe for reconfiguration after that point.
package registry

import "messenger/models"

// Logical table names used as lookup keys for overrides.
const (
	TableConversations = "conversations"
	TableMessages      = "messages"
	TableParticipants  = "participants"
	TableUsers         = "users"
)

const defaultUserKey = "id"

// Registry maps logical entity roles to concrete tables and factories.
// Unconfigured keys resolve to defaults, never to an error.
type Registry struct {
	tables  map[string]string
	userKey string

	newConversation func() *models.Conversation
	newMessage      func() *models.Message
	newParticipant  func() *models.Participant
	newUser         func() *models.User
}

// New returns a Registry with default table names and factories.
func New() *Registry {
	return &Registry{
		tables:          map[string]string{},
		userKey:         defaultUserKey,
		newConversation: func() *models.Conversation { return &models.Conversation{} },
		newMessage:      func() *models.Message { return &models.Message{} },
		newParticipant:  func() *models.Participant { return &models.Participant{} },
		newUser:         func() *models.User { return &models.User{} },
	}
}

// SetTables merges table-name overrides into the registry. Last write wins
// per key; keys absent from the map keep their current mapping.
func (r *Registry) SetTables(overrides map[string]string) {
	for logical, physical := range overrides {
		r.tables[logical] = physical
	}
}

// Table returns the physical table name for a logical one, or the logical
// name unchanged when no override is configured.
func (r *Registry) Table(logical string) string {
	if physical, ok := r.tables[logical]; ok {
		return physical
	}
	return logical
}

// SetUserKey overrides the primary-key column of the host's user table.
func (r *Registry) SetUserKey(column string) {
	r.userKey = column
}

// UserKey returns the primary-key column of the user table.
func (r *Registry) UserKey() string {
	return r.userKey
}

// SetConversationModel registers the factory used to build conversation
// instances, letting hosts pre-fill defaults on rows before they are
// scanned or inserted.
func (r *Registry) SetConversationModel(factory func() *models.Conversation) {
	r.newConversation = factory
}

// SetMessageModel registers the factory used to build message instances.
func (r *Registry) SetMessageModel(factory func() *models.Message) {
	r.newMessage = factory
}

// SetParticipantModel registers the factory used to build participant
// instances.
func (r *Registry) SetParticipantModel(factory func() *models.Participant) {
	r.newParticipant = factory
}

// SetUserModel registers the factory used to build user instances.
func (r *Registry) SetUserModel(factory func() *models.User) {
	r.newUser = factory
}

// Conversation builds a conversation through the configured factory.
func (r *Registry) Conversation() *models.Conversation {
	return r.newConversation()
}

// Message builds a message through the configured factory.
func (r *Registry) Message() *models.Message {
	return r.newMessage()
}

// Participant builds a participant through the configured factory.
func (r *Registry) Participant() *models.Participant {
	return r.newParticipant()
}

// User builds a user through the configured factory.
func (r *Registry) User() *models.User {
	return r.newUser()
}
