package push

import (
	"github.com/mbeoliero/parley/internal/entity"
)

// Event names on the wire
const (
	EventNewMessage   = "newMessage"
	EventMessagesSeen = "messagesSeen"
	EventOnlineUsers  = "onlineUsers"
)

// Event is a typed server-originated event from the push channel
type Event interface {
	isEvent()
}

// NewMessageEvent delivers a message created on another device or by a peer
type NewMessageEvent struct {
	Message entity.Message
}

// MessagesSeenEvent delivers a seen receipt for a whole conversation
type MessagesSeenEvent struct {
	ConversationId string
}

// OnlineUsersEvent replaces the materialized set of online user ids
type OnlineUsersEvent struct {
	UserIds []string
}

func (NewMessageEvent) isEvent()   {}
func (MessagesSeenEvent) isEvent() {}
func (OnlineUsersEvent) isEvent()  {}

// Channel emits typed events in server delivery order. Connection handshake
// and reconnection are the transport's concern, not the consumer's.
type Channel interface {
	Events() <-chan Event
	Close() error
}
