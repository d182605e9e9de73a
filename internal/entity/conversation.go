package entity

import "time"

// MockIdPrefix prefixes the id of a locally-synthesized conversation.
const MockIdPrefix = "mock-"

// Participant represents a user as embedded in a conversation
type Participant struct {
	Id          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarUrl   string `json:"avatar_url"`
}

// LastMessage represents the last message summary of a conversation
type LastMessage struct {
	Text      string    `json:"text"`
	SenderId  string    `json:"sender_id"`
	Seen      bool      `json:"seen"`
	UpdatedAt time.Time `json:"updated_at"` // zero value means undated
}

// Conversation represents a conversation in the local list
type Conversation struct {
	Id           string        `json:"id"`
	Participants []Participant `json:"participants"`
	LastMessage  LastMessage   `json:"last_message"`
	IsMock       bool          `json:"is_mock,omitempty"`
}

// Peer returns the peer participant of a 1:1 conversation
func (c *Conversation) Peer() (Participant, bool) {
	if len(c.Participants) == 0 {
		return Participant{}, false
	}
	return c.Participants[0], true
}

// HasParticipant reports whether the given user is among the participants
func (c *Conversation) HasParticipant(userId string) bool {
	for _, p := range c.Participants {
		if p.Id == userId {
			return true
		}
	}
	return false
}

// MockConversationId derives the deterministic id of a mock conversation
// for the given peer, so repeated creation for the same peer is idempotent
func MockConversationId(peerId string) string {
	return MockIdPrefix + peerId
}

// NewMockConversation builds a not-yet-persisted placeholder conversation
// for the given peer with an empty last message
func NewMockConversation(peer Participant) Conversation {
	return Conversation{
		Id:           MockConversationId(peer.Id),
		Participants: []Participant{peer},
		LastMessage:  LastMessage{},
		IsMock:       true,
	}
}
