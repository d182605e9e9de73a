package entity

// SelectedConversation is the ephemeral pointer to the active conversation.
// At most one is set at a time; only its conversation id survives a restart.
type SelectedConversation struct {
	ConversationId  string
	PeerUserId      string
	PeerUsername    string
	PeerDisplayName string
	PeerAvatarUrl   string
	IsMock          bool
}

// IsSet reports whether the pointer refers to a conversation
func (s SelectedConversation) IsSet() bool {
	return s.ConversationId != ""
}

// PointerTo builds a pointer to the given conversation and peer
func PointerTo(conv Conversation, peer Participant) SelectedConversation {
	return SelectedConversation{
		ConversationId:  conv.Id,
		PeerUserId:      peer.Id,
		PeerUsername:    peer.Username,
		PeerDisplayName: peer.DisplayName,
		PeerAvatarUrl:   peer.AvatarUrl,
		IsMock:          conv.IsMock,
	}
}
