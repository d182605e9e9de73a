package store

import (
	"sort"
	"sync"
	"time"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// ConversationStore owns the ordered conversation list. The list is kept in
// most-recently-active order: load re-sorts wholesale, every mutating push
// or send moves the touched conversation to the top.
type ConversationStore struct {
	mu    sync.RWMutex
	items []entity.Conversation
	now   func() time.Time
}

// NewConversationStore creates an empty store
func NewConversationStore() *ConversationStore {
	return &ConversationStore{now: time.Now}
}

// Load replaces the list wholesale and sorts by last message time descending.
// Conversations without a last-message time sort after all dated ones; the
// sort is stable so equal keys preserve server order.
func (s *ConversationStore) Load(conversations []entity.Conversation) {
	items := make([]entity.Conversation, len(conversations))
	copy(items, conversations)

	sort.SliceStable(items, func(i, j int) bool {
		a := items[i].LastMessage.UpdatedAt
		b := items[j].LastMessage.UpdatedAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// UpsertFromPush applies a last-message patch to an existing conversation,
// stamps it with the current time and moves it to the top. Returns
// errcode.ErrUnknownConversation if the id is not in the store; the caller
// is expected to fetch the conversation and InsertAtTop it.
func (s *ConversationStore) UpsertFromPush(conversationId string, patch entity.LastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(conversationId)
	if idx < 0 {
		return errcode.ErrUnknownConversation
	}

	conv := s.items[idx]
	conv.LastMessage.Text = patch.Text
	conv.LastMessage.SenderId = patch.SenderId
	conv.LastMessage.Seen = patch.Seen
	conv.LastMessage.UpdatedAt = s.now()

	s.removeAt(idx)
	s.prepend(conv)
	return nil
}

// InsertAtTop prepends a conversation. Any existing conversation with the
// same id is removed first, so repeated inserts stay idempotent.
func (s *ConversationStore) InsertAtTop(conv entity.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(conv.Id); idx >= 0 {
		s.removeAt(idx)
	}
	s.prepend(conv)
}

// MarkSeen sets the last message's seen flag. The flag is monotonic; a
// missing or already-seen conversation is a no-op.
func (s *ConversationStore) MarkSeen(conversationId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(conversationId)
	if idx < 0 {
		return
	}
	s.items[idx].LastMessage.Seen = true
}

// PromoteMock turns a mock conversation into a persisted one. If a non-mock
// conversation with the same peer already exists the patch is merged into it
// and the mock is dropped; otherwise the mock is renamed to newId and cleared
// of its mock flag. Either way the surviving conversation moves to the top.
func (s *ConversationStore) PromoteMock(oldMockId, newId string, patch entity.LastMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mockIdx := s.indexOf(oldMockId)
	if mockIdx < 0 {
		return
	}

	conv := s.items[mockIdx]
	peer, _ := conv.Peer()

	// A real conversation for the same peer may have appeared between mock
	// creation and the first send; merge instead of duplicating.
	if existingIdx := s.indexOfPeer(peer.Id, oldMockId); existingIdx >= 0 {
		existing := s.items[existingIdx]
		existing.LastMessage.Text = patch.Text
		existing.LastMessage.SenderId = patch.SenderId
		existing.LastMessage.Seen = patch.Seen
		existing.LastMessage.UpdatedAt = s.now()

		// Remove the higher index first so the lower one stays valid.
		if mockIdx > existingIdx {
			s.removeAt(mockIdx)
			s.removeAt(existingIdx)
		} else {
			s.removeAt(existingIdx)
			s.removeAt(mockIdx)
		}
		s.prepend(existing)
		return
	}

	conv.Id = newId
	conv.IsMock = false
	conv.LastMessage.Text = patch.Text
	conv.LastMessage.SenderId = patch.SenderId
	conv.LastMessage.Seen = patch.Seen
	conv.LastMessage.UpdatedAt = s.now()

	s.removeAt(mockIdx)
	s.prepend(conv)
}

// MoveToTop moves an existing conversation to index 0 without touching it
func (s *ConversationStore) MoveToTop(conversationId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(conversationId)
	if idx <= 0 {
		return
	}
	conv := s.items[idx]
	s.removeAt(idx)
	s.prepend(conv)
}

// Get returns a conversation by id
func (s *ConversationStore) Get(conversationId string) (entity.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(conversationId); idx >= 0 {
		return s.items[idx], true
	}
	return entity.Conversation{}, false
}

// FindByPeer returns the non-mock conversation containing the given peer
func (s *ConversationStore) FindByPeer(peerId string) (entity.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conv := range s.items {
		if !conv.IsMock && conv.HasParticipant(peerId) {
			return conv, true
		}
	}
	return entity.Conversation{}, false
}

// Snapshot returns a copy of the list in render order
func (s *ConversationStore) Snapshot() []entity.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entity.Conversation, len(s.items))
	copy(items, s.items)
	return items
}

// Len returns the number of conversations
func (s *ConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// indexOf returns the index of the conversation with the given id, or -1.
// Callers must hold the lock.
func (s *ConversationStore) indexOf(conversationId string) int {
	for i := range s.items {
		if s.items[i].Id == conversationId {
			return i
		}
	}
	return -1
}

// indexOfPeer returns the index of a non-mock conversation containing the
// peer, skipping the conversation with skipId. Callers must hold the lock.
func (s *ConversationStore) indexOfPeer(peerId, skipId string) int {
	for i := range s.items {
		if s.items[i].Id == skipId || s.items[i].IsMock {
			continue
		}
		if s.items[i].HasParticipant(peerId) {
			return i
		}
	}
	return -1
}

// removeAt removes the item at idx. Callers must hold the lock.
func (s *ConversationStore) removeAt(idx int) {
	s.items = append(s.items[:idx], s.items[idx+1:]...)
}

// prepend puts a conversation at index 0. Callers must hold the lock.
func (s *ConversationStore) prepend(conv entity.Conversation) {
	s.items = append([]entity.Conversation{conv}, s.items...)
}
