package selection

import (
	"context"
	"sync"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/internal/localstate"
	"github.com/mbeoliero/parley/internal/store"
)

// Slot persists the last-selected conversation id across restarts
type Slot interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// Controller owns the single active-conversation pointer. Every pointer
// change with a non-empty id is written to the persisted slot; at boot the
// slot is matched against the freshly loaded list and dropped on a miss.
type Controller struct {
	mu      sync.RWMutex
	convs   *store.ConversationStore
	slot    Slot
	current entity.SelectedConversation
}

// NewController creates a controller over the given store and slot
func NewController(convs *store.ConversationStore, slot Slot) *Controller {
	return &Controller{convs: convs, slot: slot}
}

// Current returns the active pointer; the zero value means nothing selected
func (c *Controller) Current() entity.SelectedConversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Select points at a conversation from the list, using its embedded peer
func (c *Controller) Select(ctx context.Context, conv entity.Conversation) {
	peer, ok := conv.Peer()
	if !ok {
		log.CtxWarn(ctx, "select skipped, conversation has no participants: conversation_id=%s", conv.Id)
		return
	}
	c.SelectExisting(ctx, conv, peer)
}

// SelectExisting sets the pointer to the given conversation and moves it to
// the top of the list
func (c *Controller) SelectExisting(ctx context.Context, conv entity.Conversation, peer entity.Participant) {
	c.setPointer(ctx, entity.PointerTo(conv, peer))
	c.convs.MoveToTop(conv.Id)
}

// SelectOrCreate resolves a click on a search result. An existing non-mock
// conversation with the peer is selected; otherwise a deterministic mock
// conversation is inserted at the top and pointed at. The caller guarantees
// peer is never the current user (the search layer filters self out).
func (c *Controller) SelectOrCreate(ctx context.Context, peer entity.Participant) entity.SelectedConversation {
	if existing, ok := c.convs.FindByPeer(peer.Id); ok {
		c.SelectExisting(ctx, existing, peer)
		return c.Current()
	}

	mock := entity.NewMockConversation(peer)
	c.convs.InsertAtTop(mock)
	c.setPointer(ctx, entity.PointerTo(mock, peer))
	return c.Current()
}

// Promote swaps the pointer's conversation id after a mock conversation was
// persisted by its first sent message
func (c *Controller) Promote(ctx context.Context, newConversationId string) {
	c.mu.Lock()
	if !c.current.IsSet() {
		c.mu.Unlock()
		return
	}
	pointer := c.current
	pointer.ConversationId = newConversationId
	pointer.IsMock = false
	c.mu.Unlock()

	c.setPointer(ctx, pointer)
}

// Clear unsets the pointer. The persisted slot is left alone so the last
// real selection survives the next boot.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.current = entity.SelectedConversation{}
	c.mu.Unlock()
}

// Restore re-hydrates the pointer from the persisted slot against the
// freshly loaded conversation list. A stale id or a conversation without
// participants leaves the pointer unset.
func (c *Controller) Restore(ctx context.Context) {
	stored, ok, err := c.slot.Get(ctx, localstate.KeySelectedConversation)
	if err != nil {
		log.CtxWarn(ctx, "read persisted selection failed: %v", err)
		return
	}
	if !ok || stored == "" {
		return
	}

	conv, found := c.convs.Get(stored)
	if !found {
		log.CtxDebug(ctx, "persisted selection not in loaded list, dropping: conversation_id=%s", stored)
		return
	}
	peer, hasPeer := conv.Peer()
	if !hasPeer {
		return
	}

	c.mu.Lock()
	c.current = entity.PointerTo(conv, peer)
	c.mu.Unlock()
}

// setPointer stores the pointer and persists its conversation id
func (c *Controller) setPointer(ctx context.Context, pointer entity.SelectedConversation) {
	c.mu.Lock()
	c.current = pointer
	c.mu.Unlock()

	if pointer.ConversationId == "" {
		return
	}
	if err := c.slot.Put(ctx, localstate.KeySelectedConversation, pointer.ConversationId); err != nil {
		log.CtxWarn(ctx, "persist selection failed: conversation_id=%s, error=%v", pointer.ConversationId, err)
	}
}
