package thread

import (
	"context"
	"sync"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// MessageLoader fetches the message thread of a conversation
type MessageLoader interface {
	GetMessages(ctx context.Context, conversationId string) ([]entity.Message, error)
}

// Cache holds the message list of the active conversation. Loads are
// guarded against stale resolution: switching the pointer while a fetch is
// in flight discards the late result instead of applying it.
type Cache struct {
	mu         sync.Mutex
	loader     MessageLoader
	active     entity.SelectedConversation
	messages   []entity.Message
	generation uint64
	loading    bool
}

// NewCache creates an empty cache
func NewCache(loader MessageLoader) *Cache {
	return &Cache{loader: loader}
}

// LoadFor replaces the thread for the given pointer. A mock conversation has
// no history, so it resolves to an empty, fully loaded thread without any
// network call. A load failure leaves the thread empty and is non-fatal.
func (c *Cache) LoadFor(ctx context.Context, pointer entity.SelectedConversation) error {
	c.mu.Lock()
	c.active = pointer
	c.generation++
	generation := c.generation
	c.messages = nil

	if !pointer.IsSet() || pointer.IsMock {
		c.loading = false
		c.mu.Unlock()
		return nil
	}

	c.loading = true
	c.mu.Unlock()

	messages, err := c.loader.GetMessages(ctx, pointer.ConversationId)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation {
		// The pointer moved on while we were fetching; this result is stale.
		log.CtxDebug(ctx, "discard stale thread load: conversation_id=%s", pointer.ConversationId)
		return nil
	}

	c.loading = false
	if err != nil {
		c.messages = nil
		log.CtxWarn(ctx, "thread load failed: conversation_id=%s, error=%v", pointer.ConversationId, err)
		return errcode.ErrLoadFailed.Wrap(err)
	}

	c.messages = messages
	return nil
}

// Append adds a message to the thread. Used for optimistic appends on send
// and for inbound pushes already matched to the active pointer.
func (c *Cache) Append(msg entity.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

// MarkAllSeen flips every unseen message to seen. Monotonic: an already-seen
// message is never unset.
func (c *Cache) MarkAllSeen() {
	c.mu.Lock()
	for i := range c.messages {
		c.messages[i].Seen = true
	}
	c.mu.Unlock()
}

// Messages returns a copy of the thread in chronological order
func (c *Cache) Messages() []entity.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]entity.Message, len(c.messages))
	copy(messages, c.messages)
	return messages
}

// Active returns the pointer the thread currently belongs to
func (c *Cache) Active() entity.SelectedConversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// ActiveConversationId returns the active conversation id, empty if unset
func (c *Cache) ActiveConversationId() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active.ConversationId
}

// Loading reports whether a load is in flight
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}
