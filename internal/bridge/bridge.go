package bridge

import (
	"context"
	"sync"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/internal/push"
	"github.com/mbeoliero/parley/internal/store"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// ConversationFetcher fetches a conversation unknown to the local store
type ConversationFetcher interface {
	GetConversation(ctx context.Context, conversationId string) (entity.Conversation, error)
}

// ThreadSink is the slice of the thread cache the bridge mutates
type ThreadSink interface {
	ActiveConversationId() string
	Append(msg entity.Message)
	MarkAllSeen()
}

// Notifier is the inbound-message side effect hook
type Notifier interface {
	NewMessage(senderName, preview string)
}

// Bridge translates push channel events into conversation store and thread
// cache mutations. Run drains events in delivery order with no internal
// reordering; Close detaches from the channel exactly once, so reconnecting
// with a fresh bridge never accumulates handlers.
type Bridge struct {
	channel       push.Channel
	convs         *store.ConversationStore
	thread        ThreadSink
	fetcher       ConversationFetcher
	notifier      Notifier
	presence      *PresenceSet
	currentUserId string

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a bridge over an attached push channel
func New(channel push.Channel, convs *store.ConversationStore, thread ThreadSink,
	fetcher ConversationFetcher, notifier Notifier, currentUserId string) *Bridge {
	return &Bridge{
		channel:       channel,
		convs:         convs,
		thread:        thread,
		fetcher:       fetcher,
		notifier:      notifier,
		presence:      NewPresenceSet(),
		currentUserId: currentUserId,
		done:          make(chan struct{}),
	}
}

// Presence returns the bridge-owned online user set (read-only to callers)
func (b *Bridge) Presence() *PresenceSet {
	return b.presence
}

// Run processes events until the channel closes, the context is cancelled
// or Close is called. Returns errcode.ErrChannelClosed when the channel
// ends on its own.
func (b *Bridge) Run(ctx context.Context) error {
	log.CtxInfo(ctx, "event bridge connected")
	defer b.Close()

	for {
		select {
		case <-ctx.Done():
			log.CtxInfo(ctx, "event bridge stopped: %v", ctx.Err())
			return ctx.Err()
		case <-b.done:
			return nil
		case event, ok := <-b.channel.Events():
			if !ok {
				log.CtxWarn(ctx, "push channel closed")
				return errcode.ErrChannelClosed
			}
			b.handle(ctx, event)
		}
	}
}

// Close detaches the bridge from the channel; safe to call more than once
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		if err := b.channel.Close(); err != nil {
			log.Warn("push channel close failed: %v", err)
		}
		log.Info("event bridge detached")
	})
}

// handle dispatches one event. Events are processed strictly in delivery
// order; any interleaving with in-flight REST fetches is absorbed by the
// store's idempotent upsert/insert operations.
func (b *Bridge) handle(ctx context.Context, event push.Event) {
	switch e := event.(type) {
	case push.NewMessageEvent:
		b.handleNewMessage(ctx, e.Message)
	case push.MessagesSeenEvent:
		b.handleMessagesSeen(ctx, e.ConversationId)
	case push.OnlineUsersEvent:
		b.presence.Replace(e.UserIds)
	}
}

func (b *Bridge) handleNewMessage(ctx context.Context, msg entity.Message) {
	// Only a peer's message for the open thread lands in the cache; our own
	// pushes were already appended optimistically on send.
	if msg.ConversationId == b.thread.ActiveConversationId() && msg.SenderId != b.currentUserId {
		b.thread.Append(msg)
		if b.notifier != nil {
			senderName := msg.SenderId
			if conv, ok := b.convs.Get(msg.ConversationId); ok {
				if peer, hasPeer := conv.Peer(); hasPeer {
					senderName = peer.DisplayName
				}
			}
			b.notifier.NewMessage(senderName, msg.Preview())
		}
	}

	patch := entity.LastMessage{Text: msg.Preview(), SenderId: msg.SenderId}
	err := b.convs.UpsertFromPush(msg.ConversationId, patch)
	if err == nil {
		return
	}

	// Unknown conversation: first message from someone new. Fetch it and
	// insert at the top; on failure the event is dropped, no retry queue.
	conv, fetchErr := b.fetcher.GetConversation(ctx, msg.ConversationId)
	if fetchErr != nil {
		log.CtxWarn(ctx, "fetch unknown conversation failed: conversation_id=%s, error=%v",
			msg.ConversationId, fetchErr)
		return
	}
	b.convs.InsertAtTop(conv)
}

func (b *Bridge) handleMessagesSeen(ctx context.Context, conversationId string) {
	b.convs.MarkSeen(conversationId)

	if conversationId == b.thread.ActiveConversationId() {
		b.thread.MarkAllSeen()
	}
}
