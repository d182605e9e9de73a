package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/internal/push"
	"github.com/mbeoliero/parley/internal/store"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// fakeChannel feeds scripted events into the bridge
type fakeChannel struct {
	events    chan push.Event
	closeOnce sync.Once
	closes    int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{events: make(chan push.Event, 16)}
}

func (f *fakeChannel) Events() <-chan push.Event { return f.events }

func (f *fakeChannel) Close() error {
	f.closeOnce.Do(func() {
		f.closes++
		close(f.events)
	})
	return nil
}

// fakeThread records cache mutations behind a mutex, since the bridge runs
// on its own goroutine
type fakeThread struct {
	mu       sync.Mutex
	activeId string
	appended []entity.Message
	seenAll  int
}

func (f *fakeThread) ActiveConversationId() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeId
}

func (f *fakeThread) Append(msg entity.Message) {
	f.mu.Lock()
	f.appended = append(f.appended, msg)
	f.mu.Unlock()
}

func (f *fakeThread) MarkAllSeen() {
	f.mu.Lock()
	f.seenAll++
	f.mu.Unlock()
}

func (f *fakeThread) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appended)
}

func (f *fakeThread) markAllSeenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seenAll
}

type fakeFetcher struct {
	mu    sync.Mutex
	convs map[string]entity.Conversation
	err   error
	calls []string
}

func (f *fakeFetcher) GetConversation(_ context.Context, conversationId string) (entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, conversationId)
	if f.err != nil {
		return entity.Conversation{}, f.err
	}
	conv, ok := f.convs[conversationId]
	if !ok {
		return entity.Conversation{}, errcode.ErrConvNotFound
	}
	return conv, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNotifier struct {
	mu      sync.Mutex
	senders []string
}

func (f *fakeNotifier) NewMessage(senderName, _ string) {
	f.mu.Lock()
	f.senders = append(f.senders, senderName)
	f.mu.Unlock()
}

func (f *fakeNotifier) notifyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.senders)
}

type bridgeFixture struct {
	channel  *fakeChannel
	convs    *store.ConversationStore
	thread   *fakeThread
	fetcher  *fakeFetcher
	notifier *fakeNotifier
	bridge   *Bridge
	runDone  chan error
}

func startBridge(t *testing.T, loaded ...entity.Conversation) *bridgeFixture {
	t.Helper()

	f := &bridgeFixture{
		channel:  newFakeChannel(),
		convs:    store.NewConversationStore(),
		thread:   &fakeThread{},
		fetcher:  &fakeFetcher{convs: map[string]entity.Conversation{}},
		notifier: &fakeNotifier{},
		runDone:  make(chan error, 1),
	}
	f.convs.Load(loaded)
	f.bridge = New(f.channel, f.convs, f.thread, f.fetcher, f.notifier, "me")

	go func() { f.runDone <- f.bridge.Run(context.Background()) }()
	t.Cleanup(func() {
		f.bridge.Close()
		<-f.runDone
	})
	return f
}

func conv(id, peerId string, seen bool, updatedAt time.Time) entity.Conversation {
	return entity.Conversation{
		Id: id,
		Participants: []entity.Participant{
			{Id: peerId, Username: peerId, DisplayName: "User " + peerId},
		},
		LastMessage: entity.LastMessage{
			Text: "hey", SenderId: peerId, Seen: seen, UpdatedAt: updatedAt,
		},
	}
}

func TestNewMessage_ActiveConversationAppendsAndNotifies(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := startBridge(t, conv("c1", "u9", true, base))
	f.thread.mu.Lock()
	f.thread.activeId = "c1"
	f.thread.mu.Unlock()

	f.channel.events <- push.NewMessageEvent{Message: entity.Message{
		Id: "m1", ConversationId: "c1", SenderId: "u9", Text: "ping",
	}}

	require.Eventually(t, func() bool { return f.thread.appendCount() == 1 },
		time.Second, time.Millisecond)
	require.Equal(t, 1, f.notifier.notifyCount())

	f.notifier.mu.Lock()
	sender := f.notifier.senders[0]
	f.notifier.mu.Unlock()
	require.Equal(t, "User u9", sender, "notifier gets the peer display name")

	top := f.convs.Snapshot()[0]
	require.Equal(t, "c1", top.Id)
	require.Equal(t, "ping", top.LastMessage.Text)
	require.False(t, top.LastMessage.Seen)
}

func TestNewMessage_OwnEchoSkipsThreadAndNotifier(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := startBridge(t, conv("c1", "u9", true, base))
	f.thread.mu.Lock()
	f.thread.activeId = "c1"
	f.thread.mu.Unlock()

	f.channel.events <- push.NewMessageEvent{Message: entity.Message{
		Id: "m1", ConversationId: "c1", SenderId: "me", Text: "mine",
	}}

	require.Eventually(t, func() bool {
		return f.convs.Snapshot()[0].LastMessage.Text == "mine"
	}, time.Second, time.Millisecond)

	require.Zero(t, f.thread.appendCount(), "own echo must not re-append")
	require.Zero(t, f.notifier.notifyCount())
}

func TestNewMessage_InactiveConversationOnlyPatchesStore(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := startBridge(t,
		conv("c1", "u9", true, base.Add(time.Hour)),
		conv("c2", "u2", true, base),
	)
	f.thread.mu.Lock()
	f.thread.activeId = "c1"
	f.thread.mu.Unlock()

	f.channel.events <- push.NewMessageEvent{Message: entity.Message{
		Id: "m1", ConversationId: "c2", SenderId: "u2", Text: "psst",
	}}

	require.Eventually(t, func() bool {
		return f.convs.Snapshot()[0].Id == "c2"
	}, time.Second, time.Millisecond)

	require.Zero(t, f.thread.appendCount())
	require.Zero(t, f.notifier.notifyCount())
	require.Equal(t, "psst", f.convs.Snapshot()[0].LastMessage.Text)
}

func TestNewMessage_UnknownConversationFetchedAndPrepended(t *testing.T) {
	f := startBridge(t)
	f.fetcher.convs["c7"] = conv("c7", "u7", false, time.Now())

	f.channel.events <- push.NewMessageEvent{Message: entity.Message{
		Id: "m1", ConversationId: "c7", SenderId: "u7", Text: "hello stranger",
	}}

	require.Eventually(t, func() bool { return f.convs.Len() == 1 },
		time.Second, time.Millisecond)
	require.Equal(t, "c7", f.convs.Snapshot()[0].Id)
	require.Equal(t, 1, f.fetcher.callCount())
}

func TestNewMessage_UnknownConversationFetchFailureDropsEvent(t *testing.T) {
	f := startBridge(t)
	f.fetcher.err = errcode.ErrNetworkFailure

	f.channel.events <- push.NewMessageEvent{Message: entity.Message{
		Id: "m1", ConversationId: "c7", SenderId: "u7", Text: "lost",
	}}

	require.Eventually(t, func() bool { return f.fetcher.callCount() == 1 },
		time.Second, time.Millisecond)
	require.Zero(t, f.convs.Len(), "event is dropped, no retry")
}

func TestMessagesSeen_InactiveConversation(t *testing.T) {
	// Seen receipt for a conversation that is not open: the store flag flips,
	// the thread cache is untouched.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := startBridge(t,
		conv("c1", "u9", false, base.Add(time.Hour)),
		conv("c2", "u2", false, base),
	)
	f.thread.mu.Lock()
	f.thread.activeId = "c1"
	f.thread.mu.Unlock()

	f.channel.events <- push.MessagesSeenEvent{ConversationId: "c2"}

	require.Eventually(t, func() bool {
		c, ok := f.convs.Get("c2")
		return ok && c.LastMessage.Seen
	}, time.Second, time.Millisecond)

	require.Zero(t, f.thread.markAllSeenCount(), "inactive receipt must not touch the thread")

	snapshot := f.convs.Snapshot()
	require.Equal(t, "c1", snapshot[0].Id, "seen receipt must not reorder the list")
}

func TestMessagesSeen_ActiveConversationMarksThread(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := startBridge(t, conv("c1", "u9", false, base))
	f.thread.mu.Lock()
	f.thread.activeId = "c1"
	f.thread.mu.Unlock()

	f.channel.events <- push.MessagesSeenEvent{ConversationId: "c1"}

	require.Eventually(t, func() bool { return f.thread.markAllSeenCount() == 1 },
		time.Second, time.Millisecond)

	c, _ := f.convs.Get("c1")
	require.True(t, c.LastMessage.Seen)
}

func TestOnlineUsers_ReplacesPresence(t *testing.T) {
	f := startBridge(t)

	f.channel.events <- push.OnlineUsersEvent{UserIds: []string{"u2", "u9"}}
	require.Eventually(t, func() bool { return f.bridge.Presence().IsOnline("u9") },
		time.Second, time.Millisecond)

	f.channel.events <- push.OnlineUsersEvent{UserIds: []string{"u2"}}
	require.Eventually(t, func() bool { return !f.bridge.Presence().IsOnline("u9") },
		time.Second, time.Millisecond)
	require.Equal(t, []string{"u2"}, f.bridge.Presence().OnlineUsers())
}

func TestRun_ChannelClosedReturnsError(t *testing.T) {
	f := startBridge(t)

	require.NoError(t, f.channel.Close())
	require.ErrorIs(t, <-f.runDone, errcode.ErrChannelClosed)

	// runDone is drained; refill so the cleanup's receive does not hang.
	f.runDone <- nil
}

func TestClose_Idempotent(t *testing.T) {
	f := startBridge(t)

	f.bridge.Close()
	f.bridge.Close()
	require.NoError(t, <-f.runDone)
	f.runDone <- nil

	require.Equal(t, 1, f.channel.closes, "channel must be detached exactly once")
}
