package selection

import (
	"context"
	"testing"
	"time"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/internal/localstate"
	"github.com/mbeoliero/parley/internal/store"
)

// memSlot is an in-memory stand-in for the persisted local state slot
type memSlot struct {
	values map[string]string
	puts   int
}

func newMemSlot() *memSlot {
	return &memSlot{values: make(map[string]string)}
}

func (m *memSlot) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memSlot) Put(_ context.Context, key, value string) error {
	m.values[key] = value
	m.puts++
	return nil
}

func loadedStore(t *testing.T, convs ...entity.Conversation) *store.ConversationStore {
	t.Helper()
	s := store.NewConversationStore()
	s.Load(convs)
	return s
}

func realConversation(id, peerId string) entity.Conversation {
	return entity.Conversation{
		Id: id,
		Participants: []entity.Participant{
			{Id: peerId, Username: peerId, DisplayName: "User " + peerId},
		},
		LastMessage: entity.LastMessage{
			Text: "hey", SenderId: peerId,
			UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestSelectOrCreate_CreatesMockOnce(t *testing.T) {
	ctx := context.Background()
	convs := loadedStore(t)
	slot := newMemSlot()
	c := NewController(convs, slot)

	peer := entity.Participant{Id: "u9", Username: "nine", DisplayName: "Nine"}

	pointer := c.SelectOrCreate(ctx, peer)
	if pointer.ConversationId != "mock-u9" {
		t.Fatalf("expected mock pointer id mock-u9, got %s", pointer.ConversationId)
	}
	if !pointer.IsMock {
		t.Fatal("expected pointer to be mock")
	}
	if convs.Len() != 1 {
		t.Fatalf("expected 1 conversation, got %d", convs.Len())
	}

	// Second click on the same peer must not duplicate the mock. The mock
	// is already the peer's only conversation, and mocks never satisfy the
	// non-mock lookup, so a fresh mock with the same id replaces it.
	c.SelectOrCreate(ctx, peer)
	if convs.Len() != 1 {
		t.Fatalf("expected exactly 1 mock after repeat select, got %d", convs.Len())
	}
	if got := c.Current().ConversationId; got != "mock-u9" {
		t.Fatalf("expected pointer to stay on mock-u9, got %s", got)
	}
}

func TestSelectOrCreate_ReusesExistingConversation(t *testing.T) {
	ctx := context.Background()
	convs := loadedStore(t,
		realConversation("c1", "u9"),
		realConversation("c2", "u2"),
	)
	c := NewController(convs, newMemSlot())

	pointer := c.SelectOrCreate(ctx, entity.Participant{Id: "u9", Username: "nine"})
	if pointer.ConversationId != "c1" {
		t.Fatalf("expected existing conversation c1, got %s", pointer.ConversationId)
	}
	if pointer.IsMock {
		t.Fatal("existing conversation must not be mock")
	}
	if convs.Len() != 2 {
		t.Fatalf("expected no new conversation, got %d", convs.Len())
	}
	if top := convs.Snapshot()[0].Id; top != "c1" {
		t.Fatalf("expected c1 moved to top, got %s", top)
	}
}

func TestSelectExisting_PersistsPointer(t *testing.T) {
	ctx := context.Background()
	conv := realConversation("c1", "u9")
	convs := loadedStore(t, conv)
	slot := newMemSlot()
	c := NewController(convs, slot)

	peer, _ := conv.Peer()
	c.SelectExisting(ctx, conv, peer)

	if got := slot.values[localstate.KeySelectedConversation]; got != "c1" {
		t.Fatalf("expected persisted id c1, got %q", got)
	}
	if c.Current().PeerUserId != "u9" {
		t.Fatalf("unexpected pointer peer: %+v", c.Current())
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	conv := realConversation("c1", "u9")
	convs := loadedStore(t, conv)
	c := NewController(convs, newMemSlot())

	c.Select(ctx, conv)
	c.Clear()

	if c.Current().IsSet() {
		t.Fatal("expected pointer unset after clear")
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("matches loaded conversation", func(t *testing.T) {
		convs := loadedStore(t, realConversation("c1", "u9"))
		slot := newMemSlot()
		slot.values[localstate.KeySelectedConversation] = "c1"

		c := NewController(convs, slot)
		c.Restore(ctx)

		pointer := c.Current()
		if pointer.ConversationId != "c1" || pointer.PeerUserId != "u9" {
			t.Fatalf("unexpected restored pointer: %+v", pointer)
		}
	})

	t.Run("stale id leaves pointer unset", func(t *testing.T) {
		convs := loadedStore(t, realConversation("c1", "u9"))
		slot := newMemSlot()
		slot.values[localstate.KeySelectedConversation] = "gone"

		c := NewController(convs, slot)
		c.Restore(ctx)

		if c.Current().IsSet() {
			t.Fatal("expected pointer to stay unset for stale id")
		}
	})

	t.Run("empty slot leaves pointer unset", func(t *testing.T) {
		c := NewController(loadedStore(t), newMemSlot())
		c.Restore(ctx)
		if c.Current().IsSet() {
			t.Fatal("expected pointer unset with empty slot")
		}
	})
}

func TestPromote_SwapsPointerId(t *testing.T) {
	ctx := context.Background()
	convs := loadedStore(t)
	slot := newMemSlot()
	c := NewController(convs, slot)

	c.SelectOrCreate(ctx, entity.Participant{Id: "u9"})
	c.Promote(ctx, "c123")

	pointer := c.Current()
	if pointer.ConversationId != "c123" {
		t.Fatalf("expected promoted id c123, got %s", pointer.ConversationId)
	}
	if pointer.IsMock {
		t.Fatal("promoted pointer must not stay mock")
	}
	if got := slot.values[localstate.KeySelectedConversation]; got != "c123" {
		t.Fatalf("expected persisted id c123, got %q", got)
	}

	// Promote with nothing selected is a no-op.
	c.Clear()
	c.Promote(ctx, "c999")
	if c.Current().IsSet() {
		t.Fatal("promote on empty pointer must not set it")
	}
}
