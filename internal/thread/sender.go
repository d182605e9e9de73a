package thread

import (
	"context"
	"strings"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/api"
	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/internal/selection"
	"github.com/mbeoliero/parley/internal/store"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// MessagePoster sends a message to the REST collaborator
type MessagePoster interface {
	SendMessage(ctx context.Context, req *api.SendMessageRequest) (entity.Message, error)
}

// Sender drives the send flow: optimistic append plus the mock promotion
// that happens when the server resolves the first message of a mock
// conversation to a freshly persisted one.
type Sender struct {
	poster    MessagePoster
	cache     *Cache
	convs     *store.ConversationStore
	selection *selection.Controller
}

// NewSender creates a sender over the given collaborators
func NewSender(poster MessagePoster, cache *Cache, convs *store.ConversationStore, sel *selection.Controller) *Sender {
	return &Sender{poster: poster, cache: cache, convs: convs, selection: sel}
}

// Send sends text and/or an image to the active conversation. An empty
// submission is rejected before any network call. The returned message is
// the server's created message with its resolved conversation id.
func (s *Sender) Send(ctx context.Context, text string, image []byte, imageName string) (entity.Message, error) {
	pointer := s.selection.Current()
	if !pointer.IsSet() {
		return entity.Message{}, errcode.ErrNoSelection
	}

	text = strings.TrimSpace(text)
	if text == "" && len(image) == 0 {
		return entity.Message{}, errcode.ErrEmptySubmission
	}

	msg, err := s.poster.SendMessage(ctx, &api.SendMessageRequest{
		Text:           text,
		Image:          image,
		ImageName:      imageName,
		RecipientId:    pointer.PeerUserId,
		ConversationId: pointer.ConversationId,
	})
	if err != nil {
		log.CtxWarn(ctx, "send failed: conversation_id=%s, error=%v", pointer.ConversationId, err)
		return entity.Message{}, err
	}

	// The user may have opened another thread while the request was in
	// flight; only the thread the send targeted takes the optimistic append.
	// The cache may already know the resolved id after a mock promotion.
	activeId := s.cache.ActiveConversationId()
	if activeId == pointer.ConversationId || activeId == msg.ConversationId {
		s.cache.Append(msg)
	} else {
		log.CtxDebug(ctx, "skip optimistic append, thread switched: conversation_id=%s, active_id=%s",
			msg.ConversationId, activeId)
	}

	patch := entity.LastMessage{Text: msg.Preview(), SenderId: msg.SenderId}

	if msg.ConversationId != pointer.ConversationId {
		// First message of a mock conversation: the server persisted it
		// under a real id. Swap the pointer and fold the mock into the list.
		log.CtxInfo(ctx, "mock conversation promoted: mock_id=%s, conversation_id=%s",
			pointer.ConversationId, msg.ConversationId)
		s.convs.PromoteMock(pointer.ConversationId, msg.ConversationId, patch)
		s.selection.Promote(ctx, msg.ConversationId)
		return msg, nil
	}

	if err := s.convs.UpsertFromPush(msg.ConversationId, patch); err != nil {
		// The list can lag a wholesale reload; the next snapshot heals it.
		log.CtxDebug(ctx, "sent to conversation missing from list: conversation_id=%s", msg.ConversationId)
	}
	return msg, nil
}
