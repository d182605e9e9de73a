package api

import (
	"context"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/errcode"
)

type conversationListResponse struct {
	Conversations []entity.Conversation `json:"conversations"`
}

type conversationResponse struct {
	Conversation *entity.Conversation `json:"conversation"`
}

// GetConversations gets all conversations for the current user.
// Server ordering is not trusted; the store re-sorts on load.
func (c *Client) GetConversations(ctx context.Context) ([]entity.Conversation, error) {
	var result conversationListResponse
	if err := c.get(ctx, "/messages/conversations", &result); err != nil {
		return nil, err
	}
	return result.Conversations, nil
}

// GetConversation gets a single conversation by id
func (c *Client) GetConversation(ctx context.Context, conversationId string) (entity.Conversation, error) {
	var result conversationResponse
	if err := c.get(ctx, "/messages/conversation/"+pathEscape(conversationId), &result); err != nil {
		return entity.Conversation{}, err
	}
	if result.Conversation == nil {
		return entity.Conversation{}, errcode.ErrConvNotFound
	}
	return *result.Conversation, nil
}
