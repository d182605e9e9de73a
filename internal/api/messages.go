package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"

	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// SendMessageRequest represents the multipart send request
type SendMessageRequest struct {
	Text           string
	Image          []byte // raw image bytes, optional
	ImageName      string // file name for the image part
	RecipientId    string
	ConversationId string
}

type sendMessageResponse struct {
	Data *entity.Message `json:"data"`
}

// GetMessages gets the message thread of a conversation, chronological ascending
func (c *Client) GetMessages(ctx context.Context, conversationId string) ([]entity.Message, error) {
	var result []entity.Message
	if err := c.get(ctx, "/messages/thread/"+pathEscape(conversationId), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SendMessage sends a message as multipart form data. The returned message
// carries the resolved conversation id, which may differ from the request's
// when the server promoted a mock conversation.
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) (entity.Message, error) {
	if req.Text == "" && len(req.Image) == 0 {
		return entity.Message{}, errcode.ErrEmptySubmission
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if req.Text != "" {
		if err := writer.WriteField("message", req.Text); err != nil {
			return entity.Message{}, errcode.ErrSendFailed.Wrap(err)
		}
	}
	if err := writer.WriteField("recipientId", req.RecipientId); err != nil {
		return entity.Message{}, errcode.ErrSendFailed.Wrap(err)
	}
	if err := writer.WriteField("conversationId", req.ConversationId); err != nil {
		return entity.Message{}, errcode.ErrSendFailed.Wrap(err)
	}
	if len(req.Image) > 0 {
		name := req.ImageName
		if name == "" {
			name = "image"
		}
		part, err := writer.CreateFormFile("image", name)
		if err != nil {
			return entity.Message{}, errcode.ErrSendFailed.Wrap(err)
		}
		if _, err := part.Write(req.Image); err != nil {
			return entity.Message{}, errcode.ErrSendFailed.Wrap(err)
		}
	}
	if err := writer.Close(); err != nil {
		return entity.Message{}, errcode.ErrSendFailed.Wrap(err)
	}

	httpReq := &protocol.Request{}
	httpReq.SetMethod(consts.MethodPost)
	httpReq.SetRequestURI(c.baseURL + "/messages")
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.SetBody(body.Bytes())

	var result sendMessageResponse
	if err := c.do(ctx, httpReq, &result); err != nil {
		return entity.Message{}, err
	}
	if result.Data == nil {
		return entity.Message{}, errcode.ErrSendFailed.Wrap(fmt.Errorf("empty response payload"))
	}
	return *result.Data, nil
}
