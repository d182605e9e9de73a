package api

import (
	"context"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/errcode"
)

type userSearchResponse struct {
	Users        []entity.Participant `json:"users"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

// SearchUsers searches users by term. A server-side error payload is
// surfaced as a search failure with its message.
func (c *Client) SearchUsers(ctx context.Context, term string) ([]entity.Participant, error) {
	var result userSearchResponse
	if err := c.get(ctx, "/users/search/"+pathEscape(term), &result); err != nil {
		return nil, err
	}
	if result.ErrorMessage != "" {
		return nil, errcode.New(errcode.ErrSearchFailed.Code, result.ErrorMessage)
	}
	return result.Users, nil
}
