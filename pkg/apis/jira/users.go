package jira

import (
	"context"
	"fmt"
	"net/http"
)

// UsersService provides identity endpoints.
type UsersService struct {
	client *Client
}

// Myself returns the authenticated user. Batch scripts call this up front
// to validate the connection before starting real work.
func (s *UsersService) Myself(ctx context.Context) (*Myself, error) {
	req, err := s.client.newRequest(ctx, http.MethodGet, "myself", nil, nil)
	if err != nil {
		return nil, err
	}

	var me Myself
	if err := s.client.transport.DoJSON(req, &me); err != nil {
		return nil, fmt.Errorf("jira: fetch current user: %w", err)
	}
	return &me, nil
}
