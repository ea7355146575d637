package api

import (
	"context"
	"net/http"
)

// GetUserMe fetches the authenticated user's profile.
func (c *Client) GetUserMe(ctx context.Context) (*UserInfo, error) {
	var resp UserInfo
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
