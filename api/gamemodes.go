package api

import (
	"context"
	"net/http"
)

// GetGamemodes lists every gamemode known to the server.
func (c *Client) GetGamemodes(ctx context.Context) (*GetGamemodesResponse, error) {
	var resp GetGamemodesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/gamemodes", nil, nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
