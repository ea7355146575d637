package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
)

// Authenticate exchanges credentials for a bearer token. The endpoint takes
// multipart form fields and is the only unauthenticated call in the API.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*AuthResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("username", username); err != nil {
		return nil, &RequestError{Err: err}
	}
	if err := mw.WriteField("password", password); err != nil {
		return nil, &RequestError{Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &RequestError{Err: err}
	}

	raw, err := c.doRaw(ctx, http.MethodPost, "/auth", nil, &buf, mw.FormDataContentType(), false)
	if err != nil {
		return nil, err
	}

	var resp AuthResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	return &resp, nil
}
