package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

type GetTagsParams struct {
	PartialName *string
	Offset      *int
	Limit       *int
}

// GetTags lists tags, optionally narrowed by a partial name match.
func (c *Client) GetTags(ctx context.Context, params GetTagsParams) (*GetTagsResponse, error) {
	q := url.Values{}
	if params.PartialName != nil {
		q.Set("partialName", *params.PartialName)
	}
	if params.Offset != nil {
		q.Set("offset", strconv.Itoa(*params.Offset))
	}
	if params.Limit != nil {
		q.Set("limit", strconv.Itoa(*params.Limit))
	}
	var resp GetTagsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/tags", q, nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type createTagRequest struct {
	Name string `json:"name"`
}

// CreateTag creates a tag with the given name. A 409 means the tag already
// exists; the server returns the canonical record, which is treated as
// success.
func (c *Client) CreateTag(ctx context.Context, name string) (*Tag, error) {
	var tag Tag
	err := c.doJSON(ctx, http.MethodPost, "/tags", nil, createTagRequest{Name: name}, true, &tag)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			if decErr := json.Unmarshal(apiErr.Body, &tag); decErr == nil {
				return &tag, nil
			}
		}
		return nil, err
	}
	return &tag, nil
}
