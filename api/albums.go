package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// GetAlbumsParams mirrors the /albums query surface. Nil fields are omitted,
// meaning "no constraint".
type GetAlbumsParams struct {
	PartialDescription *string
	PartialPlayerName  *string
	PlayedFrom         *int64 // unix seconds
	PlayedUntil        *int64
	GamemodeID         *int64
	PartialTag         *string
	MyBookmark         *bool
	Offset             *int
	Limit              *int
	OrderBy            *string
	Order              *string
}

func (p GetAlbumsParams) query() url.Values {
	q := url.Values{}
	if p.PartialDescription != nil {
		q.Set("partialDescription", *p.PartialDescription)
	}
	if p.PartialPlayerName != nil {
		q.Set("partialPlayerName", *p.PartialPlayerName)
	}
	if p.PlayedFrom != nil {
		q.Set("playedFrom", strconv.FormatInt(*p.PlayedFrom, 10))
	}
	if p.PlayedUntil != nil {
		q.Set("playedUntil", strconv.FormatInt(*p.PlayedUntil, 10))
	}
	if p.GamemodeID != nil {
		q.Set("gamemodeId", strconv.FormatInt(*p.GamemodeID, 10))
	}
	if p.PartialTag != nil {
		q.Set("partialTag", *p.PartialTag)
	}
	if p.MyBookmark != nil {
		q.Set("myBookmark", strconv.FormatBool(*p.MyBookmark))
	}
	if p.Offset != nil {
		q.Set("offset", strconv.Itoa(*p.Offset))
	}
	if p.Limit != nil {
		q.Set("limit", strconv.Itoa(*p.Limit))
	}
	if p.OrderBy != nil {
		q.Set("orderBy", *p.OrderBy)
	}
	if p.Order != nil {
		q.Set("order", *p.Order)
	}
	return q
}

// GetAlbums lists album outlines matching the given filter, sort and paging.
func (c *Client) GetAlbums(ctx context.Context, params GetAlbumsParams) (*GetAlbumsResponse, error) {
	var resp GetAlbumsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/albums", params.query(), nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAlbum fetches the full album record. incrementPv bumps the server-side
// view counter as a side effect.
func (c *Client) GetAlbum(ctx context.Context, albumID int64, incrementPv bool) (*AlbumDetail, error) {
	q := url.Values{}
	q.Set("incrementPv", strconv.FormatBool(incrementPv))
	var resp AlbumDetail
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/albums/%d", albumID), q, nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type updateAlbumRequest struct {
	GamemodeID   int64          `json:"gamemodeId"`
	TagIDs       []int64        `json:"tagIds"`
	PageMetaData []PageMetaData `json:"pageMetaData"`
}

// UpdateAlbum replaces an album's gamemode, tag set and per-page metadata.
func (c *Client) UpdateAlbum(ctx context.Context, albumID, gamemodeID int64, tagIDs []int64, pages []PageMetaData) (*AlbumDetail, error) {
	if tagIDs == nil {
		tagIDs = []int64{}
	}
	body := updateAlbumRequest{GamemodeID: gamemodeID, TagIDs: tagIDs, PageMetaData: pages}
	var resp AlbumDetail
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/albums/%d", albumID), nil, body, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type uploadTempAlbumRequest struct {
	Data string `json:"data"`
}

// UploadTempAlbum stages raw album content in temporary server storage. The
// returned temporary id is validated before being handed to the caller.
func (c *Client) UploadTempAlbum(ctx context.Context, data []byte) (*TempAlbumResponse, error) {
	body := uploadTempAlbumRequest{Data: base64.StdEncoding.EncodeToString(data)}
	var resp TempAlbumResponse
	if err := c.doJSON(ctx, http.MethodPost, "/albums/temp", nil, body, true, &resp); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(resp.TemporaryAlbumUUID); err != nil {
		return nil, fmt.Errorf("server returned malformed temporary album id %q: %w", resp.TemporaryAlbumUUID, err)
	}
	return &resp, nil
}

type uploadAlbumRequest struct {
	TemporaryAlbumUUID string         `json:"temporaryAlbumUuid"`
	GamemodeID         int64          `json:"gamemodeId"`
	TagIDs             []int64        `json:"tagIds"`
	PlayedAt           string         `json:"playedAt"`
	PageMetaData       []PageMetaData `json:"pageMetaData"`
}

// UploadAlbum commits a staged temporary album into a permanent record.
// playedAt must be ISO8601 with a numeric timezone offset.
func (c *Client) UploadAlbum(ctx context.Context, temporaryAlbumUUID string, gamemodeID int64, tagIDs []int64, playedAt string, pages []PageMetaData) (*AlbumDetail, error) {
	if tagIDs == nil {
		tagIDs = []int64{}
	}
	body := uploadAlbumRequest{
		TemporaryAlbumUUID: temporaryAlbumUUID,
		GamemodeID:         gamemodeID,
		TagIDs:             tagIDs,
		PlayedAt:           playedAt,
		PageMetaData:       pages,
	}
	var resp AlbumDetail
	if err := c.doJSON(ctx, http.MethodPost, "/albums", nil, body, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAlbumRaw downloads the album's binary content.
func (c *Client) GetAlbumRaw(ctx context.Context, albumID int64) ([]byte, error) {
	return c.doRaw(ctx, http.MethodGet, fmt.Sprintf("/albums/%d/raw", albumID), nil, nil, "", true)
}

// IncrementDownloadCount bumps the server-side download counter.
func (c *Client) IncrementDownloadCount(ctx context.Context, albumID int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/albums/%d/dlcount", albumID), nil, struct{}{}, true, nil)
}

type bookmarkRequest struct {
	AlbumIDs []int64 `json:"albumIds"`
}

// Bookmark adds the albums to the current user's bookmarks.
func (c *Client) Bookmark(ctx context.Context, albumIDs ...int64) error {
	return c.doJSON(ctx, http.MethodPost, "/users/me/bookmarks", nil, bookmarkRequest{AlbumIDs: albumIDs}, true, nil)
}

// Unbookmark removes the albums from the current user's bookmarks.
func (c *Client) Unbookmark(ctx context.Context, albumIDs ...int64) error {
	return c.doJSON(ctx, http.MethodPost, "/users/me/bookmarks/unbookmark", nil, bookmarkRequest{AlbumIDs: albumIDs}, true, nil)
}
