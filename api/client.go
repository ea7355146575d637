package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Status classifies the outcome of an API call into the closed set the
// rest of the client is written against.
type Status int

const (
	StatusOk Status = iota
	StatusUnauthorized
	StatusNotFound
	StatusConflict
	StatusServerSide
	StatusRequestError
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusNotFound:
		return "not found"
	case StatusConflict:
		return "conflict"
	case StatusServerSide:
		return "server-side error"
	case StatusRequestError:
		return "request error"
	default:
		return "unknown"
	}
}

// Error is returned for any non-2xx response. Body carries the raw response
// payload so callers that care (tag creation conflicts) can decode it.
type Error struct {
	StatusCode int
	Body       []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: server returned HTTP %d", e.StatusCode)
}

// StatusOf maps an error returned by any client method to its Status.
// A nil error maps to StatusOk.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOk
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return StatusUnauthorized
		case http.StatusNotFound:
			return StatusNotFound
		case http.StatusConflict:
			return StatusConflict
		default:
			return StatusServerSide
		}
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return StatusRequestError
	}
	// the request went out but no usable response came back
	return StatusServerSide
}

// RequestError marks a request that could not be constructed or issued at all.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return fmt.Sprintf("api: building request: %v", e.Err) }
func (e *RequestError) Unwrap() error { return e.Err }

// Client issues requests against the archive REST API. The zero value is not
// usable; construct with NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// authHeader produces the Authorization header value for authenticated
	// endpoints. Wired by the session store.
	authHeader func() string

	// onUnauthorized runs whenever any call comes back 401. Wired by the
	// session store to its forced-logout path; call sites never handle
	// authorization failures themselves.
	onUnauthorized func()
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetAuthHeaderFunc installs the bearer-header provider for authenticated calls.
func (c *Client) SetAuthHeaderFunc(fn func() string) { c.authHeader = fn }

// SetUnauthorizedHook installs the single forced-logout path for 401 responses.
func (c *Client) SetUnauthorizedHook(fn func()) { c.onUnauthorized = fn }

func (c *Client) apiURL(path string) string {
	return c.baseURL + path
}

// FetchContent downloads auxiliary content (thumb/media sources) referenced
// by API responses. Absolute sources are fetched as-is; relative sources are
// resolved against the API base URL.
func (c *Client) FetchContent(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, &RequestError{Err: err}
		}
		if c.authHeader != nil {
			req.Header.Set("Authorization", c.authHeader())
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("GET %s failed: %w", source, err)
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s response: %w", source, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &Error{StatusCode: resp.StatusCode, Body: raw}
		}
		return raw, nil
	}
	return c.doRaw(ctx, http.MethodGet, "/"+strings.TrimLeft(source, "/"), nil, nil, "", true)
}

// doJSON issues a request with an optional JSON body and decodes a JSON
// response into out (when out is non-nil). authed controls the bearer header.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, authed bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	raw, err := c.doRaw(ctx, method, path, query, reader, "application/json", authed)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// doRaw issues a request and returns the raw response body.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, authed bool) ([]byte, error) {
	u := c.apiURL(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed && c.authHeader != nil {
		req.Header.Set("Authorization", c.authHeader())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if authed && resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, &Error{StatusCode: resp.StatusCode, Body: raw}
	}
	return raw, nil
}
