// Package session owns the authenticated session: the persisted bearer token
// and the cached user profile. It is constructed once at application root and
// handed to collaborators; there is no ambient global state.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/purple-archive/archiveclient/api"
)

// KeyAuthToken is the durable storage key holding the bearer token.
const KeyAuthToken = "authToken"

// ExpiredSentinel is the distinguished persisted token value meaning "was
// valid, now invalidated". The login view shows a session-expired notice
// when it finds this instead of an absent key.
const ExpiredSentinel = "expired"

// TokenStore is the durable key/value surface the session needs.
type TokenStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

type Store struct {
	mu       sync.Mutex
	client   *api.Client
	settings TokenStore
	user     *api.UserInfo
}

// New wires a session store to the API client: the client pulls its bearer
// header from here, and every 401 on an authenticated call funnels into
// LogoutExpired. No call site handles authorization failure locally.
func New(client *api.Client, settings TokenStore) *Store {
	s := &Store{client: client, settings: settings}
	client.SetAuthHeaderFunc(s.AuthHeader)
	client.SetUnauthorizedHook(s.LogoutExpired)
	return s
}

// Login exchanges credentials for a token, persists it, then fetches the
// user profile. The session is established only when both calls succeed.
// The status classifies the API outcome; the error is reserved for local
// failures (the token could not be persisted).
func (s *Store) Login(ctx context.Context, username, password string) (api.Status, error) {
	resp, err := s.client.Authenticate(ctx, username, password)
	if err != nil {
		return api.StatusOf(err), nil
	}
	if resp.AccessToken == "" {
		return api.StatusServerSide, nil
	}

	if err := s.settings.Set(KeyAuthToken, resp.AccessToken); err != nil {
		return api.StatusOk, fmt.Errorf("failed to persist auth token: %w", err)
	}

	user, err := s.client.GetUserMe(ctx)
	if err != nil {
		log.Printf("profile fetch after login failed: %v", err)
		return api.StatusOf(err), nil
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return api.StatusOk, nil
}

// Restore rehydrates the session from a previously persisted token. It
// returns true when a valid session was re-established. An invalid stored
// token has already been routed through LogoutExpired by the client hook.
func (s *Store) Restore(ctx context.Context) bool {
	token, ok, err := s.settings.Get(KeyAuthToken)
	if err != nil {
		log.Printf("failed to read persisted auth token: %v", err)
		return false
	}
	if !ok || token == "" || token == ExpiredSentinel {
		return false
	}

	user, err := s.client.GetUserMe(ctx)
	if err != nil {
		log.Printf("session restore failed: %v", err)
		return false
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return true
}

// LoggedIn reports whether an established session exists.
func (s *Store) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// User returns the cached profile, or nil while logged out.
func (s *Store) User() *api.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// AuthHeader produces the bearer header from the persisted token. Calling it
// without a persisted token is an invariant violation: all call sites are
// gated behind an established session.
func (s *Store) AuthHeader() string {
	token, ok, err := s.settings.Get(KeyAuthToken)
	if err != nil {
		panic("session: failed to read persisted auth token: " + err.Error())
	}
	if !ok || token == "" || token == ExpiredSentinel {
		panic("session: no auth token persisted while entering API call")
	}
	return "Bearer " + token
}

// Logout clears the session by user request, removing the persisted token
// entirely.
func (s *Store) Logout() {
	if err := s.settings.Delete(KeyAuthToken); err != nil {
		log.Printf("failed to delete persisted auth token: %v", err)
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// LogoutExpired clears the session in response to an authorization-expired
// signal, leaving the expired sentinel behind so the next login view can
// show a notice.
func (s *Store) LogoutExpired() {
	if err := s.settings.Set(KeyAuthToken, ExpiredSentinel); err != nil {
		log.Printf("failed to mark persisted auth token expired: %v", err)
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	log.Printf("session expired, forced logout")
}

// WasExpired reports whether the previous session ended with an expiry.
func (s *Store) WasExpired() bool {
	token, ok, err := s.settings.Get(KeyAuthToken)
	if err != nil {
		return false
	}
	return ok && token == ExpiredSentinel
}
