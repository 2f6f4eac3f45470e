// Package credentials manages the bearer tokens gating every catalog
// call. Two kinds of token exist: a service-level token obtained through
// the client-credentials grant, used for anonymous catalog browsing, and
// user-scoped tokens obtained by exchanging an authorization code, used
// for actions taken on a user's behalf.
//
// The service token is process-wide state: it is acquired lazily on
// first use, cached until it expires and replaced under a mutex so
// concurrent requests never trigger duplicate grants. User tokens are
// owned by the session layer; this package only mints and refreshes
// them.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	// ErrUpstreamAuth indicates the identity provider rejected a token
	// request (invalid client, expired code, revoked refresh token).
	ErrUpstreamAuth = errors.New("upstream auth rejected request")
	// ErrCredentialExpired indicates an expired credential with no
	// refresh token; the caller must restart the authorization flow.
	ErrCredentialExpired = errors.New("credential expired and cannot be refreshed")
)

// Manager mints and refreshes OAuth tokens for one client registration.
type Manager struct {
	conf *oauth2.Config
	cc   *clientcredentials.Config

	mu      sync.Mutex
	service *oauth2.Token
}

// New returns a Manager for the given client registration. The endpoint
// identifies the provider's authorize and token URLs; tests point it at
// a local server.
func New(clientID, clientSecret, redirectURL string, endpoint oauth2.Endpoint, scopes []string) *Manager {
	return &Manager{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		cc: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     endpoint.TokenURL,
		},
	}
}

// Service returns a valid service-level token, performing the
// client-credentials grant on first use or when the cached token has
// expired. The returned token carries no user context.
func (m *Manager) Service(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.service.Valid() {
		return m.service, nil
	}
	tok, err := m.cc.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	}
	m.service = tok
	return tok, nil
}

// AuthURL returns the provider's authorization page URL for the
// three-legged flow. state must be echoed back on the callback.
func (m *Manager) AuthURL(state string) string {
	return m.conf.AuthCodeURL(state)
}

// Exchange completes the three-legged flow by trading the authorization
// code for a user-scoped token carrying access and refresh tokens plus
// an expiry.
func (m *Manager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := m.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	}
	return tok, nil
}

// RefreshIfExpired returns the credential unchanged while it is still
// valid. An expired credential with a refresh token is exchanged for a
// brand-new token; the refresh token is preserved when the provider
// does not rotate it. An expired credential without a refresh token
// yields ErrCredentialExpired.
//
// Every operation calling the catalog on a user's behalf must run this
// first and persist the result when it changed.
func (m *Manager) RefreshIfExpired(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil {
		return nil, ErrCredentialExpired
	}
	if tok.Valid() {
		return tok, nil
	}
	if tok.RefreshToken == "" {
		return nil, ErrCredentialExpired
	}
	fresh, err := m.conf.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	return fresh, nil
}
