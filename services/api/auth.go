package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/olympia/core"
)

const (
	loginPath        = "/users/login"
	tokenRefreshPath = "/users/token-refresh"
)

// Claims are the authorization claims carried by the backend's access tokens.
// The client does not hold the signing key: claims are read, never verified.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsCandidate  bool     `json:"is_candidate,omitempty"` // -> CANDIDATE PORTAL
	IsJury       bool     `json:"is_jury,omitempty"`      // -> JURY PORTAL
	IsAdmin      bool     `json:"is_admin,omitempty"`     // -> ADMIN PORTAL
	Roles        []string `json:"roles,omitempty"`
}

// ParseClaims reads the claims of token without verifying its signature.
func ParseClaims(token string) (*Claims, error) {
	claims := new(Claims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	return claims, nil
}

// Expiry returns the expiration time of the token, zero if it never expires.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(c.ExpiresAt, 0)
}

func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (c Claims) Person() core.Person {
	return core.Person{ID: c.Subject, Username: c.Username, Email: c.Email}
}

// TokenStore holds the current access token; it is safe for concurrent use.
type TokenStore struct {
	mu     sync.RWMutex
	token  string
	claims *Claims
}

func NewTokenStore() *TokenStore {
	return new(TokenStore)
}

// Set stores token after reading its claims.
func (ts *TokenStore) Set(token string) error {
	claims, err := ParseClaims(token)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token, ts.claims = token, claims
	return nil
}

func (ts *TokenStore) Token() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.token
}

func (ts *TokenStore) Claims() (Claims, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	if ts.claims == nil {
		return Claims{}, false
	}
	return *ts.claims, true
}

func (ts *TokenStore) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token, ts.claims = "", nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login authenticates with a username (or email) and password, and stores the issued token.
func (c *Client) Login(ctx context.Context, username, password string) (Claims, error) {
	var res tokenResponse
	req := loginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, loginPath, nil, req, &res, authNone); err != nil {
		return Claims{}, errors.Wrap(err, "logging in")
	}
	return c.storeToken(res.Token)
}

func (c *Client) Logout() {
	c.tokens.Clear()
}

// RefreshToken exchanges the current token for a fresh one.
func (c *Client) RefreshToken(ctx context.Context) (Claims, error) {
	if c.tokens.Token() == "" {
		return Claims{}, ErrNotAuthenticated
	}
	var res tokenResponse
	if err := c.do(ctx, http.MethodPost, tokenRefreshPath, nil, nil, &res, authCurrent); err != nil {
		return Claims{}, errors.Wrap(err, "refreshing token")
	}
	return c.storeToken(res.Token)
}

func (c *Client) storeToken(token string) (Claims, error) {
	if err := c.tokens.Set(token); err != nil {
		return Claims{}, err
	}
	claims, _ := c.tokens.Claims()
	return claims, nil
}

// refreshIfExpiring refreshes the token when it expires within the refresh window.
// A failed refresh is logged; the current token is kept and the backend decides.
func (c *Client) refreshIfExpiring(ctx context.Context) {
	if !c.expiring() {
		return
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if !c.expiring() { // refreshed concurrently
		return
	}
	if _, err := c.RefreshToken(ctx); err != nil {
		c.logger.Warn(fmt.Sprintf("refreshing expiring token: %v", err), err, c.person())
	}
}

func (c *Client) expiring() bool {
	if c.refreshWindow <= 0 {
		return false
	}
	claims, ok := c.tokens.Claims()
	if !ok || claims.ExpiresAt == 0 {
		return false
	}
	return !c.nowFunc().Add(c.refreshWindow).Before(claims.Expiry())
}
