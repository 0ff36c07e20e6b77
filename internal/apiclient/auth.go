package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Token is a signed token with its expiry.
type Token struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// User is the account returned by the auth endpoints.
type User struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the body of a successful login.
type Session struct {
	User    User  `json:"user"`
	Access  Token `json:"access"`
	Refresh Token `json:"refresh"`
}

// Identity is what GET /me reports for the current token.
type Identity struct {
	UserID uint64
	Role   string
}

// Login exchanges credentials for a session and keeps its tokens.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
		auth:   true,
	})
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(unwrapData(body), &s); err != nil || s.Access.Token == "" {
		return Session{}, fmt.Errorf("login: %w", ErrBadResponse)
	}
	c.SetTokens(s.Access.Token, s.Refresh.Token)
	return s, nil
}

// Logout revokes the refresh token on the server and clears the local
// session. The local session is cleared even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.tokens()
	defer c.ClearSession()
	if refresh == "" {
		return nil
	}
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/logout",
		body:   map[string]string{"refresh_token": refresh},
		auth:   true,
	})
	return err
}

// Me returns the identity behind the current access token.
func (c *Client) Me(ctx context.Context) (Identity, error) {
	body, err := c.do(ctx, call{method: http.MethodGet, path: "/me"})
	if err != nil {
		return Identity{}, err
	}
	var w struct {
		UserID flexID `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.Unmarshal(unwrapData(body), &w); err != nil {
		return Identity{}, fmt.Errorf("me: %w", ErrBadResponse)
	}
	return Identity{UserID: uint64(w.UserID), Role: w.Role}, nil
}

// tryRefresh obtains a new access token with the held refresh token. It
// reports whether the session was renewed.
func (c *Client) tryRefresh(ctx context.Context) bool {
	_, refresh := c.tokens()
	if refresh == "" {
		return false
	}
	body, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/refresh-access",
		body:   map[string]string{"refresh_token": refresh},
		auth:   true,
	})
	if err != nil {
		c.logger.Debugf("token refresh failed: %v", err)
		return false
	}
	var r struct {
		Access Token `json:"access"`
	}
	if err := json.Unmarshal(unwrapData(body), &r); err != nil || r.Access.Token == "" {
		return false
	}
	c.SetTokens(r.Access.Token, refresh)
	return true
}
