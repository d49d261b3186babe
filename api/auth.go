// Package api binds the platform's REST endpoints to the request pipeline.
package api

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-learn-client/client"
	"github.com/jrsteele09/go-learn-client/session"
)

const (
	PathLogin    = "/users/auth/login/"
	PathRegister = "/users/auth/register/"
	PathRefresh  = "/users/auth/refresh/"
	PathMe       = "/users/users/me/"
)

var (
	_ session.Authenticator  = (*Auth)(nil)
	_ session.ProfileFetcher = (*Auth)(nil)
)

// Auth is the remote authentication collaborator of a session.
type Auth struct {
	client *client.Client
}

func NewAuth(c *client.Client) *Auth {
	return &Auth{client: c}
}

func (a *Auth) Login(ctx context.Context, creds session.Credentials) (session.LoginResult, error) {
	var res session.LoginResult
	if err := a.client.Post(ctx, PathLogin, creds, &res); err != nil {
		return session.LoginResult{}, fmt.Errorf("[api Login] %w", err)
	}
	return res, nil
}

func (a *Auth) Register(ctx context.Context, data map[string]any) (map[string]any, error) {
	var res map[string]any
	if err := a.client.Post(ctx, PathRegister, data, &res); err != nil {
		return nil, fmt.Errorf("[api Register] %w", err)
	}
	return res, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Refresh exchanges refreshToken for a new access token. rotated is set only when the server
// issues a new refresh token too.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	var res refreshResponse
	if err := a.client.Post(ctx, PathRefresh, refreshRequest{Refresh: refreshToken}, &res); err != nil {
		return "", "", fmt.Errorf("[api Refresh] %w", err)
	}
	return res.Access, res.Refresh, nil
}

func (a *Auth) FetchProfile(ctx context.Context) (session.Profile, error) {
	var profile session.Profile
	if err := a.client.Get(ctx, PathMe, nil, &profile); err != nil {
		return nil, fmt.Errorf("[api FetchProfile] %w", err)
	}
	if profile == nil {
		profile = session.Profile{}
	}
	return profile, nil
}
