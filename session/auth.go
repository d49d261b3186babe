package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Credentials is the login body, typically {"username": ..., "password": ...}.
type Credentials map[string]any

// LoginResult is a successful authentication: a token pair and the user's profile.
type LoginResult struct {
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	User    Profile `json:"user"`
}

// Authenticator is the remote authentication collaborator. Errors that carry a structured response
// body should implement ErrorBody() map[string]any so its messages can be surfaced.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	Register(ctx context.Context, data map[string]any) (map[string]any, error)
	// Refresh exchanges a refresh token for a new access token. rotated is empty unless the server
	// rotated the refresh token as well.
	Refresh(ctx context.Context, refreshToken string) (access string, rotated string, err error)
}

// ProfileFetcher is optionally implemented by an Authenticator that can load the current user.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context) (Profile, error)
}

func (s *Session) authenticator() (Authenticator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.authn == nil {
		return nil, ErrNoAuthenticator
	}
	return s.authn, nil
}

// Login authenticates in a single round trip and, on success, stores the token pair and profile
// together. Requests issued afterwards carry the new access token.
func (s *Session) Login(ctx context.Context, creds Credentials) (Profile, error) {
	authn, err := s.authenticator()
	if err != nil {
		return nil, err
	}

	res, err := authn.Login(ctx, creds)
	if err != nil {
		return nil, newAuthenticationError(err, defaultLoginMessage)
	}
	if res.Access == "" {
		return nil, &AuthenticationError{Message: defaultLoginMessage}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.replaceLocked(ctx, res.Access, res.Refresh, res.User); err != nil {
		return nil, err
	}

	log.Info().Str("user", s.profile.String("username")).Bool("admin", s.profile.Privileged()).Msg("session started")
	return s.profile.Clone(), nil
}

// Register forwards the registration form. It does not log in.
func (s *Session) Register(ctx context.Context, data map[string]any) (map[string]any, error) {
	authn, err := s.authenticator()
	if err != nil {
		return nil, err
	}

	res, err := authn.Register(ctx, data)
	if err != nil {
		return nil, newValidationError(err)
	}
	return res, nil
}

// Refresh rotates the access token using the stored refresh token. It is never called
// automatically. If the session is logged out or replaced while the call is in flight the result
// is discarded and ErrSessionChanged is returned.
func (s *Session) Refresh(ctx context.Context) error {
	authn, err := s.authenticator()
	if err != nil {
		return err
	}

	used := s.RefreshTokenValue()
	if used == "" {
		return ErrNoRefreshToken
	}

	access, rotated, err := authn.Refresh(ctx, used)
	if err != nil {
		return newAuthenticationError(err, defaultRefreshMessage)
	}
	if access == "" {
		return &AuthenticationError{Message: defaultRefreshMessage}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refresh != used {
		return ErrSessionChanged
	}
	var refresh *string
	if rotated != "" {
		refresh = &rotated
	}
	if err := s.setTokenLocked(ctx, access, refresh); err != nil {
		return err
	}
	log.Debug().Bool("rotated", refresh != nil).Msg("access token refreshed")
	return nil
}

// ReloadProfile replaces the stored profile with the one the server currently reports. The result
// is discarded with ErrSessionChanged if the access token changed while the call was in flight.
func (s *Session) ReloadProfile(ctx context.Context) (Profile, error) {
	authn, err := s.authenticator()
	if err != nil {
		return nil, err
	}
	fetcher, ok := authn.(ProfileFetcher)
	if !ok {
		return nil, ErrProfileUnsupported
	}
	used := s.AccessToken()
	if used == "" {
		return nil, ErrAnonymous
	}

	profile, err := fetcher.FetchProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("[session ReloadProfile] %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.access != used {
		return nil, ErrSessionChanged
	}
	if err := s.setUserInfoLocked(ctx, profile); err != nil {
		return nil, err
	}
	return s.profile.Clone(), nil
}
