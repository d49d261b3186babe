// Package session is the single authoritative view of who is logged in. It projects the persisted
// credential into memory, derives the logged-in and administrator facts on every read, and is the
// only component that writes to the credential store.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-learn-client/credentials"
	"github.com/jrsteele09/go-learn-client/internal/utils"
	"github.com/jrsteele09/go-learn-client/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*Session)(nil)

// Session is safe for concurrent use. A single mutex covers every read-modify-write of the
// credential so no caller observes a partial update.
type Session struct {
	store credentials.Store
	authn Authenticator
	now   func() time.Time

	mu      sync.RWMutex
	access  string
	refresh string
	profile Profile
}

type Option func(*Session)

func WithAuthenticator(a Authenticator) Option {
	return func(s *Session) {
		s.authn = a
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New restores the session persisted in store. Absent entries mean an anonymous session.
func New(ctx context.Context, store credentials.Store, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, errors.New("[session New] store is required")
	}
	s := &Session{
		store:   store,
		now:     time.Now,
		profile: Profile{},
	}
	for _, opt := range opts {
		opt(s)
	}

	access, _, err := store.Read(ctx, credentials.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("[session New] read access token: %w", err)
	}
	refresh, _, err := store.Read(ctx, credentials.KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("[session New] read refresh token: %w", err)
	}
	rawProfile, _, err := store.Read(ctx, credentials.KeyUserInfo)
	if err != nil {
		return nil, fmt.Errorf("[session New] read profile: %w", err)
	}

	profile, err := decodeProfile(rawProfile)
	if err != nil {
		log.Warn().Err(err).Msg("persisted profile is not valid JSON, using an empty profile")
	}

	s.access, s.refresh, s.profile = access, refresh, profile
	log.Debug().Bool("logged_in", access != "").Msg("session restored")
	return s, nil
}

// UseAuthenticator sets the collaborator used by Login, Register and Refresh. It exists for wiring
// where the authenticator itself depends on the session.
func (s *Session) UseAuthenticator(a Authenticator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authn = a
}

func (s *Session) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access != ""
}

// IsAdmin implies IsLoggedIn.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access != "" && s.profile.Privileged()
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Session) RefreshTokenValue() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *Session) UserInfo() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// Token returns the current credential as a bearer token, or ErrAnonymous. The expiry is taken from
// the access token's exp claim when it can be decoded.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	access, refresh := s.access, s.refresh
	s.mu.RUnlock()

	if access == "" {
		return nil, ErrAnonymous
	}
	tok := &oauth2.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: refresh,
	}
	if claims, err := token.Inspect(access); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	return tok, nil
}

// AccessTokenTTL is the remaining lifetime of the access token according to its exp claim, zero
// once expired. ok is false when anonymous or when the token carries no readable expiry.
func (s *Session) AccessTokenTTL() (ttl time.Duration, ok bool) {
	claims, err := token.Inspect(s.AccessToken())
	if err != nil || claims.ExpiresAt.IsZero() {
		return 0, false
	}
	return claims.TTL(s.now()), true
}

// SetToken replaces the access token. The refresh token is replaced only when refresh is non-nil;
// nil leaves it as it is.
func (s *Session) SetToken(ctx context.Context, access string, refresh *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setTokenLocked(ctx, access, refresh)
}

// SetUserInfo replaces the profile wholesale.
func (s *Session) SetUserInfo(ctx context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setUserInfoLocked(ctx, profile)
}

// Logout clears the credential in memory and in the store. Calling it on an anonymous session is a
// no-op with the same end state.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasLoggedIn := s.access != ""
	s.access, s.refresh, s.profile = "", "", Profile{}

	var errs []error
	for _, key := range credentials.Keys() {
		if err := s.store.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Err(err).Msg("logout could not clear the credential store")
		return fmt.Errorf("[session Logout] %w", err)
	}

	if wasLoggedIn {
		log.Info().Msg("session ended")
	}
	return nil
}

func (s *Session) setTokenLocked(ctx context.Context, access string, refresh *string) error {
	entries := []entry{{credentials.KeyAccessToken, access}}
	if refresh != nil {
		entries = append(entries, entry{credentials.KeyRefreshToken, *refresh})
	}
	if err := s.persistLocked(ctx, entries...); err != nil {
		return fmt.Errorf("[session SetToken] %w", err)
	}
	s.access = access
	s.refresh = utils.ValueOr(refresh, s.refresh)
	return nil
}

func (s *Session) setUserInfoLocked(ctx context.Context, profile Profile) error {
	if profile == nil {
		profile = Profile{}
	}
	raw, err := profile.encode()
	if err != nil {
		return fmt.Errorf("[session SetUserInfo] encode profile: %w", err)
	}
	if err := s.persistLocked(ctx, entry{credentials.KeyUserInfo, raw}); err != nil {
		return fmt.Errorf("[session SetUserInfo] %w", err)
	}
	s.profile = profile.Clone()
	return nil
}

// replaceLocked swaps the whole credential. Memory changes only after all three entries are
// persisted.
func (s *Session) replaceLocked(ctx context.Context, access, refresh string, profile Profile) error {
	if profile == nil {
		profile = Profile{}
	}
	raw, err := profile.encode()
	if err != nil {
		return fmt.Errorf("[session Login] encode profile: %w", err)
	}
	err = s.persistLocked(ctx,
		entry{credentials.KeyAccessToken, access},
		entry{credentials.KeyRefreshToken, refresh},
		entry{credentials.KeyUserInfo, raw},
	)
	if err != nil {
		return fmt.Errorf("[session Login] %w", err)
	}
	s.access, s.refresh, s.profile = access, refresh, profile.Clone()
	return nil
}

type entry struct {
	key   string
	value string
}

// persistLocked writes entries in order. When a write fails, the entries already written are put
// back to what memory still holds, so the store never mixes two credentials.
func (s *Session) persistLocked(ctx context.Context, entries ...entry) error {
	for i, e := range entries {
		if err := s.store.Write(ctx, e.key, e.value); err != nil {
			s.restoreLocked(ctx, entries[:i])
			return fmt.Errorf("persist %s: %w", e.key, err)
		}
	}
	return nil
}

func (s *Session) restoreLocked(ctx context.Context, written []entry) {
	for _, e := range written {
		prev := s.currentLocked(e.key)
		var err error
		if prev == "" {
			err = s.store.Remove(ctx, e.key)
		} else {
			err = s.store.Write(ctx, e.key, prev)
		}
		if err != nil {
			log.Err(err).Str("key", e.key).Msg("could not restore credential entry after a failed write")
		}
	}
}

// currentLocked is the persisted form of the in-memory value for key, "" when there is none.
func (s *Session) currentLocked(key string) string {
	switch key {
	case credentials.KeyAccessToken:
		return s.access
	case credentials.KeyRefreshToken:
		return s.refresh
	case credentials.KeyUserInfo:
		if len(s.profile) == 0 {
			return ""
		}
		raw, err := s.profile.encode()
		if err != nil {
			return ""
		}
		return raw
	}
	return ""
}
