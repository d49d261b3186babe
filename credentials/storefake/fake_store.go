package storefake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-learn-client/credentials"
	apperrors "github.com/jrsteele09/go-learn-client/internal/errors"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store. It is not durable; use it in tests and for the
// "memory" driver.
type FakeStore struct {
	entries  map[string]string
	writes   int
	failKeys map[string]error
	lock    sync.RWMutex

	// FailWith, when set, is returned by every operation.
	FailWith error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		entries: make(map[string]string),
	}
}

// NewFakeStoreWith seeds the store, e.g. to simulate a credential left by a previous process.
func NewFakeStoreWith(entries map[string]string) *FakeStore {
	s := NewFakeStore()
	for k, v := range entries {
		s.entries[k] = v
	}
	return s
}

func (s *FakeStore) Read(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, apperrors.ErrEmptyKey
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.FailWith != nil {
		return "", false, s.FailWith
	}
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *FakeStore) Write(_ context.Context, key, value string) error {
	if key == "" {
		return apperrors.ErrEmptyKey
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	if err := s.failKeys[key]; err != nil {
		return err
	}
	s.entries[key] = value
	s.writes++
	return nil
}

func (s *FakeStore) Remove(_ context.Context, key string) error {
	if key == "" {
		return apperrors.ErrEmptyKey
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	delete(s.entries, key)
	return nil
}

// FailWrites makes every Write of key return err until called again with a nil err.
func (s *FakeStore) FailWrites(key string, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.failKeys == nil {
		s.failKeys = make(map[string]error)
	}
	if err == nil {
		delete(s.failKeys, key)
		return
	}
	s.failKeys[key] = err
}

// Snapshot returns a copy of the stored entries.
func (s *FakeStore) Snapshot() map[string]string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Writes counts successful Write calls.
func (s *FakeStore) Writes() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.writes
}
