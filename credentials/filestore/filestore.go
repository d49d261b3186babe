// Package filestore persists credentials in a single JSON document on disk, optionally sealing every
// value with a key derived from a secret.
package filestore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-learn-client/credentials"
	apperrors "github.com/jrsteele09/go-learn-client/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	documentVersion = 1
	saltLength      = 16
	nonceLength     = 24
	checkPlaintext  = "learnctl-credentials"
)

var _ credentials.Store = (*Store)(nil)
var _ credentials.Closer = (*Store)(nil)

type document struct {
	Version int               `json:"version"`
	Salt    string            `json:"salt,omitempty"`
	Check   string            `json:"check,omitempty"`
	Entries map[string]string `json:"entries"`
}

// Store keeps the document in memory and rewrites the file atomically on every change.
type Store struct {
	path   string
	secret string
	key    *[32]byte
	doc    document
	closed bool
	mu     sync.Mutex
}

type Option func(*Store)

// WithSecret enables at-rest encryption. The same secret must be supplied on every open.
func WithSecret(secret string) Option {
	return func(s *Store) {
		s.secret = secret
	}
}

// Open loads the document at path, creating the parent directory when needed. A missing file is an
// empty store; it is written on the first change.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[filestore Open] create directory: %w", err)
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.doc = document{Version: documentVersion, Entries: map[string]string{}}
		if s.secret != "" {
			if err := s.initKey(); err != nil {
				return nil, err
			}
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("[filestore Open] read %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptStore, "[filestore Open] decode %s: %v", path, err)
	}
	if s.doc.Entries == nil {
		s.doc.Entries = map[string]string{}
	}

	switch {
	case s.doc.Salt != "" && s.secret == "":
		return nil, apperrors.Wrapf(apperrors.ErrWrongSecret, "[filestore Open] %s is encrypted and no secret was given", path)
	case s.doc.Salt != "":
		if err := s.unlock(); err != nil {
			return nil, err
		}
	case s.secret != "":
		if err := s.encryptExisting(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) Read(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, apperrors.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", false, apperrors.ErrStoreClosed
	}
	stored, ok := s.doc.Entries[key]
	if !ok {
		return "", false, nil
	}
	value, err := s.open(stored)
	if err != nil {
		return "", false, fmt.Errorf("[filestore Read] %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Write(_ context.Context, key, value string) error {
	if key == "" {
		return apperrors.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.ErrStoreClosed
	}
	sealed, err := s.seal(value)
	if err != nil {
		return fmt.Errorf("[filestore Write] %s: %w", key, err)
	}

	previous, existed := s.doc.Entries[key]
	s.doc.Entries[key] = sealed
	if err := s.persist(); err != nil {
		if existed {
			s.doc.Entries[key] = previous
		} else {
			delete(s.doc.Entries, key)
		}
		return fmt.Errorf("[filestore Write] %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	if key == "" {
		return apperrors.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.ErrStoreClosed
	}
	previous, ok := s.doc.Entries[key]
	if !ok {
		return nil
	}
	delete(s.doc.Entries, key)
	if err := s.persist(); err != nil {
		s.doc.Entries[key] = previous
		return fmt.Errorf("[filestore Remove] %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initKey() error {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("[filestore] generate salt: %w", err)
	}
	s.doc.Salt = base64.StdEncoding.EncodeToString(salt)
	s.key = deriveKey(s.secret, salt)

	check, err := s.seal(checkPlaintext)
	if err != nil {
		return err
	}
	s.doc.Check = check
	return nil
}

func (s *Store) unlock() error {
	salt, err := base64.StdEncoding.DecodeString(s.doc.Salt)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrCorruptStore, "[filestore Open] salt: %v", err)
	}
	s.key = deriveKey(s.secret, salt)

	check, err := s.open(s.doc.Check)
	if err != nil || check != checkPlaintext {
		return apperrors.Wrapf(apperrors.ErrWrongSecret, "[filestore Open] %s", s.path)
	}
	return nil
}

func (s *Store) encryptExisting() error {
	plain := s.doc.Entries
	if err := s.initKey(); err != nil {
		return err
	}

	sealed := make(map[string]string, len(plain))
	for k, v := range plain {
		box, err := s.seal(v)
		if err != nil {
			return err
		}
		sealed[k] = box
	}
	s.doc.Entries = sealed

	log.Info().Str("path", s.path).Int("entries", len(sealed)).Msg("encrypting existing credential store")
	return s.persist()
}

func (s *Store) seal(value string) (string, error) {
	if s.key == nil {
		return value, nil
	}
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (s *Store) open(stored string) (string, error) {
	if s.key == nil {
		return stored, nil
	}
	box, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(box) < nonceLength+secretbox.Overhead {
		return "", apperrors.ErrCorruptStore
	}
	var nonce [nonceLength]byte
	copy(nonce[:], box[:nonceLength])
	plain, ok := secretbox.Open(nil, box[nonceLength:], &nonce, s.key)
	if !ok {
		return "", apperrors.ErrWrongSecret
	}
	return string(plain), nil
}

// persist writes the document to a temporary file in the same directory and renames it over the
// previous version, so a crash never leaves a half-written credential file.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func deriveKey(secret string, salt []byte) *[32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, 32))
	return &key
}
