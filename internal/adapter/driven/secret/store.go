// Package secret implements local key management and authenticated
// encryption for the stored API key.
package secret

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/ericfisherdev/realyou/internal/domain/port/driven"
)

// formatVersion is the first byte of every sealed blob. It is also bound as
// additional authenticated data so it cannot be swapped independently.
const formatVersion byte = 1

// Compile-time interface satisfaction check.
var _ driven.Sealer = (*Store)(nil)

// Store owns the key material file and seals/opens data with
// XChaCha20-Poly1305. Sealed layout: version(1) || nonce(24) || ciphertext || tag(16).
type Store struct {
	path string

	mu  sync.Mutex
	key []byte // loaded lazily by EnsureKey.
}

// NewStore creates a Store whose key material lives at path. Nothing is read
// or written until the first call that needs the key.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the key material location.
func (s *Store) Path() string {
	return s.path
}

// EnsureKey returns the key material, generating and persisting a new random
// key on first use if the file does not exist. An existing file of the wrong
// size is an error; it is never overwritten.
func (s *Store) EnsureKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	key, err := s.readKey()
	if errors.Is(err, fs.ErrNotExist) {
		key, err = s.createKey()
	}
	if err != nil {
		return nil, err
	}

	s.key = key
	return key, nil
}

func (s *Store) readKey() ([]byte, error) {
	key, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("key file %s: want %d bytes, got %d", s.path, chacha20poly1305.KeySize, len(key))
	}
	return key, nil
}

func (s *Store) createKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create key directory: %w", err)
		}
	}

	// O_EXCL: if another writer got there first, use its key instead.
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return s.readKey()
	}
	if err != nil {
		return nil, fmt.Errorf("create key file: %w", err)
	}

	if _, err := f.Write(key); err != nil {
		_ = f.Close()
		_ = os.Remove(s.path)
		return nil, fmt.Errorf("write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(s.path)
		return nil, fmt.Errorf("close key file: %w", err)
	}

	return key, nil
}

// Seal encrypts plaintext under the current key material.
func (s *Store) Seal(plaintext []byte) ([]byte, error) {
	key, err := s.EnsureKey()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305.NewX: %w", err)
	}

	out := make([]byte, 1+aead.NonceSize(), 1+aead.NonceSize()+len(plaintext)+aead.Overhead())
	out[0] = formatVersion
	nonce := out[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("rand nonce: %w", err)
	}

	return aead.Seal(out, nonce, plaintext, []byte{formatVersion}), nil
}

// Open decrypts a blob produced by Seal. Any blob not produced by Seal with
// the current key material fails with driven.ErrDecryption.
func (s *Store) Open(sealed []byte) ([]byte, error) {
	key, err := s.EnsureKey()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305.NewX: %w", err)
	}

	if len(sealed) < 1+aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", driven.ErrDecryption)
	}
	if sealed[0] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", driven.ErrDecryption, sealed[0])
	}

	nonce := sealed[1 : 1+aead.NonceSize()]
	ciphertext := sealed[1+aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte{formatVersion})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrDecryption, err)
	}
	return plaintext, nil
}
