package driven

import "context"

// CredentialStore defines the driven port for the encrypted API key.
// The adapter is responsible for sealing and opening; this interface operates
// on plaintext at the domain boundary. Only one credential is kept.
type CredentialStore interface {
	// Get returns the stored API key, or ("", nil) when none is stored.
	// A blob that cannot be opened with the current key returns an error
	// wrapping ErrDecryption.
	Get(ctx context.Context) (string, error)

	// Set seals and stores key, replacing any previous value.
	Set(ctx context.Context, key string) error
}

// Sealer performs authenticated encryption with the local key material.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	// Open returns an error wrapping ErrDecryption for foreign or tampered input.
	Open(sealed []byte) ([]byte, error)
}
