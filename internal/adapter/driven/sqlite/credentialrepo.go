package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/realyou/internal/domain/port/driven"
)

// credentialService is the row key of the single stored API key.
const credentialService = "irbis"

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// Values are sealed with the injected Sealer before write and opened after read;
// the database only ever holds ciphertext.
type CredentialRepo struct {
	db     *DB
	sealer driven.Sealer
}

// NewCredentialRepo creates a CredentialRepo that seals values with sealer.
func NewCredentialRepo(db *DB, sealer driven.Sealer) *CredentialRepo {
	return &CredentialRepo{db: db, sealer: sealer}
}

// Set seals key and stores it, replacing any previous value.
func (r *CredentialRepo) Set(ctx context.Context, key string) error {
	sealed, err := r.sealer.Seal([]byte(key))
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}

	const query = `INSERT OR REPLACE INTO credentials (service, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, credentialService, sealed); err != nil {
		return fmt.Errorf("set credential: %w", err)
	}
	return nil
}

// Get returns the stored key, or ("", nil) if none has been stored.
func (r *CredentialRepo) Get(ctx context.Context) (string, error) {
	const query = `SELECT value FROM credentials WHERE service = ?`
	var sealed []byte
	err := r.db.Reader.QueryRowContext(ctx, query, credentialService).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get credential: %w", err)
	}

	plaintext, err := r.sealer.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("open credential: %w", err)
	}
	return string(plaintext), nil
}
