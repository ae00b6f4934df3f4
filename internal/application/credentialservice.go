// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/realyou/internal/domain/model"
	"github.com/ericfisherdev/realyou/internal/domain/port/driven"
)

// ErrStoredCredentialInvalid is returned by Resolve when the stored API key is
// rejected by the service. The caller should ask for a replacement key.
var ErrStoredCredentialInvalid = errors.New("stored API key is invalid")

// CredentialSource records where a resolved API key came from.
type CredentialSource int

const (
	// SourceExplicit means the key was supplied on the command line and has
	// replaced the stored one.
	SourceExplicit CredentialSource = iota
	// SourceStored means the previously stored key was used.
	SourceStored
	// SourcePrompt means the user typed the key interactively and it was stored.
	SourcePrompt
)

// Resolution is a validated API key together with its account information.
type Resolution struct {
	APIKey  string
	Account *model.AccountInfo
	Source  CredentialSource
}

// PromptFunc asks the user for an API key.
type PromptFunc func() (string, error)

// CredentialService loads, stores and validates the API key.
type CredentialService struct {
	store driven.CredentialStore
	api   driven.IdentityAPI
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(store driven.CredentialStore, api driven.IdentityAPI) *CredentialService {
	return &CredentialService{store: store, api: api}
}

// LoadStored returns the stored API key. A key that cannot be read or
// decrypted is logged and treated as absent so the caller can ask for a new one.
func (s *CredentialService) LoadStored(ctx context.Context) (string, bool) {
	key, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, driven.ErrDecryption) {
			slog.Warn("stored API key cannot be decrypted; it must be entered again", "error", err)
		} else {
			slog.Error("reading stored API key failed", "error", err)
		}
		return "", false
	}
	if key == "" {
		return "", false
	}
	return key, true
}

// Store seals and persists key, replacing any stored value.
func (s *CredentialService) Store(ctx context.Context, key string) error {
	if err := s.store.Set(ctx, key); err != nil {
		return fmt.Errorf("store API key: %w", err)
	}
	slog.Info("API key encrypted and stored", "key", model.MaskCredential(key))
	return nil
}

// Validate checks key against the account-status endpoint. A rejected key
// returns an error wrapping driven.ErrInvalidCredential; an account response
// whose expiration date cannot be parsed wraps driven.ErrProtocol.
func (s *CredentialService) Validate(ctx context.Context, key string) (*model.AccountInfo, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: empty API key", driven.ErrInvalidCredential)
	}

	slog.Debug("validating API key", "key", model.MaskCredential(key))

	info, err := s.api.CreditStat(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("validate API key %s: %w", model.MaskCredential(key), err)
	}
	return info, nil
}

// Resolve picks the API key for this run:
//  1. an explicit key is validated and, if valid, replaces the stored key;
//  2. otherwise the stored key is validated;
//  3. otherwise prompt is called and the entered key is validated and stored.
func (s *CredentialService) Resolve(ctx context.Context, explicit string, prompt PromptFunc) (*Resolution, error) {
	if explicit != "" {
		return s.validateAndStore(ctx, explicit, SourceExplicit)
	}

	if stored, ok := s.LoadStored(ctx); ok {
		info, err := s.Validate(ctx, stored)
		if err != nil {
			if errors.Is(err, driven.ErrInvalidCredential) {
				return nil, fmt.Errorf("%w: %w", ErrStoredCredentialInvalid, err)
			}
			return nil, err
		}
		return &Resolution{APIKey: stored, Account: info, Source: SourceStored}, nil
	}

	if prompt == nil {
		return nil, fmt.Errorf("%w: no API key stored", driven.ErrInvalidCredential)
	}
	entered, err := prompt()
	if err != nil {
		return nil, fmt.Errorf("read API key: %w", err)
	}
	return s.validateAndStore(ctx, strings.TrimSpace(entered), SourcePrompt)
}

func (s *CredentialService) validateAndStore(ctx context.Context, key string, source CredentialSource) (*Resolution, error) {
	info, err := s.Validate(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.Store(ctx, key); err != nil {
		return nil, err
	}
	return &Resolution{APIKey: key, Account: info, Source: source}, nil
}
