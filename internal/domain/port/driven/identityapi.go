package driven

import (
	"context"

	"github.com/ericfisherdev/realyou/internal/domain/model"
)

// IdentityAPI defines the driven port for the remote identity-verification
// service. Implementations perform exactly one HTTP call per method and never
// retry.
type IdentityAPI interface {
	// CreditStat returns account information for apiKey. A rejected key or a
	// malformed body returns ErrInvalidCredential; an unparseable expiration
	// date returns ErrProtocol.
	CreditStat(ctx context.Context, apiKey string) (*model.AccountInfo, error)

	// SubmitPhoneLookup creates a lookup job and returns its id.
	// Returns ErrPackageRequired when the account has no suitable package.
	SubmitPhoneLookup(ctx context.Context, apiKey, phone string) (string, error)

	// LookupStatus fetches the current status and data of a job.
	LookupStatus(ctx context.Context, apiKey, jobID string) (*model.LookupStatus, error)
}
