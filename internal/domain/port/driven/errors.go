package driven

import "errors"

// Sentinel errors shared by the driven adapters. Adapters wrap them with
// context; callers match with errors.Is.
var (
	// ErrDecryption indicates a sealed credential could not be opened with the
	// current key material, or was corrupted.
	ErrDecryption = errors.New("credential decryption failed")

	// ErrInvalidCredential indicates the remote service rejected the API key.
	ErrInvalidCredential = errors.New("invalid API key")

	// ErrPackageRequired is the business rejection returned when the account has
	// no package covering phone lookups.
	ErrPackageRequired = errors.New("you have to buy package for this services")

	// ErrProtocol indicates an otherwise successful response was missing fields
	// or could not be parsed; the upstream contract has likely changed.
	ErrProtocol = errors.New("unexpected response from identity service")

	// ErrTransport indicates a network failure or non-success HTTP status.
	ErrTransport = errors.New("identity service request failed")

	// ErrJobFailed indicates the remote job reported a terminal failure status.
	ErrJobFailed = errors.New("lookup job failed")
)
