package model

import (
	"strings"
	"time"
)

// maskVisible is the number of trailing credential characters left readable
// by MaskCredential.
const maskVisible = 5

// ExpirationLayout is the timestamp format the credit-stat endpoint uses for
// expiratioDate (ISO-8601, milliseconds, literal Z).
const ExpirationLayout = "2006-01-02T15:04:05.000Z"

// AccountInfo is the account status returned for a valid API key.
type AccountInfo struct {
	Balance   float64
	Currency  string
	Credits   int64
	ExpiresAt time.Time
	Status    string
}

// MaskCredential hides all but the last five characters of an API key behind
// '*'. Keys of five characters or fewer are returned unchanged.
func MaskCredential(key string) string {
	runes := []rune(key)
	hidden := max(0, len(runes)-maskVisible)
	return strings.Repeat("*", hidden) + string(runes[hidden:])
}
