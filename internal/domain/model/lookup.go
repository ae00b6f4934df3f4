package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned by ValidatePhone for numbers that are not in
// international format ("+" followed by digits only).
var ErrInvalidPhone = errors.New("invalid phone number: use international format without spaces, e.g. +1234567890")

var phonePattern = regexp.MustCompile(`^\+\d+$`)

// ValidatePhone rejects anything other than a leading '+' followed by one or
// more ASCII digits.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return nil
}

// InfoMode selects which facts are extracted from a lookup result.
type InfoMode string

const (
	InfoModeScore InfoMode = "score"
	InfoModeAll   InfoMode = "all"
)

// ParseInfoMode converts a user-supplied mode name to an InfoMode.
func ParseInfoMode(s string) (InfoMode, error) {
	switch InfoMode(strings.ToLower(strings.TrimSpace(s))) {
	case InfoModeScore:
		return InfoModeScore, nil
	case InfoModeAll:
		return InfoModeAll, nil
	default:
		return "", fmt.Errorf("unknown info mode %q: expected %q or %q", s, InfoModeScore, InfoModeAll)
	}
}

// JobStatus is the status string reported by the api-usage endpoint.
type JobStatus string

// JobStatusFinished is the only terminal success status the service reports.
const JobStatusFinished JobStatus = "finished"

// failedStatuses are treated as terminal failures so an unrecognised error
// state does not keep the poll loop spinning.
var failedStatuses = map[JobStatus]bool{
	"failed":    true,
	"error":     true,
	"canceled":  true,
	"cancelled": true,
	"rejected":  true,
}

func (s JobStatus) normalized() JobStatus {
	return JobStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

// IsFinished reports whether the job has completed successfully.
func (s JobStatus) IsFinished() bool {
	return s.normalized() == JobStatusFinished
}

// IsFailed reports whether the job reached a terminal failure state.
func (s JobStatus) IsFailed() bool {
	return failedStatuses[s.normalized()]
}

// LookupJob is a submitted phone-verification request.
type LookupJob struct {
	ID    string
	Phone string
	Mode  InfoMode
}

// LookupStatus is one response from the job status endpoint.
type LookupStatus struct {
	Status JobStatus
	Data   Value
}
