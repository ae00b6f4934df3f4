package model

import "strconv"

// Verifier is the authenticity sub-record of a lookup result.
type Verifier struct {
	Classification string
	Score          *float64 // nil when the record carries no usable score.
}

// ScoreText renders the score without trailing zeros, or "" if absent.
func (v Verifier) ScoreText() string {
	if v.Score == nil {
		return ""
	}
	return strconv.FormatFloat(*v.Score, 'f', -1, 64)
}

// Facts is the typed projection of a lookup result. In score mode only
// Verifier is populated. A nil Verifier means the result carried no verifier
// data, which is a valid outcome rather than an error.
type Facts struct {
	Mode        InfoMode
	Names       []string
	Emails      []string
	LinkedInIDs []string
	Birthdays   []string
	FacebookIDs []string
	Verifier    *Verifier
}
