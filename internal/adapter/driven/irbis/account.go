package irbis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ericfisherdev/realyou/internal/domain/model"
	"github.com/ericfisherdev/realyou/internal/domain/port/driven"
)

const creditStatPath = "/api/request-monitor/credit-stat"

// creditStatJSON is the credit-stat response body. "expiratioDate" is the
// service's spelling.
type creditStatJSON struct {
	Balance        json.Number `json:"balance"`
	Currency       string      `json:"currency"`
	Credits        json.Number `json:"credits"`
	ExpirationDate string      `json:"expiratioDate"`
	Status         string      `json:"status"`
}

// CreditStat validates apiKey by fetching its account status.
func (c *Client) CreditStat(ctx context.Context, apiKey string) (*model.AccountInfo, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   creditStatPath,
		query:  keyQuery(apiKey),
	})
	if err != nil {
		return nil, err
	}

	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("%w: credit-stat returned %d: %s", driven.ErrInvalidCredential, resp.status, resp.snippet())
	}

	var body creditStatJSON
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, fmt.Errorf("%w: malformed credit-stat body: %v", driven.ErrInvalidCredential, err)
	}

	return mapAccountInfo(body)
}

// mapAccountInfo converts the wire body to a domain AccountInfo. Numeric
// fields that do not parse are treated like a malformed body; a timestamp
// that does not match ExpirationLayout is contract drift.
func mapAccountInfo(body creditStatJSON) (*model.AccountInfo, error) {
	balance, err := numberOrZero(body.Balance).Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: balance %q: %v", driven.ErrInvalidCredential, body.Balance, err)
	}

	credits, err := parseCredits(numberOrZero(body.Credits))
	if err != nil {
		return nil, fmt.Errorf("%w: credits %q: %v", driven.ErrInvalidCredential, body.Credits, err)
	}

	expires, err := time.Parse(model.ExpirationLayout, body.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("%w: expiratioDate %q: %v", driven.ErrProtocol, body.ExpirationDate, err)
	}

	return &model.AccountInfo{
		Balance:   balance,
		Currency:  body.Currency,
		Credits:   credits,
		ExpiresAt: expires,
		Status:    body.Status,
	}, nil
}

func numberOrZero(n json.Number) json.Number {
	if n == "" {
		return "0"
	}
	return n
}

// parseCredits accepts integral values even when sent as floats ("12.0").
func parseCredits(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, errors.New("not an integer")
	}
	return int64(f), nil
}
