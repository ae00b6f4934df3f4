package irbis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ericfisherdev/realyou/internal/domain/model"
	"github.com/ericfisherdev/realyou/internal/domain/port/driven"
)

const (
	realPhonePath = "/api/developer/real_phone"
	apiUsagePath  = "/api/request-monitor/api-usage/"
)

// packageRequiredMarker identifies the "no package" business rejection inside
// a 404 statusCode body.
const packageRequiredMarker = "buy package"

type submitRequestJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// submitResponseJSON covers both the success shape ({id}) and the error shape
// ({statusCode, message}).
type submitResponseJSON struct {
	ID         model.Value `json:"id"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
}

type statusResponseJSON struct {
	Status string      `json:"status"`
	Data   model.Value `json:"data"`
}

// SubmitPhoneLookup creates a real_phone lookup job and returns its id.
func (c *Client) SubmitPhoneLookup(ctx context.Context, apiKey, phone string) (string, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   realPhonePath,
		body:   submitRequestJSON{Key: apiKey, Value: phone},
	})
	if err != nil {
		return "", err
	}

	var body submitResponseJSON
	if err := json.Unmarshal(resp.body, &body); err != nil {
		if !resp.ok() {
			return "", fmt.Errorf("%w: real_phone returned %d: %s", driven.ErrTransport, resp.status, resp.snippet())
		}
		return "", fmt.Errorf("%w: malformed real_phone body: %v", driven.ErrProtocol, err)
	}

	if isPackageRequired(body) {
		return "", fmt.Errorf("%w: %s", driven.ErrPackageRequired, body.Message)
	}

	if !resp.ok() {
		return "", fmt.Errorf("%w: real_phone returned %d: %s", driven.ErrTransport, resp.status, resp.snippet())
	}

	id, ok := body.ID.Text()
	if !ok || id == "" {
		return "", fmt.Errorf("%w: real_phone response has no job id: %s", driven.ErrProtocol, resp.snippet())
	}
	return id, nil
}

func isPackageRequired(body submitResponseJSON) bool {
	return body.StatusCode == http.StatusNotFound &&
		strings.Contains(strings.ToLower(body.Message), packageRequiredMarker)
}

// LookupStatus fetches the status and data of a job. The request bypasses the
// HTTP cache.
func (c *Client) LookupStatus(ctx context.Context, apiKey, jobID string) (*model.LookupStatus, error) {
	resp, err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    apiUsagePath + jobID,
		query:   keyQuery(apiKey),
		noCache: true,
	})
	if err != nil {
		return nil, err
	}

	if !resp.ok() {
		return nil, fmt.Errorf("%w: api-usage returned %d: %s", driven.ErrTransport, resp.status, resp.snippet())
	}

	var body statusResponseJSON
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, fmt.Errorf("%w: malformed api-usage body: %v", driven.ErrProtocol, err)
	}
	if body.Status == "" {
		return nil, fmt.Errorf("%w: api-usage response has no status", driven.ErrProtocol)
	}

	return &model.LookupStatus{
		Status: model.JobStatus(body.Status),
		Data:   body.Data,
	}, nil
}
