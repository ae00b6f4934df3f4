package application_test

import (
	"context"
	"sync"

	"github.com/ericfisherdev/realyou/internal/domain/model"
)

// --- Mock implementations ---

type mockIdentityAPI struct {
	mu sync.Mutex

	creditStat func(ctx context.Context, apiKey string) (*model.AccountInfo, error)
	submit     func(ctx context.Context, apiKey, phone string) (string, error)
	statuses   []*model.LookupStatus // returned in order; the last one repeats.
	statusErr  error

	creditCalls []string
	submitCalls []string
	statusCalls int
}

func (m *mockIdentityAPI) CreditStat(ctx context.Context, apiKey string) (*model.AccountInfo, error) {
	m.mu.Lock()
	m.creditCalls = append(m.creditCalls, apiKey)
	m.mu.Unlock()
	if m.creditStat == nil {
		return &model.AccountInfo{Status: "active"}, nil
	}
	return m.creditStat(ctx, apiKey)
}

func (m *mockIdentityAPI) SubmitPhoneLookup(ctx context.Context, apiKey, phone string) (string, error) {
	m.mu.Lock()
	m.submitCalls = append(m.submitCalls, phone)
	m.mu.Unlock()
	if m.submit == nil {
		return "job-1", nil
	}
	return m.submit(ctx, apiKey, phone)
}

func (m *mockIdentityAPI) LookupStatus(_ context.Context, _, _ string) (*model.LookupStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	idx := min(m.statusCalls-1, len(m.statuses)-1)
	return m.statuses[idx], nil
}

func (m *mockIdentityAPI) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

type mockCredentialStore struct {
	value  string
	getErr error
	setErr error
	sets   []string
}

func (m *mockCredentialStore) Get(_ context.Context) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.value, nil
}

func (m *mockCredentialStore) Set(_ context.Context, key string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets = append(m.sets, key)
	m.value = key
	return nil
}

func mustParse(raw string) model.Value {
	v, err := model.ParseValue([]byte(raw))
	if err != nil {
		panic(err)
	}
	return v
}

func status(s string, data string) *model.LookupStatus {
	st := &model.LookupStatus{Status: model.JobStatus(s)}
	if data != "" {
		st.Data = mustParse(data)
	}
	return st
}
