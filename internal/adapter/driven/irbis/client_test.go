package irbis_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/realyou/internal/adapter/driven/irbis"
	"github.com/ericfisherdev/realyou/internal/domain/model"
	"github.com/ericfisherdev/realyou/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *irbis.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := irbis.NewClientWithHTTPClient(server.Client(), server.URL+"/")
	require.NoError(t, err)

	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewClientWithHTTPClient_RejectsRelativeURL(t *testing.T) {
	_, err := irbis.NewClientWithHTTPClient(http.DefaultClient, "irbis.local")
	assert.Error(t, err)
}

func TestCreditStat_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/request-monitor/credit-stat", r.URL.Path)
		assert.Equal(t, "abcdefghijkl", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		writeJSON(w, http.StatusOK, `{
			"balance": 12.5,
			"currency": "EUR",
			"credits": 40,
			"expiratioDate": "2026-12-31T23:59:59.123Z",
			"status": "active"
		}`)
	})

	client := newTestClient(t, handler)
	info, err := client.CreditStat(context.Background(), "abcdefghijkl")

	require.NoError(t, err)
	assert.Equal(t, 12.5, info.Balance)
	assert.Equal(t, "EUR", info.Currency)
	assert.Equal(t, int64(40), info.Credits)
	assert.Equal(t, "active", info.Status)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 123_000_000, time.UTC), info.ExpiresAt)
}

func TestCreditStat_NonOKIsInvalidCredential(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, status, `{"message":"Unauthorized"}`)
			})

			info, err := newTestClient(t, handler).CreditStat(context.Background(), "bad")

			assert.Nil(t, info)
			require.ErrorIs(t, err, driven.ErrInvalidCredential)
		})
	}
}

func TestCreditStat_MalformedBodyIsInvalidCredential(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `<html>oops</html>`)
	})

	info, err := newTestClient(t, handler).CreditStat(context.Background(), "abcdefghijkl")

	assert.Nil(t, info)
	require.ErrorIs(t, err, driven.ErrInvalidCredential)
}

func TestCreditStat_BadTimestampIsProtocolError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"balance":1,"currency":"EUR","credits":1,"expiratioDate":"31/12/2026","status":"active"}`)
	})

	info, err := newTestClient(t, handler).CreditStat(context.Background(), "abcdefghijkl")

	assert.Nil(t, info)
	require.ErrorIs(t, err, driven.ErrProtocol)
	assert.NotErrorIs(t, err, driven.ErrInvalidCredential)
}

func TestCreditStat_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client, err := irbis.NewClientWithHTTPClient(server.Client(), server.URL)
	require.NoError(t, err)
	server.Close()

	_, err = client.CreditStat(context.Background(), "secret-key-value")

	require.ErrorIs(t, err, driven.ErrTransport)
	assert.NotContains(t, err.Error(), "secret-key-value")
}

func TestSubmitPhoneLookup_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/developer/real_phone", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"key": "abcdefghijkl", "value": "+1234567890"}, body)

		writeJSON(w, http.StatusCreated, `{"id": 5123}`)
	})

	id, err := newTestClient(t, handler).SubmitPhoneLookup(context.Background(), "abcdefghijkl", "+1234567890")

	require.NoError(t, err)
	assert.Equal(t, "5123", id)
}

func TestSubmitPhoneLookup_StringID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"job-abc"}`)
	})

	id, err := newTestClient(t, handler).SubmitPhoneLookup(context.Background(), "k", "+1")

	require.NoError(t, err)
	assert.Equal(t, "job-abc", id)
}

func TestSubmitPhoneLookup_PackageRequired(t *testing.T) {
	// The rejection arrives with either HTTP status; the body decides.
	for _, status := range []int{http.StatusOK, http.StatusNotFound} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, status, `{"statusCode":404,"message":"You have to buy package for this services"}`)
			})

			id, err := newTestClient(t, handler).SubmitPhoneLookup(context.Background(), "k", "+1234567890")

			assert.Empty(t, id)
			require.ErrorIs(t, err, driven.ErrPackageRequired)
		})
	}
}

func TestSubmitPhoneLookup_Other404IsNotRejection(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"statusCode":404,"message":"Not Found"}`)
	})

	_, err := newTestClient(t, handler).SubmitPhoneLookup(context.Background(), "k", "+1234567890")

	require.ErrorIs(t, err, driven.ErrTransport)
	assert.NotErrorIs(t, err, driven.ErrPackageRequired)
}

func TestSubmitPhoneLookup_MissingIDIsProtocolError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})

	_, err := newTestClient(t, handler).SubmitPhoneLookup(context.Background(), "k", "+1234567890")

	require.ErrorIs(t, err, driven.ErrProtocol)
}

func TestSubmitPhoneLookup_NonJSONErrorStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "bad gateway")
	})

	_, err := newTestClient(t, handler).SubmitPhoneLookup(context.Background(), "k", "+1234567890")

	require.ErrorIs(t, err, driven.ErrTransport)
}

func TestLookupStatus_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/request-monitor/api-usage/5123", r.URL.Path)
		assert.Equal(t, "abcdefghijkl", r.URL.Query().Get("key"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))

		writeJSON(w, http.StatusOK, `{"status":"finished","data":[{"verifier":{"finalClassification":"REAL","score":87}}]}`)
	})

	st, err := newTestClient(t, handler).LookupStatus(context.Background(), "abcdefghijkl", "5123")

	require.NoError(t, err)
	assert.True(t, st.Status.IsFinished())
	require.Len(t, st.Data.Items(), 1)
	assert.True(t, st.Data.Items()[0].Has("verifier"))
}

func TestLookupStatus_Pending(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"progress","data":null}`)
	})

	st, err := newTestClient(t, handler).LookupStatus(context.Background(), "k", "1")

	require.NoError(t, err)
	assert.Equal(t, model.JobStatus("progress"), st.Status)
	assert.False(t, st.Status.IsFinished())
	assert.Equal(t, model.KindNull, st.Data.Kind())
}

func TestLookupStatus_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{}`, driven.ErrTransport},
		{"non-json", http.StatusOK, `not json`, driven.ErrProtocol},
		{"missing status", http.StatusOK, `{"data":[]}`, driven.ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			st, err := newTestClient(t, handler).LookupStatus(context.Background(), "k", "1")

			assert.Nil(t, st)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewClient_StatusPollsBypassCache(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Cache-Control", "max-age=3600")
		status := "progress"
		if n > 1 {
			status = "finished"
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"status":%q,"data":[]}`, status))
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := irbis.NewClient(server.URL, 5*time.Second)
	require.NoError(t, err)

	first, err := client.LookupStatus(context.Background(), "k", "1")
	require.NoError(t, err)
	second, err := client.LookupStatus(context.Background(), "k", "1")
	require.NoError(t, err)

	assert.False(t, first.Status.IsFinished())
	assert.True(t, second.Status.IsFinished())
	assert.Equal(t, int32(2), calls.Load())
}
