package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/realyou/internal/adapter/driving/cli"
)

const testKey = "abcdefghijkl"

// fakeIRBIS serves the three endpoints the CLI uses. The job reports
// "finished" on the first poll.
func fakeIRBIS(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var statusCalls atomic.Int32

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/request-monitor/credit-stat", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != testKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"balance":       10.5,
			"currency":      "USD",
			"credits":       7,
			"expiratioDate": "2027-01-01T00:00:00.000Z",
			"status":        "active",
		})
	})
	mux.HandleFunc("POST /api/developer/real_phone", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Key, Value string }
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testKey, body.Key)
		assert.Equal(t, "+1234567890", body.Value)
		writeJSON(w, http.StatusOK, map[string]any{"id": 9001})
	})
	mux.HandleFunc("GET /api/request-monitor/api-usage/9001", func(w http.ResponseWriter, _ *http.Request) {
		statusCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "finished",
			"data": []any{
				map[string]any{"verifier": map[string]any{"finalClassification": "REAL", "score": 87}},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &statusCalls
}

func setupEnv(t *testing.T, baseURL string) (keyPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	keyPath = filepath.Join(dir, "state", "secret.key")
	dbPath = filepath.Join(dir, "state", "realyou.db")

	t.Setenv("REALYOU_CONFIG", "")
	t.Setenv("REALYOU_BASE_URL", baseURL)
	t.Setenv("REALYOU_KEY_PATH", keyPath)
	t.Setenv("REALYOU_DB_PATH", dbPath)
	t.Setenv("REALYOU_HTTP_TIMEOUT", "5s")
	t.Setenv("REALYOU_POLL_STEPS", "1")
	t.Setenv("REALYOU_SETTLE_STEPS", "1")
	t.Setenv("REALYOU_STEP", "1ms")
	return keyPath, dbPath
}

func TestRun_Help(t *testing.T) {
	out := &bytes.Buffer{}

	err := run([]string{"-h"}, strings.NewReader(""), out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_BadFlag(t *testing.T) {
	err := run([]string{"-i", "nope"}, strings.NewReader(""), &bytes.Buffer{})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_EndToEnd(t *testing.T) {
	srv, statusCalls := fakeIRBIS(t)
	keyPath, dbPath := setupEnv(t, srv.URL)

	// First run: replace the key and look up a phone number.
	out := &bytes.Buffer{}
	err := run([]string{"--no-color", "-k", testKey, "-p", "+1234567890", "-i", "score"}, strings.NewReader(""), out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "API key replaced and validated successfully!")
	assert.Contains(t, out.String(), "Balance: 10.5 USD")
	assert.Contains(t, out.String(), "Real Person: REAL")
	assert.Contains(t, out.String(), "Score: 87")
	assert.Equal(t, int32(2), statusCalls.Load(), "one poll plus one final fetch")

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), testKey, "the database holds only ciphertext")

	// Second run: the stored key survives and is shown masked.
	out.Reset()
	err = run([]string{"--no-color", "-s"}, strings.NewReader(""), out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Current API key: *******hijkl")

	// Third run: the stored key is used without prompting.
	out.Reset()
	err = run([]string{"--no-color"}, strings.NewReader(""), out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Available Commands:")
	assert.NotContains(t, out.String(), "Enter your API key")
}

func TestRun_LostKeyMaterialPromptsAgain(t *testing.T) {
	srv, _ := fakeIRBIS(t)
	keyPath, _ := setupEnv(t, srv.URL)

	require.NoError(t, run([]string{"--no-color", "-k", testKey}, strings.NewReader(""), &bytes.Buffer{}))
	require.NoError(t, os.Remove(keyPath))

	out := &bytes.Buffer{}
	err := run([]string{"--no-color"}, strings.NewReader(testKey+"\n"), out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Enter your API key: ")
	assert.Contains(t, out.String(), "API key validated successfully!")
}

func TestRun_InvalidKey(t *testing.T) {
	srv, _ := fakeIRBIS(t)
	setupEnv(t, srv.URL)

	err := run([]string{"--no-color", "-k", "wrong-key"}, strings.NewReader(""), &bytes.Buffer{})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, "Invalid API key. Please try again.", exitErr.Message)
}
