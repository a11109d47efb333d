package callcontrol_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arassiq/SafeSenior/internal/callcontrol"
	"github.com/arassiq/SafeSenior/internal/circuitbreaker"
	"github.com/arassiq/SafeSenior/internal/config"
	interrors "github.com/arassiq/SafeSenior/internal/errors"
	"github.com/arassiq/SafeSenior/internal/logger"
)

type capturedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (callcontrol.Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.CallControlConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		FromNumber: "+15550000",
		Timeout:    2 * time.Second,
	}

	return callcontrol.New(cfg, logger.NewNop()), srv
}

func captureHandler(t *testing.T, captured *capturedRequest) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}
}

func TestHTTPClient_TransferCall_Warm(t *testing.T) {
	var captured capturedRequest
	client, _ := newTestClient(t, captureHandler(t, &captured))

	err := client.TransferCall(context.Background(), "call-1", "+1-555-FAMILY", true)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/calls/call-1/transfer", captured.path)
	assert.Equal(t, "Bearer test-key", captured.auth)
	assert.Equal(t, "+1-555-FAMILY", captured.body["destination"])
	assert.Equal(t, true, captured.body["warm"])
	assert.Equal(t, callcontrol.FamilyTransferMessage, captured.body["message"])
}

func TestHTTPClient_TransferCall_Normal(t *testing.T) {
	var captured capturedRequest
	client, _ := newTestClient(t, captureHandler(t, &captured))

	err := client.TransferCall(context.Background(), "call-2", "+1-555-SENIOR", false)
	require.NoError(t, err)

	assert.Equal(t, "/calls/call-2/transfer", captured.path)
	assert.Equal(t, false, captured.body["warm"])
	assert.NotContains(t, captured.body, "message")
}

func TestHTTPClient_EndCall(t *testing.T) {
	var captured capturedRequest
	client, _ := newTestClient(t, captureHandler(t, &captured))

	err := client.EndCall(context.Background(), "call-3", "IRS impersonation with arrest threats")
	require.NoError(t, err)

	assert.Equal(t, "/calls/call-3/end", captured.path)
	assert.Equal(t, "IRS impersonation with arrest threats", captured.body["reason"])
	assert.Equal(t, callcontrol.BlockedMessage, captured.body["message"])
}

func TestHTTPClient_SendMessage(t *testing.T) {
	var captured capturedRequest
	client, _ := newTestClient(t, captureHandler(t, &captured))

	err := client.SendMessage(context.Background(), "+15550199", "We have approved a call")
	require.NoError(t, err)

	assert.Equal(t, "/messages", captured.path)
	assert.Equal(t, "+15550000", captured.body["from"])
	assert.Equal(t, "+15550199", captured.body["to"])
	assert.Equal(t, "We have approved a call", captured.body["text"])
	assert.Equal(t, "SMS", captured.body["type"])
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	err := client.SendMessage(context.Background(), "+15550199", "hello")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPClient_ClientErrorsNotRetried(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid destination"}`))
	})

	err := client.TransferCall(context.Background(), "call-1", "bogus", false)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())

	var httpErr *interrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "invalid destination")
}

func TestHTTPClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx := context.Background()

	// Two failing requests of three attempts each trip the breaker at
	// the fifth consecutive failure.
	require.Error(t, client.SendMessage(ctx, "+15550199", "one"))
	err := client.SendMessage(ctx, "+15550199", "two")
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, int32(5), hits.Load())

	// The open breaker fails fast without touching the provider.
	err = client.SendMessage(ctx, "+15550199", "three")
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, int32(5), hits.Load())
}
