package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autoSenderConfig(endpoint string) *model.ProviderSettings {
	return &model.ProviderSettings{
		Enabled: true,
		Kind:    model.ProviderAutoSender,
		Credentials: map[string]string{
			model.CredAPIKey:        "key-1",
			model.CredAccountID:     "acct-1",
			model.CredAccountSecret: "s3cret",
		},
		EndpointURL: endpoint,
	}
}

func TestAutoSender_PrimarySucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "key-1", r.Header.Get("apikey"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "919876543210", payload["number"], "10-digit number gets the country code")

		_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer srv.Close()

	err := NewHTTPSender("").Send(context.Background(), autoSenderConfig(srv.URL),
		model.OutboundMessage{To: "9876543210", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "no fallback attempt after a primary success")
}

func TestAutoSender_AuthRejectFallsBackOnce(t *testing.T) {
	var apiKeyCalls, basicCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); ok {
			basicCalls++
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			return
		}
		apiKeyCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewHTTPSender("").Send(context.Background(), autoSenderConfig(srv.URL),
		model.OutboundMessage{To: "09876543210", Body: "hello"})
	require.NoError(t, err, "fallback success counts as one successful send")
	assert.Equal(t, 1, apiKeyCalls)
	assert.Equal(t, 1, basicCalls)
}

func TestAutoSender_AppLevelErrorIsFallbackEligible(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// 200 with an app-level error body must still trigger the fallback
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "reason": "quota"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer srv.Close()

	err := NewHTTPSender("").Send(context.Background(), autoSenderConfig(srv.URL),
		model.OutboundMessage{To: "9876543210", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestAutoSender_BothAttemptsFail(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"status":"error"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewHTTPSender("").Send(context.Background(), autoSenderConfig(srv.URL),
		model.OutboundMessage{To: "9876543210", Body: "hello"})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "exactly one fallback attempt")
	assert.Contains(t, err.Error(), "primary")
	assert.Contains(t, err.Error(), "fallback")
}

func TestAutoSender_PrefixedNumberPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "919876543210", payload["number"])
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer srv.Close()

	err := NewHTTPSender("").Send(context.Background(), autoSenderConfig(srv.URL),
		model.OutboundMessage{To: "919876543210", Body: "hi"})
	require.NoError(t, err)
}
