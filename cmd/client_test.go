package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"role-sync/core/config"
	"role-sync/core/middleware/auth"
	"role-sync/core/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAdminClient_SendsKeyAndBody(t *testing.T) {
	var gotKey, gotMethod, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(auth.Header)
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"done","count":2}`))
	}))
	defer srv.Close()

	adminURL = srv.URL
	t.Cleanup(func() { adminURL = "" })

	c := newAdminClient(&config.Config{Server: server.Config{ApiKey: "secret"}})
	var reply map[string]any
	err := c.do(context.Background(), http.MethodPut, "/whitelist/manage", map[string]bool{"enabled": true}, &reply)
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/whitelist/manage", gotPath)
	assert.Equal(t, true, gotBody["enabled"])
	assert.Equal(t, "done", reply["message"])
}

func TestAdminClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Whitelist management is disabled"}`))
	}))
	defer srv.Close()

	adminURL = srv.URL + "/"
	t.Cleanup(func() { adminURL = "" })

	c := newAdminClient(&config.Config{})
	err := c.do(context.Background(), http.MethodPost, "/whitelist/reset", nil, nil)
	require.Error(t, err)

	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Contains(t, err.Error(), "Whitelist management is disabled")
}

func TestAdminClient_EmptyErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	adminURL = srv.URL
	t.Cleanup(func() { adminURL = "" })

	err := newAdminClient(&config.Config{}).do(context.Background(), http.MethodGet, "/status", nil, nil)
	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), apiErr.Message)
}

func TestPrintReply(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	printReply(zap.New(core), map[string]any{"message": "Whitelist reset", "cleared": 3.0})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Whitelist reset", entries[0].Message)
	assert.Equal(t, 3.0, entries[0].ContextMap()["cleared"])

	printReply(zap.New(core), map[string]any{})
	assert.Equal(t, "OK", logs.All()[1].Message)
}
