package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/fyxed/internal/callbilling/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/call/abc", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc","status":"ENDED","startedAt":"2026-05-01T10:00:00Z","endedAt":"2026-05-01T10:01:30Z","endedReason":"customer-ended-call"}`))
	}))
	defer srv.Close()

	c := New(config.Config{CallsAPIBaseURL: srv.URL, CallsAPIKey: "secret", CallsAPITimeout: time.Second})
	call, err := c.GetCall(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, call.Ended())
	assert.Equal(t, "customer-ended-call", call.EndedReason)
	assert.Equal(t, 90*time.Second, call.EndedAt.Sub(*call.StartedAt))
}

func TestGetCallUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"try later"}`))
	}))
	defer srv.Close()

	c := New(config.Config{CallsAPIBaseURL: srv.URL})
	_, err := c.GetCall(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, metrics.ErrUpstream))
	assert.Contains(t, err.Error(), "try later")
}

func TestGetCallDisabled(t *testing.T) {
	c := New(config.Config{})
	_, err := c.GetCall(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrCallsAPIDisabled)
}
