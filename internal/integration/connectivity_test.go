package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foreclosure-assist/pkg/config"
)

func TestConnectivity_Check(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer up.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	c := NewConnectivity([]Target{
		{Name: "up", URL: up.URL},
		{Name: "slow", URL: slow.URL},
		{Name: "bad", URL: "://nope"},
	}, zap.NewNop())
	c.timeout = 100 * time.Millisecond

	results := c.Check(context.Background())
	require.Len(t, results, 3)

	assert.True(t, results[0].Reachable)
	assert.Equal(t, http.StatusMethodNotAllowed, results[0].StatusCode)
	assert.False(t, results[1].Reachable)
	assert.NotEmpty(t, results[1].Error)
	assert.False(t, results[2].Reachable)
}

func TestTargetsFromConfig(t *testing.T) {
	targets := TargetsFromConfig(config.VendorsConfig{
		Stripe:  config.VendorConfig{BaseURL: "https://api.stripe.com/v1"},
		HubSpot: config.VendorConfig{BaseURL: "https://api.hubapi.com"},
	})
	require.Len(t, targets, 2)
	assert.Equal(t, "hubspot", targets[0].Name)
	assert.Equal(t, "stripe", targets[1].Name)
}
