package resilience_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripguard/tripguard/internal/provider/resilience"
)

func TestRegistry_ClientRegistersItself(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := fastConfig("conditions")
	cfg.Registry = registry

	_ = resilience.NewClient(cfg)

	assert.Equal(t, 1, registry.Len())
	health, ok := registry.Health("conditions")
	require.True(t, ok)
	assert.Equal(t, gobreaker.StateClosed, health.State)
	assert.Equal(t, resilience.StatusHealthy, health.Status())
	assert.Nil(t, health.LastSuccessAt)
}

func TestRegistry_RecordsOutcomes(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	cfg := fastConfig("conditions")
	cfg.MaxRetries = 0
	cfg.Registry = registry
	client := resilience.NewClient(cfg)

	resp, err := get(t, client, server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	health, _ := registry.Health("conditions")
	require.NotNil(t, health.LastSuccessAt)
	assert.WithinDuration(t, time.Now(), *health.LastSuccessAt, time.Second)

	status.Store(http.StatusInternalServerError)
	resp, err = get(t, client, server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	health, _ = registry.Health("conditions")
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "server error: Internal Server Error", health.LastError)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := fastConfig("conditions")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	registry.Unregister("conditions")

	assert.Equal(t, 0, registry.Len())
	_, ok := registry.Health("conditions")
	assert.False(t, ok)
}

func TestRegistry_AllSortedByName(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"weather", "disease", "aqi"} {
		cfg := fastConfig(name)
		cfg.Registry = registry
		_ = resilience.NewClient(cfg)
	}

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "aqi", all[0].Name)
	assert.Equal(t, "disease", all[1].Name)
	assert.Equal(t, "weather", all[2].Name)
}

func TestFeedHealth_Status(t *testing.T) {
	assert.Equal(t, resilience.StatusHealthy, resilience.FeedHealth{State: gobreaker.StateClosed}.Status())
	assert.Equal(t, resilience.StatusDegraded, resilience.FeedHealth{State: gobreaker.StateHalfOpen}.Status())
	assert.Equal(t, resilience.StatusUnhealthy, resilience.FeedHealth{State: gobreaker.StateOpen}.Status())
}
