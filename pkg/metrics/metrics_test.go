package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistererRegistersAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg)

	m.AskRequestsTotal.WithLabelValues(OutcomeCanonical).Inc()
	m.RateLimitRejections.Inc()
	m.IndexedSnippets.Set(42)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AskRequestsTotal.WithLabelValues(OutcomeCanonical)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitRejections))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.IndexedSnippets))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["ask_requests_total"])
	assert.True(t, names["ratelimit_rejections_total"])
	assert.True(t, names["indexed_snippets"])
}

func TestNewWithRegistererTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWithRegisterer(reg)
	assert.Panics(t, func() { NewWithRegisterer(reg) })
}

func TestStartServerServesMetrics(t *testing.T) {
	srv, err := StartServer(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}
