// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0")
	require.NoError(t, server.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func TestServerMetricsEndpoint(t *testing.T) {
	server := startTestServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	bodyStr := string(body)
	require.Contains(t, bodyStr, "# HELP")
	require.Contains(t, bodyStr, "go_")
	require.Contains(t, bodyStr, "process_")
}

func TestServerMetricsEndpointExposesRegisteredCounters(t *testing.T) {
	server := startTestServer(t)

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "alfac_test_counter_total", Help: "test"})
	server.Registry().MustRegister(counter)
	counter.Inc()

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "alfac_test_counter_total")
}

func TestServerLivenessReturns200(t *testing.T) {
	server := startTestServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "ok"))
}

func TestServerStartTwiceFails(t *testing.T) {
	server := startTestServer(t)
	require.Error(t, server.Start())
}

func TestServerAddrEmptyBeforeStart(t *testing.T) {
	server := NewServer("127.0.0.1:0")
	require.Empty(t, server.Addr())
}

func TestServerStopWithoutStartIsNoop(t *testing.T) {
	server := NewServer("127.0.0.1:0")
	require.NoError(t, server.Stop(context.Background()))
}
