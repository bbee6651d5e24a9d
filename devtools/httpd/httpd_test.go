package httpd_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/core"
	"github.com/domkit-go/domkit/devtools/httpd"
)

type fakeSource struct{ diag core.Diagnostics }

func (f fakeSource) Diagnostics() core.Diagnostics { return f.diag }

type fakeClients struct{ joined, left int }

func (f *fakeClients) Join(conn *websocket.Conn)  { f.joined++ }
func (f *fakeClients) Leave(conn *websocket.Conn) { f.left++ }

func TestDiagnosticsEndpointServesJSON(t *testing.T) {
	source := fakeSource{diag: core.Diagnostics{HandlerCount: 3, Warnings: 1}}
	r := httpd.Router(source, &fakeClients{}, prometheus.NewRegistry(), nil)

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/diagnostics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got core.Diagnostics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 3, got.HandlerCount)
	assert.Equal(t, 1, got.Warnings)
}

func TestMetricsEndpointExposesPrometheusFormat(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "domkit_test_total"})
	registry.MustRegister(counter)
	counter.Inc()

	r := httpd.Router(fakeSource{}, &fakeClients{}, registry, nil)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebsocketUpgradeJoinsAndLeavesClientRegistry(t *testing.T) {
	clients := &fakeClients{}
	r := httpd.Router(fakeSource{}, clients, prometheus.NewRegistry(), nil)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):] + "/devtools/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	conn.Close()
	// Give the server goroutine time to observe the close and call Leave.
	require.Eventually(t, func() bool { return clients.left == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, clients.joined)
}
