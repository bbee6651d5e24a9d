package devtools_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/core"
	"github.com/domkit-go/domkit/devtools"
)

func TestBroadcasterPublishReachesJoinedClient(t *testing.T) {
	b := devtools.NewBroadcaster(nil)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		b.Join(conn)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	// Give the server side a moment to register the join.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, b.ClientCount())

	b.Publish(core.Diagnostics{HandlerCount: 7})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, float64(7), got["handlerCount"])
}
