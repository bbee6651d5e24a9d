// Package devtools exposes a running Core's diagnostics to external
// collaborators: a live websocket stream, a JSON snapshot endpoint,
// Prometheus metrics, and periodic SQLite history (SPEC_FULL.md §11).
package devtools

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/domkit-go/domkit/core"
)

// Broadcaster fans a Diagnostics snapshot out to every connected devtools
// websocket client, grounded on the teacher's Server.upgrader +
// per-connection writer pattern in pkg/server/server.go.
type Broadcaster struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewBroadcaster creates an empty Broadcaster. If logger is nil,
// slog.Default() is used.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{logger: logger, clients: make(map[*websocket.Conn]struct{})}
}

// Join registers conn to receive future Publish calls. Callers own conn's
// lifecycle and must call Leave when the connection closes.
func (b *Broadcaster) Join(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[conn] = struct{}{}
}

// Leave unregisters conn.
func (b *Broadcaster) Leave(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, conn)
}

// ClientCount reports how many websocket clients are currently joined.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Publish sends d as a JSON text frame to every joined client, dropping
// (and unregistering) any client whose write fails.
func (b *Broadcaster) Publish(d core.Diagnostics) {
	payload, err := json.Marshal(snapshotJSON(d))
	if err != nil {
		b.logger.Warn("devtools: failed to marshal diagnostics snapshot", slog.Any("error", err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			b.logger.Debug("devtools: dropping unresponsive client", slog.Any("error", err))
			delete(b.clients, conn)
			_ = conn.Close()
		}
	}
}

// snapshotView is the wire shape sent to devtools websocket clients,
// independent of core.Diagnostics's field order. The JSON diagnostics
// endpoint in devtools/httpd encodes core.Diagnostics directly instead.
type snapshotView struct {
	HandlerCount     int              `json:"handlerCount"`
	PeakHandlerCount int              `json:"peakHandlerCount"`
	MatchCacheSize   int              `json:"matchCacheSize"`
	PathCacheSize    int              `json:"pathCacheSize"`
	LastSweep        string           `json:"lastSweep"`
	Warnings         int              `json:"warnings"`
	ThrottleDropped  map[string]uint64 `json:"throttleDropped"`
}

func snapshotJSON(d core.Diagnostics) snapshotView {
	dropped := make(map[string]uint64, len(d.ThrottleDropped))
	for eventType, count := range d.ThrottleDropped {
		dropped[string(eventType)] = count
	}
	return snapshotView{
		HandlerCount:     d.HandlerCount,
		PeakHandlerCount: d.PeakHandlerCount,
		MatchCacheSize:   d.MatchCacheSize,
		PathCacheSize:    d.PathCacheSize,
		LastSweep:        d.LastSweep.Format("2006-01-02T15:04:05.000Z07:00"),
		Warnings:         d.Warnings,
		ThrottleDropped:  dropped,
	}
}
