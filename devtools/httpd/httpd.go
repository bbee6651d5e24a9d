// Package httpd wires the devtools websocket upgrade endpoint, a JSON
// diagnostics snapshot endpoint, and a Prometheus /metrics endpoint onto a
// chi router (SPEC_FULL.md §11 go-chi/v5 row).
package httpd

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/domkit-go/domkit/core"
)

// DiagnosticsSource supplies the live Diagnostics snapshot the HTTP and
// websocket endpoints report — normally a *core.Core, narrowed to this one
// method so httpd doesn't need to import core.Core's full surface.
type DiagnosticsSource interface {
	Diagnostics() core.Diagnostics
}

// ClientRegistry tracks connected devtools websocket clients — implemented
// by *devtools.Broadcaster, narrowed here so httpd doesn't import the
// parent devtools package (which itself imports httpd to build Server).
type ClientRegistry interface {
	Join(conn *websocket.Conn)
	Leave(conn *websocket.Conn)
}

// Router builds the chi mux serving:
//
//	GET /diagnostics  -- current snapshot as JSON
//	GET /devtools/ws  -- websocket stream of snapshots, pushed by Broadcaster.Publish
//	GET /metrics      -- Prometheus exposition, against registry
func Router(source DiagnosticsSource, clients ClientRegistry, registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/diagnostics", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(source.Diagnostics()); err != nil {
			logger.Warn("devtools: failed to encode diagnostics response", slog.Any("error", err))
		}
	})

	r.Get("/devtools/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logger.Warn("devtools: websocket upgrade failed", slog.Any("error", err))
			return
		}
		clients.Join(conn)
		defer func() {
			clients.Leave(conn)
			_ = conn.Close()
		}()

		// The connection is write-only from this server's perspective; read
		// in a loop purely to detect client-initiated close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
