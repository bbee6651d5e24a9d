package devtools

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/domkit-go/domkit/core"
	"github.com/domkit-go/domkit/devtools/httpd"
	"github.com/domkit-go/domkit/devtools/snapshot"
)

// ServerConfig configures the devtools server's goroutines: the HTTP/WS
// listener, the periodic broadcast-and-snapshot ticker, and where the
// SQLite history file lives.
type ServerConfig struct {
	Addr             string
	SnapshotInterval time.Duration
	SQLitePath       string
	Logger           *slog.Logger
}

// Server runs the devtools HTTP server, websocket broadcaster, and SQLite
// snapshot writer together under one errgroup.Group (SPEC_FULL.md §11
// golang.org/x/sync row) — this governs only the devtools server's own
// goroutines; the Core and Runtime it observes remain single-threaded per
// spec §5.
type Server struct {
	cfg         ServerConfig
	core        *core.Core
	broadcaster *Broadcaster
	store       *snapshot.Store
	metrics     *metrics
	registry    *prometheus.Registry
	httpServer  *http.Server
}

// NewServer builds a Server observing c. The SQLite file at cfg.SQLitePath
// is opened immediately so a bad path fails fast, before Run is called.
func NewServer(c *core.Core, cfg ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = 30 * time.Second
	}

	store, err := snapshot.Open(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		cfg:         cfg,
		core:        c,
		broadcaster: NewBroadcaster(cfg.Logger),
		store:       store,
		metrics:     newMetrics(registry),
		registry:    registry,
	}
	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: httpd.Router(c, s.broadcaster, registry, cfg.Logger),
	}
	return s, nil
}

// Run starts the HTTP listener and the periodic snapshot/broadcast ticker,
// blocking until ctx is canceled or one of the goroutines fails, then
// gracefully shutting the HTTP server down.
func (s *Server) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		ticker := time.NewTicker(s.cfg.SnapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				d := s.core.Diagnostics()
				s.metrics.observe(d)
				s.broadcaster.Publish(d)
				if err := s.store.Record(d, now); err != nil {
					s.cfg.Logger.Warn("devtools: failed to record diagnostics snapshot", slog.Any("error", err))
				} else {
					s.metrics.snapshotsTotal.Inc()
				}
			}
		}
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	err := group.Wait()
	if closeErr := s.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
