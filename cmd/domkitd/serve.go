package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/domkit-go/domkit/core"
	"github.com/domkit-go/domkit/devtools"
	"github.com/domkit-go/domkit/host/memdom"
	"github.com/domkit-go/domkit/host/runtimehost"
	"github.com/domkit-go/domkit/internal/config"
)

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the devtools HTTP and websocket server",
		Long: `Start a Core bound to an in-process document and serve its
diagnostics over HTTP, websocket, and Prometheus /metrics.

Examples:
  domkitd serve
  domkitd serve --port=8080
  domkitd serve --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port)
		},
	}

	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from domkit.yaml)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from domkit.yaml)")

	return cmd
}

func runServe(host string, port int) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	printBanner()
	info("serving diagnostics on %s", cfg.Addr())

	doc := memdom.NewDocument()
	c := core.New(core.Config{
		Document:       doc,
		Window:         memdom.Window{},
		Clock:          runtimehost.NewClock(),
		FrameScheduler: runtimehost.NewFrameScheduler(0),
		MicrotaskQueue: runtimehost.NewMicrotaskQueue(),
		Timer:          runtimehost.NewTimer(),
	})
	defer c.Close()

	srv, err := devtools.NewServer(c, devtools.ServerConfig{
		Addr:             cfg.Addr(),
		SnapshotInterval: cfg.Diagnostics.SnapshotInterval,
		SQLitePath:       cfg.Diagnostics.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("start devtools server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("devtools server: %w", err)
	}
	success("shut down cleanly")
	return nil
}
