// Package config loads the domkitd daemon's configuration.
//
// Settings come from an optional domkit.yaml file (overlaid with
// environment variables prefixed DOMKITD_), mirroring how the daemon's
// binary, not the core/reactive libraries, owns configuration parsing.
//
// # File structure
//
//	server:
//	  host: "127.0.0.1"
//	  port: 8787
//	diagnostics:
//	  snapshotInterval: 30s
//	  sqlitePath: "domkitd.db"
//	bench:
//	  handlers: 500
//	  events: 20000
package config
