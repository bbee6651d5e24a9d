package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╦╗╔═╗╔╦╗╦╔═╦╦╔╦╗
  ║║║║ ║║║║╠╩╗║ ║║
  ╩ ╩╚═╝╩ ╩╩ ╩╩╩ ╩
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "domkitd",
		Short: "Event delegation and reactive state engine daemon",
		Long: `domkitd runs and inspects a domkit event delegation engine from the
command line.

  • serve  runs the devtools HTTP + websocket server against a live Core
  • bench  drives a synthetic event/signal workload and reports throughput
  • diag   renders the current diagnostics snapshot as a colored table
  • version prints build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		benchCmd(),
		diagCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Print(banner)
}

func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
