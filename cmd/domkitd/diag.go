package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/domkit-go/domkit/core"
)

func diagCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "diag",
		Short: "Render a diagnostics snapshot as a colored table",
		Long: `Fetch /diagnostics from a running "domkitd serve" instance and
render the handler counts, cache sizes, and throttle drops as a table,
in the same idiom as janus-datalog's query CLI output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiag(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8787", "address of a running domkitd serve instance")

	return cmd
}

func runDiag(addr string) error {
	resp, err := http.Get(addr + "/diagnostics")
	if err != nil {
		return fmt.Errorf("fetch diagnostics: %w", err)
	}
	defer resp.Body.Close()

	var d core.Diagnostics
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return fmt.Errorf("decode diagnostics: %w", err)
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"metric", "value"})

	warnColor := color.New(color.FgYellow).SprintFunc()
	okColor := color.New(color.FgGreen).SprintFunc()

	rows := [][2]string{
		{"handler count", okColor(strconv.Itoa(d.HandlerCount))},
		{"peak handler count", okColor(strconv.Itoa(d.PeakHandlerCount))},
		{"selector match cache", strconv.Itoa(d.MatchCacheSize)},
		{"propagation path cache", strconv.Itoa(d.PathCacheSize)},
		{"last sweep", d.LastSweep.Format("2006-01-02T15:04:05Z07:00")},
	}
	warnings := strconv.Itoa(d.Warnings)
	if d.Warnings > 0 {
		warnings = warnColor(warnings)
	}
	rows = append(rows, [2]string{"warnings", warnings})

	for _, row := range rows {
		table.Append(row[:])
	}
	for t, n := range d.ThrottleDropped {
		if n == 0 {
			continue
		}
		table.Append([]string{"dropped:" + string(t), warnColor(strconv.FormatUint(n, 10))})
	}

	table.Render()
	return nil
}
