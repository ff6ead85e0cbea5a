package main

import (
	"fmt"
	"os"

	"github.com/meridian-labs/claimpilot/internal/cli"
	"github.com/meridian-labs/claimpilot/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "claimpilot",
		Short: "Claimpilot CLI - Insurance claim decisions from policy documents",
		Long: `Claimpilot CLI sends claim queries to a claimpilot server.

Environment variables:
  CLAIMPILOT_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.QueryCmd())
	rootCmd.AddCommand(client.BatchCmd())
	rootCmd.AddCommand(client.StatusCmd())
	rootCmd.AddCommand(client.AnalyticsCmd())
	rootCmd.AddCommand(client.HistoryCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
