package main

import (
	"fmt"
	"os"

	"github.com/meridian-labs/claimpilot/internal/cli"
	"github.com/meridian-labs/claimpilot/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "claimpilotd",
		Short: "Claimpilot daemon",
		Long:  "Claimpilot daemon for running the claim decision API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
