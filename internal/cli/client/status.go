package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// StatusResponse represents the status API response.
type StatusResponse struct {
	IsSetup          bool    `json:"is_setup"`
	State            string  `json:"state"`
	Generation       string  `json:"generation,omitempty"`
	IndexedChunks    int     `json:"indexed_chunks"`
	DocumentSizeKB   float64 `json:"document_size_kb"`
	SetupTimeSeconds float64 `json:"setup_time_seconds"`
	DefaultTopK      int     `json:"default_top_k"`
}

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStatus(cmd, outputJSON)
		},
	}
}

func runStatus(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/status")
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	var statusResp StatusResponse
	if err := json.Unmarshal(resp.Data, &statusResp); err != nil {
		return fmt.Errorf("failed to parse status response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(statusResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("State: %s\n", statusResp.State)
	if statusResp.IsSetup {
		fmt.Printf("Indexed chunks: %d\n", statusResp.IndexedChunks)
		fmt.Printf("Document size: %.2f KB\n", statusResp.DocumentSizeKB)
		fmt.Printf("Generation: %s\n", statusResp.Generation)
	} else {
		fmt.Println("No document ingested yet")
	}

	return nil
}
