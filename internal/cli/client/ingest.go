package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// IngestRequest represents the ingest API request.
type IngestRequest struct {
	Document string `json:"document"`
	Type     string `json:"type,omitempty"`
}

// IngestResponse represents the ingest API response.
type IngestResponse struct {
	Generation       string  `json:"generation"`
	FileSizeKB       float64 `json:"file_size_kb"`
	TotalChunks      int     `json:"total_chunks"`
	SetupTimeSeconds float64 `json:"setup_time_seconds"`
	IsSetup          bool    `json:"is_setup"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a policy document",
		Long:  "Reads a policy document from disk and indexes it for claim queries.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngest(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runIngest(cmd *cobra.Command, path string, outputJSON bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := IngestRequest{
		Document: string(data),
		Type:     strings.TrimPrefix(filepath.Ext(path), "."),
	}

	resp, err := api.Post("/ingest", req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	var ingestResp IngestResponse
	if err := json.Unmarshal(resp.Data, &ingestResp); err != nil {
		return fmt.Errorf("failed to parse ingest response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(ingestResp, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Indexed %d chunks (%.2f KB) in %.2fs\n",
			ingestResp.TotalChunks, ingestResp.FileSizeKB, ingestResp.SetupTimeSeconds)
	}

	return nil
}
