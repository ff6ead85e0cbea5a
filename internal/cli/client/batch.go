package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// BatchRequest represents the batch query API request.
type BatchRequest struct {
	Queries []string `json:"queries"`
	TopK    int      `json:"top_k,omitempty"`
}

// BatchItemView is the per-query outcome in a batch response.
type BatchItemView struct {
	Query     string         `json:"query"`
	Result    *QueryResponse `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
	CacheHit  bool           `json:"cache_hit"`
}

// BatchResponse represents the batch query API response.
type BatchResponse struct {
	Total            int             `json:"total"`
	TotalTimeSeconds float64         `json:"total_time_seconds"`
	AvgTimeSeconds   float64         `json:"avg_time_seconds"`
	Results          []BatchItemView `json:"results"`
}

// BatchCmd creates the batch command.
func BatchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Run a batch of claim queries",
		Long:  "Reads one query per line from a file and processes them concurrently.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runBatch(cmd, args[0], topK, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of clauses to retrieve per query (default 3)")

	return cmd
}

func runBatch(cmd *cobra.Command, path string, topK int, outputJSON bool) error {
	queries, err := readQueryLines(path)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("no queries found in %s", path)
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/query/batch", BatchRequest{Queries: queries, TopK: topK})
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	var batchResp BatchResponse
	if err := json.Unmarshal(resp.Data, &batchResp); err != nil {
		return fmt.Errorf("failed to parse batch response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(batchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for i, item := range batchResp.Results {
		fmt.Printf("%d. %s\n", i+1, item.Query)
		switch {
		case item.Error != "":
			fmt.Printf("   ERROR: %s\n", item.Error)
		case item.Result != nil && item.Result.Decision.Approved:
			fmt.Printf("   APPROVED (confidence: %s)\n", item.Result.Decision.Confidence)
		case item.Result != nil:
			fmt.Printf("   REJECTED (confidence: %s)\n", item.Result.Decision.Confidence)
		}
	}
	fmt.Printf("Processed %d queries in %.3fs (avg %.3fs)\n",
		batchResp.Total, batchResp.TotalTimeSeconds, batchResp.AvgTimeSeconds)

	return nil
}

func readQueryLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}

	return queries, nil
}
