package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// AnalyticsResponse represents the analytics API response.
type AnalyticsResponse struct {
	TotalQueries             int64   `json:"total_queries"`
	ApprovedCount            int64   `json:"approved_count"`
	RejectedCount            int64   `json:"rejected_count"`
	AvgProcessingTimeSeconds float64 `json:"avg_processing_time_seconds"`
	CacheHits                int64   `json:"cache_hits"`
	CacheSize                int     `json:"cache_size"`
}

// AnalyticsCmd creates the analytics command with its reset subcommand.
func AnalyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show query analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAnalytics(cmd, outputJSON)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset analytics counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyticsReset(cmd)
		},
	})

	return cmd
}

func runAnalytics(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/analytics")
	if err != nil {
		return fmt.Errorf("analytics failed: %w", err)
	}

	var analyticsResp AnalyticsResponse
	if err := json.Unmarshal(resp.Data, &analyticsResp); err != nil {
		return fmt.Errorf("failed to parse analytics response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(analyticsResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Total queries:  %d\n", analyticsResp.TotalQueries)
	fmt.Printf("Approved:       %d\n", analyticsResp.ApprovedCount)
	fmt.Printf("Rejected:       %d\n", analyticsResp.RejectedCount)
	fmt.Printf("Cache hits:     %d\n", analyticsResp.CacheHits)
	fmt.Printf("Cache size:     %d\n", analyticsResp.CacheSize)
	fmt.Printf("Avg time:       %.3fs\n", analyticsResp.AvgProcessingTimeSeconds)

	return nil
}

func runAnalyticsReset(cmd *cobra.Command) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if _, err := api.Post("/analytics/reset", nil); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Println("Analytics counters reset")
	return nil
}
