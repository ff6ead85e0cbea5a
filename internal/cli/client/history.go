package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// HistoryItem is one processed query as reported by the history API.
type HistoryItem struct {
	Query                 string  `json:"query"`
	Approved              bool    `json:"approved"`
	Amount                *int    `json:"amount,omitempty"`
	Confidence            string  `json:"confidence"`
	CacheHit              bool    `json:"cache_hit"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	ProcessedAt           string  `json:"processed_at"`
}

// HistoryResponse represents the history API response.
type HistoryResponse struct {
	Total int           `json:"total"`
	Items []HistoryItem `json:"items"`
}

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently processed queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runHistory(cmd, limit, outputJSON)
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "Maximum number of entries to list")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	path := "/history"
	if limit > 0 {
		path = fmt.Sprintf("/history?limit=%d", limit)
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	var historyResp HistoryResponse
	if err := json.Unmarshal(resp.Data, &historyResp); err != nil {
		return fmt.Errorf("failed to parse history response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(historyResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if historyResp.Total == 0 {
		fmt.Println("No queries processed yet")
		return nil
	}

	for i, item := range historyResp.Items {
		verdict := "rejected"
		if item.Approved {
			verdict = "approved"
			if item.Amount != nil {
				verdict = fmt.Sprintf("approved (%d)", *item.Amount)
			}
		}
		cached := ""
		if item.CacheHit {
			cached = " [cached]"
		}
		fmt.Printf("%2d. %s: %s, %s confidence, %.3fs%s\n",
			i+1, item.Query, verdict, item.Confidence, item.ProcessingTimeSeconds, cached)
	}

	return nil
}
