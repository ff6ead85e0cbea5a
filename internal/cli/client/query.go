package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// QueryRequest represents the query API request.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// ClauseView is a retrieved clause in a query response.
type ClauseView struct {
	ChunkID    string  `json:"chunk_id"`
	Section    string  `json:"section"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// DecisionView is the decision in a query response.
type DecisionView struct {
	Approved        bool     `json:"approved"`
	Amount          *int     `json:"amount"`
	Reasoning       string   `json:"reasoning"`
	RelevantClauses []string `json:"relevant_clauses"`
	Confidence      string   `json:"confidence"`
	RiskFactors     []string `json:"risk_factors"`
}

// QueryResponse represents the query API response.
type QueryResponse struct {
	Query                 string       `json:"query"`
	Decision              DecisionView `json:"decision"`
	RetrievedClauses      []ClauseView `json:"retrieved_clauses"`
	ProcessingTimeSeconds float64      `json:"processing_time_seconds"`
	CacheHit              bool         `json:"cache_hit"`
}

// QueryCmd creates the query command.
func QueryCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a claim query",
		Long:  "Sends a free-text claim query and prints the decision with cited clauses.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runQuery(cmd, strings.Join(args, " "), topK, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of clauses to retrieve (default 3)")

	return cmd
}

func runQuery(cmd *cobra.Command, query string, topK int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/query", QueryRequest{Query: query, TopK: topK})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	var queryResp QueryResponse
	if err := json.Unmarshal(resp.Data, &queryResp); err != nil {
		return fmt.Errorf("failed to parse query response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(queryResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printDecision(queryResp)
	return nil
}

func printDecision(resp QueryResponse) {
	verdict := "REJECTED"
	if resp.Decision.Approved {
		verdict = "APPROVED"
	}
	fmt.Printf("%s (confidence: %s)\n", verdict, resp.Decision.Confidence)
	if resp.Decision.Amount != nil {
		fmt.Printf("Amount: %d\n", *resp.Decision.Amount)
	}
	fmt.Printf("Reasoning: %s\n", resp.Decision.Reasoning)

	if len(resp.Decision.RiskFactors) > 0 {
		fmt.Println("Risk factors:")
		for _, rf := range resp.Decision.RiskFactors {
			fmt.Printf("  - %s\n", rf)
		}
	}

	if len(resp.RetrievedClauses) > 0 {
		fmt.Println("Supporting clauses:")
		for _, clause := range resp.RetrievedClauses {
			fmt.Printf("  [%s] %.3f\n", clause.Section, clause.Similarity)
		}
	}

	hit := ""
	if resp.CacheHit {
		hit = " (cached)"
	}
	fmt.Printf("Processed in %.3fs%s\n", resp.ProcessingTimeSeconds, hit)
}
