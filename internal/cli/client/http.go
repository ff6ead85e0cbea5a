package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envAPIURL = "CLAIMPILOT_API_URL"

	defaultAPIURL = "http://localhost:8080"
)

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClientWithCmd creates an APIClient with config cascade: flag → env → default.
// If cmd is nil, skips flag checking and goes directly to env.
func NewAPIClientWithCmd(cmd *cobra.Command) (*APIClient, error) {
	_ = godotenv.Load()

	var baseURL string

	// Priority 1: Check flag if cmd is provided
	if cmd != nil {
		if flagURL, err := cmd.Flags().GetString("api-url"); err == nil && flagURL != "" {
			baseURL = flagURL
		}
	}

	// Priority 2: Check environment variable (only if not found in flags)
	if baseURL == "" {
		baseURL = os.Getenv(envAPIURL)
	}

	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	return NewAPIClientWithConfig(baseURL)
}

// NewAPIClientWithConfig creates an APIClient with an explicit base URL.
func NewAPIClientWithConfig(baseURL string) (*APIClient, error) {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// APIResponse represents the standard API response format.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// APIError represents an error from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Get performs a GET request.
func (c *APIClient) Get(path string) (*APIResponse, error) {
	return c.do("GET", path, nil)
}

// Post performs a POST request with JSON body.
func (c *APIClient) Post(path string, body interface{}) (*APIResponse, error) {
	return c.do("POST", path, body)
}

func (c *APIClient) do(method, path string, body interface{}) (*APIResponse, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    string(respBody),
			}
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    apiResp.Error,
		}
	}

	return &apiResp, nil
}
