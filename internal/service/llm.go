package service

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ChatClient defines the interface for the generative-text capability.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// EmbeddingClient defines the interface for the embedding capability.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

const (
	// DefaultLLMRetryLimit bounds re-issues after a malformed generative
	// response or a capability timeout.
	DefaultLLMRetryLimit = 2
	// DefaultLLMTimeout bounds each individual generative call.
	DefaultLLMTimeout = 30 * time.Second
)

var errNoJSON = errors.New("no JSON object found in response")

// extractJSON pulls the outermost JSON object out of a completion. Models
// sometimes wrap the object in prose; everything before the first '{' and
// after the last '}' is discarded.
func extractJSON(response string) (string, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return "", errNoJSON
	}
	return response[start : end+1], nil
}

// completeWithTimeout runs one generative call under the per-call timeout.
func completeWithTimeout(ctx context.Context, chat ChatClient, timeout time.Duration, system, user string) (string, error) {
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chat.Complete(callCtx, system, user)
}
