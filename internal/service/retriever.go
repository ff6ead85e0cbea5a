package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-labs/claimpilot/internal/domain"
)

// DefaultTopK is the retrieval breadth used when the caller does not request
// one.
const DefaultTopK = 3

// ClauseRetriever turns a claim query into a ranked set of supporting policy
// clauses via the embedding index.
type ClauseRetriever struct {
	embedding EmbeddingClient
	index     *EmbeddingIndex
}

// NewClauseRetriever creates a ClauseRetriever backed by the given embedding
// client and index.
func NewClauseRetriever(embedding EmbeddingClient, index *EmbeddingIndex) *ClauseRetriever {
	return &ClauseRetriever{
		embedding: embedding,
		index:     index,
	}
}

// Retrieve embeds a retrieval query built from the parsed attributes plus the
// raw text and returns the topK most similar clauses. An empty index yields
// an empty clause set, never an error; downstream consumers must handle it.
func (r *ClauseRetriever) Retrieve(ctx context.Context, rawQuery string, parsed domain.ParsedQuery, topK int) ([]domain.RetrievedClause, error) {
	if r.index.Size() == 0 {
		return []domain.RetrievedClause{}, nil
	}

	if topK <= 0 {
		topK = DefaultTopK
	}

	queryEmbedding, err := r.embedding.GenerateEmbedding(ctx, buildRetrievalText(rawQuery, parsed))
	if err != nil {
		return nil, fmt.Errorf("failed to embed retrieval query: %w", err)
	}

	return r.index.TopK(queryEmbedding, topK), nil
}

// buildRetrievalText combines the extracted procedure and location with the
// raw query so clause retrieval keys on both structured and free-text signal.
func buildRetrievalText(rawQuery string, parsed domain.ParsedQuery) string {
	var parts []string
	if parsed.Procedure != "" {
		parts = append(parts, parsed.Procedure)
	}
	if parsed.Location != "" {
		parts = append(parts, parsed.Location)
	}
	parts = append(parts, rawQuery)
	return strings.Join(parts, "\n")
}
