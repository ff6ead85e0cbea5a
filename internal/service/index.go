package service

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/meridian-labs/claimpilot/internal/domain"
)

const (
	// MinTopK and MaxTopK bound the number of clauses a caller may request.
	MinTopK = 1
	MaxTopK = 10
)

// ClampTopK forces k into the [MinTopK, MaxTopK] range.
func ClampTopK(k int) int {
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// IndexedChunk pairs a chunk with its embedding inside one index generation.
type IndexedChunk struct {
	Chunk     domain.Chunk
	Embedding []float32
}

// generation is one immutable, atomically-swappable version of the index.
type generation struct {
	id     string
	chunks []IndexedChunk
}

// EmbeddingIndex serves nearest-neighbor lookups against the current
// generation of chunk embeddings. Rebuild constructs the next generation off
// to the side and swaps a single pointer, so readers never block and never
// observe a partial index.
type EmbeddingIndex struct {
	current atomic.Pointer[generation]
}

// NewEmbeddingIndex creates an empty index with no generation installed.
func NewEmbeddingIndex() *EmbeddingIndex {
	return &EmbeddingIndex{}
}

// Rebuild installs a new generation built from the given chunks, replacing
// the previous one wholesale. Returns the new generation ID.
func (idx *EmbeddingIndex) Rebuild(chunks []IndexedChunk) string {
	gen := &generation{
		id:     uuid.NewString(),
		chunks: append([]IndexedChunk(nil), chunks...),
	}
	idx.current.Store(gen)
	return gen.id
}

// Generation returns the current generation ID, or "" before the first
// rebuild.
func (idx *EmbeddingIndex) Generation() string {
	gen := idx.current.Load()
	if gen == nil {
		return ""
	}
	return gen.id
}

// Size returns the number of chunks in the current generation.
func (idx *EmbeddingIndex) Size() int {
	gen := idx.current.Load()
	if gen == nil {
		return 0
	}
	return len(gen.chunks)
}

// TopK returns the k chunks most similar to the query embedding, ranked by
// descending cosine similarity with ties broken by original chunk order. An
// empty index yields an empty result, not an error.
func (idx *EmbeddingIndex) TopK(queryEmbedding []float32, k int) []domain.RetrievedClause {
	gen := idx.current.Load()
	if gen == nil || len(gen.chunks) == 0 {
		return []domain.RetrievedClause{}
	}

	k = ClampTopK(k)

	type scored struct {
		chunk      domain.Chunk
		similarity float64
	}

	candidates := make([]scored, 0, len(gen.chunks))
	for _, ic := range gen.chunks {
		candidates = append(candidates, scored{
			chunk:      ic.Chunk,
			similarity: CosineSimilarity(queryEmbedding, ic.Embedding),
		})
	}

	// Stable sort keeps insertion order for equal similarities.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	out := make([]domain.RetrievedClause, 0, k)
	for _, c := range candidates[:k] {
		out = append(out, domain.RetrievedClause{
			ChunkID:    c.chunk.ID,
			Section:    c.chunk.Section,
			Text:       c.chunk.Text,
			Similarity: c.similarity,
		})
	}
	return out
}

// CosineSimilarity computes cosine similarity mapped into [0,1]. Zero vectors
// score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Map [-1,1] to [0,1] so similarity is always a valid score.
	sim := (cos + 1) / 2
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
