package domain

// SectionUnspecified is assigned to chunks with no preceding section heading.
const SectionUnspecified = "UNSPECIFIED"

// Chunk represents a bounded span of policy text tagged with its originating
// section. Chunks are immutable once produced; IDs are unique within an index
// generation.
type Chunk struct {
	ID      string
	Index   int
	Text    string
	Section string
}

// ChunkStats summarizes a chunking pass for ingest reporting.
type ChunkStats struct {
	TotalChunks     int      `json:"total_chunks"`
	AvgChunkLength  float64  `json:"avg_chunk_length"`
	MinChunkLength  int      `json:"min_chunk_length"`
	MaxChunkLength  int      `json:"max_chunk_length"`
	UniqueSections  int      `json:"unique_sections"`
	SectionsCovered []string `json:"sections_covered"`
}
