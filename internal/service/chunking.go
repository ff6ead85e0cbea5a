package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/meridian-labs/claimpilot/internal/domain"
)

// ChunkConfig controls chunking of ingested policy documents.
type ChunkConfig struct {
	MaxChars int
	MinChars int
	Overlap  int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 500,
		MinChars: 100,
		Overlap:  50,
	}
}

// sectionHeading matches policy section headings such as
// "SECTION 2: SURGICAL COVERAGE". The title capture becomes the section tag.
var sectionHeading = regexp.MustCompile(`(?m)^[ \t]*SECTION\s+\d+:\s+([A-Z][A-Z0-9 \t/&-]*[A-Z0-9])[ \t]*$`)

// DocumentChunker splits ingested policy text into section-tagged chunks.
type DocumentChunker struct {
	cfg ChunkConfig
}

// NewDocumentChunker creates a DocumentChunker with the given config.
func NewDocumentChunker(cfg ChunkConfig) *DocumentChunker {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	return &DocumentChunker{cfg: cfg}
}

type sectionSpan struct {
	name string
	text string
}

// ChunkDocument splits text into bounded chunks that never cross a section
// boundary. Output order matches document order; chunk IDs are unique within
// one ingest.
func (c *DocumentChunker) ChunkDocument(text string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyDocument
	}

	var chunks []domain.Chunk
	for _, span := range splitSections(text) {
		for _, piece := range chunkText(span.text, c.cfg) {
			chunks = append(chunks, domain.Chunk{
				ID:      fmt.Sprintf("chunk_%d", len(chunks)),
				Index:   len(chunks),
				Text:    piece,
				Section: span.name,
			})
		}
	}

	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	if err := validateChunks(chunks); err != nil {
		return nil, err
	}

	return chunks, nil
}

// validateChunks checks the output contract: every chunk carries text and
// indexes are sequential from zero.
func validateChunks(chunks []domain.Chunk) error {
	for i, ch := range chunks {
		if strings.TrimSpace(ch.Text) == "" {
			return fmt.Errorf("chunk %d has no text", i)
		}
		if ch.Index != i {
			return fmt.Errorf("chunk %d has out-of-order index %d", i, ch.Index)
		}
	}
	return nil
}

// Stats summarizes a chunking pass for ingest reporting.
func (c *DocumentChunker) Stats(chunks []domain.Chunk) domain.ChunkStats {
	if len(chunks) == 0 {
		return domain.ChunkStats{}
	}

	total := 0
	minLen := len(chunks[0].Text)
	maxLen := 0
	sections := make(map[string]struct{})
	for _, ch := range chunks {
		n := len(ch.Text)
		total += n
		if n < minLen {
			minLen = n
		}
		if n > maxLen {
			maxLen = n
		}
		sections[ch.Section] = struct{}{}
	}

	covered := make([]string, 0, len(sections))
	for s := range sections {
		covered = append(covered, s)
	}
	sort.Strings(covered)

	return domain.ChunkStats{
		TotalChunks:     len(chunks),
		AvgChunkLength:  float64(total) / float64(len(chunks)),
		MinChunkLength:  minLen,
		MaxChunkLength:  maxLen,
		UniqueSections:  len(sections),
		SectionsCovered: covered,
	}
}

// splitSections partitions the document at detected headings. Text before the
// first heading (or a document with no headings) is tagged UNSPECIFIED. The
// heading line stays with its section body so section terms remain searchable.
func splitSections(text string) []sectionSpan {
	matches := sectionHeading.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []sectionSpan{{name: domain.SectionUnspecified, text: text}}
	}

	var spans []sectionSpan
	if lead := text[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		spans = append(spans, sectionSpan{name: domain.SectionUnspecified, text: lead})
	}

	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		spans = append(spans, sectionSpan{
			name: strings.TrimSpace(text[m[2]:m[3]]),
			text: text[m[0]:end],
		})
	}

	return spans
}

func chunkText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 {
			if end-start > cfg.Overlap {
				nextStart = end - cfg.Overlap
			}
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}
