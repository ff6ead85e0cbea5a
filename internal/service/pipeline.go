package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-labs/claimpilot/internal/domain"
	"github.com/meridian-labs/claimpilot/internal/telemetry"
)

// MinQueryLength is the minimum number of characters a query must contain
// after trimming before it is dispatched to the pipeline.
const MinQueryLength = 5

// embedConcurrency bounds parallel embedding calls during ingestion.
const embedConcurrency = 4

// ReadinessState describes the lifecycle of the pipeline.
type ReadinessState string

const (
	StateUninitialized ReadinessState = "uninitialized"
	StateReady         ReadinessState = "ready"
	StateReindexing    ReadinessState = "reindexing"
)

// PipelineOptions carries the tunables for a Pipeline.
type PipelineOptions struct {
	Chunking      ChunkConfig
	DefaultTopK   int
	LLMRetryLimit int
	LLMTimeout    time.Duration
}

// DefaultPipelineOptions returns the standard tunables.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Chunking:      DefaultChunkConfig(),
		DefaultTopK:   DefaultTopK,
		LLMRetryLimit: DefaultLLMRetryLimit,
		LLMTimeout:    DefaultLLMTimeout,
	}
}

// IngestResult summarizes a completed document ingestion.
type IngestResult struct {
	Generation       string            `json:"generation"`
	FileSizeKB       float64           `json:"file_size_kb"`
	TotalChunks      int               `json:"total_chunks"`
	Statistics       domain.ChunkStats `json:"statistics"`
	SetupTimeSeconds float64           `json:"setup_time_seconds"`
}

// PipelineStatus is a point-in-time view of pipeline readiness.
type PipelineStatus struct {
	State            ReadinessState    `json:"state"`
	Generation       string            `json:"generation,omitempty"`
	IndexedChunks    int               `json:"indexed_chunks"`
	Statistics       domain.ChunkStats `json:"statistics"`
	DocumentSizeKB   float64           `json:"document_size_kb"`
	SetupTimeSeconds float64           `json:"setup_time_seconds"`
	DefaultTopK      int               `json:"default_top_k"`
}

// Pipeline wires chunking, indexing, extraction, retrieval, decision
// synthesis, caching and analytics into the end-to-end claim flow.
//
// The readiness state guards ingestion; query traffic reads the index
// through its atomically swapped generation, so an in-progress reindex
// never blocks or corrupts concurrent queries.
type Pipeline struct {
	chunker   *DocumentChunker
	embedding EmbeddingClient
	parser    *EntityParser
	reasoner  *DecisionReasoner
	retriever *ClauseRetriever
	index     *EmbeddingIndex
	cache     *DecisionCache
	analytics *AnalyticsRecorder
	history   *HistoryRecorder

	defaultTopK int

	mu           sync.RWMutex
	state        ReadinessState
	stats        domain.ChunkStats
	docSizeKB    float64
	setupSeconds float64
}

// NewPipeline builds a Pipeline around the supplied chat and embedding
// capabilities.
func NewPipeline(chat ChatClient, embedding EmbeddingClient, opts PipelineOptions) *Pipeline {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = DefaultTopK
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = DefaultLLMTimeout
	}
	if opts.Chunking.MaxChars <= 0 {
		opts.Chunking = DefaultChunkConfig()
	}

	index := NewEmbeddingIndex()
	return &Pipeline{
		chunker:     NewDocumentChunker(opts.Chunking),
		embedding:   embedding,
		parser:      NewEntityParserWithConfig(chat, opts.LLMRetryLimit, opts.LLMTimeout),
		reasoner:    NewDecisionReasonerWithConfig(chat, opts.LLMRetryLimit, opts.LLMTimeout),
		retriever:   NewClauseRetriever(embedding, index),
		index:       index,
		cache:       NewDecisionCache(),
		analytics:   NewAnalyticsRecorder(),
		history:     NewHistoryRecorder(),
		defaultTopK: opts.DefaultTopK,
		state:       StateUninitialized,
	}
}

// Ingest chunks, embeds and indexes a policy document. On success the new
// generation atomically replaces any previous one and the decision cache is
// invalidated. Queries against an existing generation keep working while
// ingestion runs.
func (p *Pipeline) Ingest(ctx context.Context, text string) (IngestResult, error) {
	p.mu.Lock()
	if p.state == StateReindexing {
		p.mu.Unlock()
		return IngestResult{}, domain.NewDomainError(domain.ErrCodeNotReady, "ingestion already in progress")
	}
	previous := p.state
	p.state = StateReindexing
	p.mu.Unlock()

	restore := func() {
		p.mu.Lock()
		p.state = previous
		p.mu.Unlock()
	}

	ctx, span := telemetry.StartSpan(ctx, "Pipeline.Ingest", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	start := time.Now()

	chunks, err := p.chunker.ChunkDocument(text)
	if err != nil {
		restore()
		if errors.Is(err, domain.ErrEmptyDocument) {
			return IngestResult{}, domain.NewDomainErrorWithCause(domain.ErrCodeParse, "document contains no indexable text", err)
		}
		err = domain.NewDomainErrorWithCause(domain.ErrCodeParse, "document chunking failed", err)
		span.SetError(err)
		return IngestResult{}, err
	}

	indexed := make([]IndexedChunk, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			vector, err := p.embedding.GenerateEmbedding(gctx, chunk.Text)
			if err != nil {
				return err
			}
			indexed[i] = IndexedChunk{Chunk: chunk, Embedding: vector}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		restore()
		err = domain.NewDomainErrorWithCause(domain.ErrCodeInternal, "chunk embedding failed", err)
		span.SetError(err)
		return IngestResult{}, err
	}

	generation := p.index.Rebuild(indexed)
	p.cache.Invalidate()

	stats := p.chunker.Stats(chunks)
	elapsed := roundSeconds(time.Since(start))
	sizeKB := math.Round(float64(len(text))/1024*100) / 100

	p.mu.Lock()
	p.state = StateReady
	p.stats = stats
	p.docSizeKB = sizeKB
	p.setupSeconds = elapsed
	p.mu.Unlock()

	return IngestResult{
		Generation:       generation,
		FileSizeKB:       sizeKB,
		TotalChunks:      len(chunks),
		Statistics:       stats,
		SetupTimeSeconds: elapsed,
	}, nil
}

// ProcessQuery runs one query end to end and reports whether the result was
// served from cache. Identical concurrent queries collapse into a single
// computation; failures are never cached and are never counted in analytics.
func (p *Pipeline) ProcessQuery(ctx context.Context, query string, topK int) (domain.QueryResult, bool, error) {
	trimmed, err := ValidateQuery(query)
	if err != nil {
		return domain.QueryResult{}, false, err
	}

	if p.index.Generation() == "" {
		return domain.QueryResult{}, false, domain.NewDomainErrorWithCause(domain.ErrCodeNotReady, "no document has been ingested", domain.ErrPipelineNotReady)
	}

	if topK <= 0 {
		topK = p.defaultTopK
	}
	effectiveTopK := ClampTopK(topK)

	fingerprint := QueryFingerprint(trimmed, effectiveTopK)

	ctx, span := telemetry.StartSpan(ctx, "Pipeline.ProcessQuery", telemetry.SpanAttributes{
		Operation:   "query",
		Generation:  p.index.Generation(),
		Fingerprint: fingerprint,
	})
	defer span.End()

	result, hit, err := p.cache.GetOrCompute(ctx, fingerprint, func(ctx context.Context) (domain.QueryResult, error) {
		return p.computeResult(ctx, trimmed, effectiveTopK)
	})
	if err != nil {
		span.SetError(err)
		return domain.QueryResult{}, false, err
	}

	p.analytics.RecordDecision(result.Decision.Approved, result.ProcessingTimeSeconds, hit)
	p.history.Record(HistoryEntry{
		Query:                 result.Query,
		Approved:              result.Decision.Approved,
		Amount:                result.Decision.Amount,
		Confidence:            result.Decision.Confidence,
		CacheHit:              hit,
		ProcessingTimeSeconds: result.ProcessingTimeSeconds,
		ProcessedAt:           time.Now().UTC(),
	})
	return result, hit, nil
}

// computeResult runs extraction and retrieval in parallel, then synthesizes
// the decision from both outputs. Both legs depend only on the raw query
// text and the current index generation.
func (p *Pipeline) computeResult(ctx context.Context, query string, topK int) (domain.QueryResult, error) {
	start := time.Now()

	var (
		parsed  domain.ParsedQuery
		clauses []domain.RetrievedClause
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		parsed, err = p.parser.Parse(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		clauses, err = p.retriever.Retrieve(gctx, query, domain.ParsedQuery{}, topK)
		if err != nil {
			var derr *domain.DomainError
			if !errors.As(err, &derr) {
				err = domain.NewDomainErrorWithCause(domain.ErrCodeInternal, "clause retrieval failed", err)
			}
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.QueryResult{}, err
	}

	decision, err := p.reasoner.Decide(ctx, parsed, clauses)
	if err != nil {
		return domain.QueryResult{}, err
	}

	return domain.QueryResult{
		Query:                 query,
		ParsedQuery:           parsed,
		Decision:              decision,
		RetrievedClauses:      clauses,
		ProcessingTimeSeconds: roundSeconds(time.Since(start)),
	}, nil
}

// Status reports the readiness state alongside index and document metadata.
func (p *Pipeline) Status() PipelineStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PipelineStatus{
		State:            p.state,
		Generation:       p.index.Generation(),
		IndexedChunks:    p.index.Size(),
		Statistics:       p.stats,
		DocumentSizeKB:   p.docSizeKB,
		SetupTimeSeconds: p.setupSeconds,
		DefaultTopK:      p.defaultTopK,
	}
}

// Analytics returns the accumulated query counters and current cache size.
func (p *Pipeline) Analytics() domain.AnalyticsSnapshot {
	return p.analytics.Snapshot(p.cache.Size())
}

// History lists recently completed queries, newest first.
func (p *Pipeline) History(limit int) []HistoryEntry {
	return p.history.Recent(limit)
}

// ResetAnalytics zeroes the accumulated counters and the query history.
// Cached results survive a reset.
func (p *Pipeline) ResetAnalytics() {
	p.analytics.Reset()
	p.history.Reset()
}

// ValidateQuery trims the query and enforces the minimum length.
func ValidateQuery(query string) (string, error) {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < MinQueryLength {
		return "", domain.NewDomainError(domain.ErrCodeValidation, "query must be at least 5 characters")
	}
	return trimmed, nil
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
