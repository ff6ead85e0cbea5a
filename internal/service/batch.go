package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-labs/claimpilot/internal/domain"
	"github.com/meridian-labs/claimpilot/internal/telemetry"
)

const (
	// MinBatchSize and MaxBatchSize bound the post-filter batch length.
	MinBatchSize = 1
	MaxBatchSize = 50

	// DefaultBatchConcurrency caps the worker pool; batches smaller than
	// the cap use one worker per item.
	DefaultBatchConcurrency = 8
)

// BatchItemResult is the per-query outcome inside a batch. Exactly one of
// Result and Error is set.
type BatchItemResult struct {
	Query     string              `json:"query"`
	Result    *domain.QueryResult `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
	ErrorCode string              `json:"error_code,omitempty"`
	CacheHit  bool                `json:"cache_hit"`
	Cancelled bool                `json:"cancelled,omitempty"`
}

// BatchResult aggregates a full batch run. Results preserve the order of
// the filtered input queries regardless of completion order.
type BatchResult struct {
	Total            int               `json:"total"`
	TotalTimeSeconds float64           `json:"total_time_seconds"`
	AvgTimeSeconds   float64           `json:"avg_time_seconds"`
	Results          []BatchItemResult `json:"results"`
}

// QueryRunner is the single-query pipeline surface the coordinator fans out
// over.
type QueryRunner interface {
	ProcessQuery(ctx context.Context, query string, topK int) (domain.QueryResult, bool, error)
}

// BatchCoordinator fans batches of queries out over the pipeline under a
// bounded worker pool.
type BatchCoordinator struct {
	runner      QueryRunner
	concurrency int
}

// NewBatchCoordinator creates a coordinator. A non-positive concurrency
// falls back to the default cap.
func NewBatchCoordinator(runner QueryRunner, concurrency int) *BatchCoordinator {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &BatchCoordinator{runner: runner, concurrency: concurrency}
}

// Process filters out queries below the minimum length, validates the
// remaining batch size, then runs every query through the pipeline. A
// failure on one item never aborts its siblings. If ctx is cancelled,
// items already dispatched run to completion and undispatched items are
// marked cancelled and excluded from the aggregates.
func (b *BatchCoordinator) Process(ctx context.Context, queries []string, topK int) (BatchResult, error) {
	filtered := make([]string, 0, len(queries))
	for _, q := range queries {
		trimmed := strings.TrimSpace(q)
		if len(trimmed) >= MinQueryLength {
			filtered = append(filtered, trimmed)
		}
	}

	if len(filtered) < MinBatchSize {
		return BatchResult{}, domain.ErrEmptyBatch
	}
	if len(filtered) > MaxBatchSize {
		return BatchResult{}, domain.ErrBatchTooLarge
	}

	ctx, span := telemetry.StartSpan(ctx, "BatchCoordinator.Process", telemetry.SpanAttributes{
		Operation: "batch",
	})
	defer span.End()

	start := time.Now()

	results := make([]BatchItemResult, len(filtered))

	workers := b.concurrency
	if len(filtered) < workers {
		workers = len(filtered)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, query := range filtered {
		i, query := i, query
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = BatchItemResult{
					Query:     query,
					Error:     domain.ErrItemCancelled.Message,
					ErrorCode: domain.ErrItemCancelled.Code,
					Cancelled: true,
				}
				return nil
			}

			// A dispatched item finishes even if the batch caller
			// goes away mid-flight.
			itemCtx := context.WithoutCancel(ctx)
			result, hit, err := b.runner.ProcessQuery(itemCtx, query, topK)
			if err != nil {
				results[i] = BatchItemResult{
					Query:     query,
					Error:     err.Error(),
					ErrorCode: errorCode(err),
				}
				return nil
			}

			results[i] = BatchItemResult{
				Query:    query,
				Result:   &result,
				CacheHit: hit,
			}
			return nil
		})
	}
	g.Wait()

	var (
		total     int
		succeeded int
		totalSecs float64
	)
	for _, item := range results {
		if item.Cancelled {
			continue
		}
		total++
		if item.Result != nil {
			succeeded++
			totalSecs += item.Result.ProcessingTimeSeconds
		}
	}

	var avg float64
	if succeeded > 0 {
		avg = totalSecs / float64(succeeded)
	}

	return BatchResult{
		Total:            total,
		TotalTimeSeconds: roundSeconds(time.Since(start)),
		AvgTimeSeconds:   avg,
		Results:          results,
	}, nil
}

func errorCode(err error) string {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		return derr.Code
	}
	return domain.ErrCodeInternal
}
