package service

import (
	"sync"

	"github.com/meridian-labs/claimpilot/internal/domain"
)

// AnalyticsRecorder accumulates query-level counters and a running mean of
// processing time. Only queries that produced a decision are counted; hard
// failures before a decision leave the counters untouched.
type AnalyticsRecorder struct {
	mu            sync.Mutex
	totalQueries  int64
	approvedCount int64
	rejectedCount int64
	cacheHits     int64
	totalSeconds  float64
}

// NewAnalyticsRecorder creates a recorder with all counters at zero.
func NewAnalyticsRecorder() *AnalyticsRecorder {
	return &AnalyticsRecorder{}
}

// RecordDecision accounts for one completed query.
func (a *AnalyticsRecorder) RecordDecision(approved bool, processingSeconds float64, cacheHit bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalQueries++
	if approved {
		a.approvedCount++
	} else {
		a.rejectedCount++
	}
	if cacheHit {
		a.cacheHits++
	}
	a.totalSeconds += processingSeconds
}

// Snapshot returns a point-in-time copy of the counters. The cache size is
// supplied by the caller since the cache is owned elsewhere.
func (a *AnalyticsRecorder) Snapshot(cacheSize int) domain.AnalyticsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	var avg float64
	if a.totalQueries > 0 {
		avg = a.totalSeconds / float64(a.totalQueries)
	}

	return domain.AnalyticsSnapshot{
		TotalQueries:             a.totalQueries,
		ApprovedCount:            a.approvedCount,
		RejectedCount:            a.rejectedCount,
		AvgProcessingTimeSeconds: avg,
		CacheHits:                a.cacheHits,
		CacheSize:                cacheSize,
	}
}

// Reset zeroes every counter.
func (a *AnalyticsRecorder) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalQueries = 0
	a.approvedCount = 0
	a.rejectedCount = 0
	a.cacheHits = 0
	a.totalSeconds = 0
}
