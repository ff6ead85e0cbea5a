package service

import (
	"sync"
	"time"

	"github.com/meridian-labs/claimpilot/internal/domain"
)

const (
	// DefaultHistoryLimit is returned when the caller does not bound the
	// listing.
	DefaultHistoryLimit = 10

	// maxHistoryEntries bounds retained history; older entries roll off.
	maxHistoryEntries = 50
)

// HistoryEntry is one completed query in the listing, newest first.
type HistoryEntry struct {
	Query                 string            `json:"query"`
	Approved              bool              `json:"approved"`
	Amount                *int              `json:"amount,omitempty"`
	Confidence            domain.Confidence `json:"confidence"`
	CacheHit              bool              `json:"cache_hit"`
	ProcessingTimeSeconds float64           `json:"processing_time_seconds"`
	ProcessedAt           time.Time         `json:"processed_at"`
}

// HistoryRecorder keeps a bounded log of completed queries. Like analytics,
// only queries that produced a decision are recorded.
type HistoryRecorder struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

// NewHistoryRecorder creates an empty recorder.
func NewHistoryRecorder() *HistoryRecorder {
	return &HistoryRecorder{}
}

// Record appends one completed query, evicting the oldest entry once the
// retention bound is reached.
func (h *HistoryRecorder) Record(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[len(h.entries)-maxHistoryEntries:]
	}
}

// Recent returns up to limit entries, newest first. A non-positive limit
// falls back to the default.
func (h *HistoryRecorder) Recent(limit int) []HistoryEntry {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if limit > len(h.entries) {
		limit = len(h.entries)
	}

	out := make([]HistoryEntry, 0, limit)
	for i := len(h.entries) - 1; i >= len(h.entries)-limit; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

// Reset drops all retained entries.
func (h *HistoryRecorder) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
