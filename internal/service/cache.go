package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-labs/claimpilot/internal/domain"
)

// QueryFingerprint derives the cache key for a query. Normalization is
// trim plus lowercase so cosmetic variants of the same question share an
// entry; the effective topK participates because it changes the evidence
// set the decision is based on.
func QueryFingerprint(query string, topK int) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", normalized, topK)))
	return hex.EncodeToString(sum[:])
}

// DecisionCache memoizes completed query results by fingerprint and
// collapses concurrent computations of the same fingerprint into a single
// in-flight execution. The epoch counter fences computations against
// invalidation: a result computed before an Invalidate is never stored
// after it.
type DecisionCache struct {
	mu      sync.RWMutex
	epoch   uint64
	entries map[string]domain.QueryResult
	group   singleflight.Group
}

// NewDecisionCache creates an empty DecisionCache.
func NewDecisionCache() *DecisionCache {
	return &DecisionCache{
		entries: make(map[string]domain.QueryResult),
	}
}

// GetOrCompute returns the cached result for fingerprint, or runs compute
// exactly once across concurrent callers and stores the result on success.
// The returned hit flag reports whether the result was served from the
// completed-entry store. Failed computations leave no entry behind.
func (c *DecisionCache) GetOrCompute(ctx context.Context, fingerprint string, compute func(ctx context.Context) (domain.QueryResult, error)) (domain.QueryResult, bool, error) {
	c.mu.RLock()
	cached, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if ok {
		return cached, true, nil
	}

	// computed stays false for callers that join another caller's flight,
	// since only the first caller's function runs. Those joiners are hits
	// for accounting purposes.
	computed := false
	value, err, _ := c.group.Do(fingerprint, func() (any, error) {
		// Re-check under the flight: a previous flight may have
		// completed between the read above and this execution.
		c.mu.RLock()
		existing, ok := c.entries[fingerprint]
		epoch := c.epoch
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}

		computed = true
		result, err := compute(ctx)
		if err != nil {
			return domain.QueryResult{}, err
		}

		c.mu.Lock()
		if c.epoch == epoch {
			c.entries[fingerprint] = result
		} else {
			// Invalidated mid-flight: the result was reasoned over
			// evicted state. Serve it to the waiting callers but do
			// not store it, and forget the flight so later callers
			// start a fresh computation instead of joining this one.
			c.group.Forget(fingerprint)
		}
		c.mu.Unlock()

		return result, nil
	})
	if err != nil {
		return domain.QueryResult{}, false, err
	}

	return value.(domain.QueryResult), !computed, nil
}

// Get returns the cached result for fingerprint without computing.
func (c *DecisionCache) Get(fingerprint string) (domain.QueryResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.entries[fingerprint]
	return result, ok
}

// Invalidate drops all cached entries and advances the epoch so in-flight
// computations cannot store their results afterwards. Called when the
// indexed document changes, since prior decisions were reasoned over stale
// clauses.
func (c *DecisionCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[string]domain.QueryResult)
}

// Size reports the number of completed cached entries.
func (c *DecisionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
