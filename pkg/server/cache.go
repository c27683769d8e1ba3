package server

import (
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// resultCache keeps the ranked results of recent searches. Search over an
// immutable collection is pure, so entries never go stale; the least
// recently used one is evicted when the cache is full.
type resultCache struct {
	entries map[string]*cacheEntry
	maxSize int
	clock   int64
	hits    int
	misses  int
	mu      sync.Mutex
}

type cacheEntry struct {
	results  []SearchResult
	lastUsed int64
}

// newResultCache returns nil for a non-positive size; a nil cache never hits.
func newResultCache(maxSize int) *resultCache {
	if maxSize <= 0 {
		return nil
	}
	return &resultCache{
		entries: make(map[string]*cacheEntry, maxSize),
		maxSize: maxSize,
	}
}

// cacheKey folds the query the same way the ranker does.
func cacheKey(geometry, query string) string {
	return geometry + "\x00" + strings.ToLower(query)
}

func (rc *resultCache) get(key string) ([]SearchResult, bool) {
	if rc == nil {
		return nil, false
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	entry, ok := rc.entries[key]
	if !ok {
		rc.misses++
		return nil, false
	}
	rc.hits++
	entry.lastUsed = rc.tick()
	return entry.results, true
}

// put stores results. The slice must not be modified afterwards.
func (rc *resultCache) put(key string, results []SearchResult) {
	if rc == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, ok := rc.entries[key]; !ok && len(rc.entries) >= rc.maxSize {
		rc.evictLRU()
	}
	rc.entries[key] = &cacheEntry{results: results, lastUsed: rc.tick()}
}

func (rc *resultCache) tick() int64 {
	rc.clock++
	return rc.clock
}

func (rc *resultCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, entry := range rc.entries {
		if entry.lastUsed < oldestTime {
			oldestTime = entry.lastUsed
			oldestKey = key
		}
	}

	if oldestTime != math.MaxInt64 {
		delete(rc.entries, oldestKey)
		log.Debugf("Evicted %q from result cache", oldestKey)
	}
}

// Stats returns the cache counters; a nil cache reports zeros.
func (rc *resultCache) Stats() map[string]int {
	if rc == nil {
		return map[string]int{"entries": 0, "maxEntries": 0, "hits": 0, "misses": 0}
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return map[string]int{
		"entries":    len(rc.entries),
		"maxEntries": rc.maxSize,
		"hits":       rc.hits,
		"misses":     rc.misses,
	}
}
