// Package cache provides an in-memory TTL cache for query results.
//
// The cache is process-memory only and starts empty. It is safe only
// under single-threaded or externally synchronized use; callers sharing
// one instance across goroutines must serialize access themselves.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultTTL is the entry lifetime used when none is configured.
const DefaultTTL = time.Hour

type entry struct {
	rows    []map[string]any
	created time.Time
}

// QueryCache maps (query text, parameter set) pairs to previously
// fetched result rows with a fixed time-to-live. A Get on an expired
// entry evicts it and reports a miss in the same call, so no caller ever
// observes expired data; CleanupExpired is an optional compaction, not
// required for correctness.
type QueryCache struct {
	entries map[string]entry
	ttl     time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// New creates a cache with the given TTL. Non-positive TTLs fall back to
// DefaultTTL.
func New(ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &QueryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// key digests the query text and the sorted parameter set. Collisions
// are accepted at hash strength; at this scale they are not a
// correctness concern.
func key(query string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(query)
	for _, k := range keys {
		fmt.Fprintf(&b, ":%s=%v", k, params[k])
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached rows for the query and parameters, or
// (nil, false) when absent or expired. Expired entries are evicted on
// the spot.
func (c *QueryCache) Get(query string, params map[string]any) ([]map[string]any, bool) {
	k := key(query, params)

	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.created) >= c.ttl {
		delete(c.entries, k)
		return nil, false
	}
	return e.rows, true
}

// Set stores rows for the query and parameters.
func (c *QueryCache) Set(query string, params map[string]any, rows []map[string]any) {
	c.entries[key(query, params)] = entry{rows: rows, created: c.now()}
}

// Clear removes all entries.
func (c *QueryCache) Clear() {
	c.entries = make(map[string]entry)
}

// Size returns the number of entries, expired ones included.
func (c *QueryCache) Size() int {
	return len(c.entries)
}

// CleanupExpired removes entries older than the TTL in a single linear
// sweep and returns how many were removed.
func (c *QueryCache) CleanupExpired() int {
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.created) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
