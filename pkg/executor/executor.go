// Package executor runs Cypher queries against the graph store with a
// read-side result cache and a small error taxonomy callers can branch
// on with errors.Is.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/graphrx/medadvisor/pkg/cache"
	"github.com/graphrx/medadvisor/pkg/driver"
	"github.com/graphrx/medadvisor/pkg/queries"
)

var (
	// ErrDatabase marks connectivity and store-side failures.
	ErrDatabase = errors.New("database error")

	// ErrQuery marks a query that the store rejected.
	ErrQuery = errors.New("query error")

	// ErrMedicationNotFound is returned by lookups that resolved no
	// medication.
	ErrMedicationNotFound = errors.New("medication not found")

	// ErrPatientNotFound is returned by lookups that resolved no patient.
	ErrPatientNotFound = errors.New("patient not found")
)

// Executor runs queries through a Runner and caches read results. It is
// safe for concurrent use; the cache is guarded by a mutex.
type Executor struct {
	runner driver.Runner
	logger *slog.Logger

	mu    sync.Mutex
	cache *cache.QueryCache
}

// New creates an executor over the given runner and cache. A nil cache
// disables caching.
func New(runner driver.Runner, queryCache *cache.QueryCache, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		runner: runner,
		cache:  queryCache,
		logger: logger,
	}
}

// Read executes a read query, consulting the cache first. Hits skip the
// store entirely; misses are fetched and stored with the cache TTL.
func (e *Executor) Read(ctx context.Context, q queries.Query) ([]map[string]any, error) {
	if e.cache != nil {
		e.mu.Lock()
		rows, ok := e.cache.Get(q.Text, q.Params)
		e.mu.Unlock()
		if ok {
			e.logger.Debug("query cache hit")
			return rows, nil
		}
	}

	rows, err := e.runner.Read(ctx, q.Text, q.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if e.cache != nil {
		e.mu.Lock()
		e.cache.Set(q.Text, q.Params, rows)
		e.mu.Unlock()
	}
	return rows, nil
}

// Write executes a mutating query. Writes never touch the cache.
func (e *Executor) Write(ctx context.Context, q queries.Query) ([]map[string]any, error) {
	rows, err := e.runner.Write(ctx, q.Text, q.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return rows, nil
}

// VerifyConnectivity checks the store is reachable, wrapping failures in
// ErrDatabase.
func (e *Executor) VerifyConnectivity(ctx context.Context) error {
	if err := e.runner.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// ClearCache drops every cached result.
func (e *Executor) ClearCache() {
	if e.cache == nil {
		return
	}
	e.mu.Lock()
	e.cache.Clear()
	e.mu.Unlock()
	e.logger.Debug("query cache cleared")
}

// CleanupCache removes expired cache entries and returns how many were
// dropped.
func (e *Executor) CleanupCache() int {
	if e.cache == nil {
		return 0
	}
	e.mu.Lock()
	removed := e.cache.CleanupExpired()
	e.mu.Unlock()
	return removed
}

// CacheSize returns the number of cached entries.
func (e *Executor) CacheSize() int {
	if e.cache == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Size()
}

// Close releases the underlying store connection.
func (e *Executor) Close(ctx context.Context) error {
	return e.runner.Close(ctx)
}
