package website

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Used in tests and when no database is configured.
type InMemoryRepository struct {
	mu      sync.RWMutex
	results []*CheckResult
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Insert stores a check result.
func (r *InMemoryRepository) Insert(_ context.Context, result *CheckResult) error {
	if err := result.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *result
	r.results = append(r.results, &stored)
	return nil
}

// Latest returns the most recent result for a website.
func (r *InMemoryRepository) Latest(_ context.Context, website string) (*CheckResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *CheckResult
	for _, res := range r.results {
		if res.Website != website {
			continue
		}
		if latest == nil || !res.CheckedAt.Before(latest.CheckedAt) {
			latest = res
		}
	}
	if latest == nil {
		return nil, ErrNoStatusData
	}

	out := *latest
	return &out, nil
}

// ListBetween returns all results checked in [from, to), oldest first.
func (r *InMemoryRepository) ListBetween(_ context.Context, from, to time.Time) ([]*CheckResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*CheckResult
	for _, res := range r.results {
		if res.CheckedAt.Before(from) || !res.CheckedAt.Before(to) {
			continue
		}
		c := *res
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CheckedAt.Before(out[j].CheckedAt)
	})
	return out, nil
}

// DeleteOlderThan removes results created before cutoff.
func (r *InMemoryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.results)
	// DeleteFunc zeroes the vacated tail so removed results can be collected.
	r.results = slices.DeleteFunc(r.results, func(res *CheckResult) bool {
		return res.CreatedAt.Before(cutoff)
	})
	deleted := int64(before - len(r.results))
	return deleted, nil
}

// Ping always succeeds for the in-memory repository.
func (r *InMemoryRepository) Ping(_ context.Context) error {
	return nil
}

// Len returns the number of stored results.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.results)
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
