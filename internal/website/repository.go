package website

import (
	"context"
	"time"
)

// Repository defines the interface for check-result storage.
type Repository interface {
	// Insert stores a check result.
	Insert(ctx context.Context, result *CheckResult) error

	// Latest returns the most recent result for a website.
	// Returns ErrNoStatusData when the website has never been checked.
	Latest(ctx context.Context, website string) (*CheckResult, error)

	// ListBetween returns all results checked in [from, to), oldest first.
	ListBetween(ctx context.Context, from, to time.Time) ([]*CheckResult, error)

	// DeleteOlderThan removes results created before cutoff and returns the count.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error
}
