// Package worker runs status check and cleanup jobs, either in-process or
// dispatched through Pub/Sub to a separate worker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/monitor"
)

// JobType identifies the work a Job requests.
type JobType string

const (
	// JobStatusCheck probes every monitored website once.
	JobStatusCheck JobType = "status_check"

	// JobCleanup deletes old check results.
	JobCleanup JobType = "cleanup"
)

// ErrUnknownJobType is returned for jobs the executor cannot run.
var ErrUnknownJobType = errors.New("unknown job type")

// Job is the message exchanged between the API and the worker.
type Job struct {
	JobType JobType `json:"job_type"`

	// OlderThanDays overrides the retention for cleanup jobs. Zero keeps the
	// configured retention.
	OlderThanDays int `json:"older_than_days,omitempty"`

	// RequestID correlates the job with the API request that queued it.
	RequestID string `json:"request_id,omitempty"`
}

// Monitor is the part of monitor.Monitor jobs run against.
type Monitor interface {
	CheckAll(ctx context.Context) *monitor.RunResult
	CleanupOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// Executor runs jobs against a monitor.
type Executor struct {
	monitor Monitor
	logger  zerolog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(m Monitor, logger zerolog.Logger) *Executor {
	return &Executor{monitor: m, logger: logger}
}

// Run executes job and reports whether it succeeded. A status check fails
// when any result could not be stored.
func (e *Executor) Run(ctx context.Context, job Job) error {
	logger := e.logger.With().
		Str("job_type", string(job.JobType)).
		Str("request_id", job.RequestID).
		Logger()

	switch job.JobType {
	case JobStatusCheck:
		result := e.monitor.CheckAll(ctx)
		logger.Info().
			Dur("duration", result.Duration).
			Int("total", result.Total).
			Int("online", result.Online).
			Int("failed", result.Failed).
			Msg("status check completed")

		if result.Failed > 0 {
			return fmt.Errorf("status check: %d of %d results not stored", result.Failed, result.Total)
		}
		return nil

	case JobCleanup:
		age := time.Duration(job.OlderThanDays) * 24 * time.Hour
		deleted, err := e.monitor.CleanupOlderThan(ctx, age)
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		logger.Info().Int64("deleted", deleted).Msg("cleanup completed")
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobType, job.JobType)
	}
}
