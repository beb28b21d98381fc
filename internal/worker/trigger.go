package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// DefaultJobTimeout bounds jobs run by LocalTrigger.
const DefaultJobTimeout = 2 * time.Minute

// Trigger queues a job for asynchronous execution. It returns once the job
// is accepted, not when it completes.
type Trigger interface {
	Trigger(ctx context.Context, job Job) error
}

// LocalTrigger runs jobs in background goroutines of the current process.
// A job of a type that is already running is coalesced into the running one.
type LocalTrigger struct {
	executor *Executor
	timeout  time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	inFlight map[JobType]bool
	wg       sync.WaitGroup
}

// NewLocalTrigger creates a trigger that runs jobs with executor.
func NewLocalTrigger(executor *Executor, timeout time.Duration, logger zerolog.Logger) *LocalTrigger {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &LocalTrigger{
		executor: executor,
		timeout:  timeout,
		logger:   logger,
		inFlight: make(map[JobType]bool),
	}
}

// Trigger starts job in the background. The job outlives the request context.
func (t *LocalTrigger) Trigger(ctx context.Context, job Job) error {
	t.mu.Lock()
	if t.inFlight[job.JobType] {
		t.mu.Unlock()
		t.logger.Debug().Str("job_type", string(job.JobType)).Msg("job already running, coalescing")
		return nil
	}
	t.inFlight[job.JobType] = true
	t.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		defer func() {
			t.mu.Lock()
			delete(t.inFlight, job.JobType)
			t.mu.Unlock()
		}()

		if err := t.executor.Run(jobCtx, job); err != nil {
			t.logger.Error().Err(err).Str("job_type", string(job.JobType)).Msg("job failed")
		}
	}()

	return nil
}

// Wait blocks until all started jobs have finished.
func (t *LocalTrigger) Wait() {
	t.wg.Wait()
}

// PubSubTrigger publishes jobs to a Pub/Sub topic consumed by the worker.
type PubSubTrigger struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewPubSubTrigger creates a trigger publishing to topic in projectID.
func NewPubSubTrigger(ctx context.Context, projectID, topic string, logger zerolog.Logger) (*PubSubTrigger, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubTrigger{
		client:    client,
		publisher: client.Publisher(topic),
		topic:     topic,
		logger:    logger,
	}, nil
}

// Trigger publishes job and waits for the server to acknowledge it.
func (t *PubSubTrigger) Trigger(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}

	result := t.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"job_type": string(job.JobType)},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing %s job: %w", job.JobType, err)
	}

	t.logger.Debug().
		Str("message_id", id).
		Str("topic", t.topic).
		Str("job_type", string(job.JobType)).
		Msg("job published")

	return nil
}

// Close flushes pending messages and closes the client.
func (t *PubSubTrigger) Close() error {
	t.publisher.Stop()
	return t.client.Close()
}
