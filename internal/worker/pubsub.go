package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler consumes job messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	executor         *Executor
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Executor         *Executor
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// A status check probes every site; a handful in parallel is plenty.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 5 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		executor:         cfg.Executor,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if HandleMessage(ctx, h.executor, h.logger, msg.ID, msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// HandleMessage decodes and runs one job message and reports whether it
// should be acked. Malformed payloads are nacked; unknown job types are acked
// to prevent redelivery.
func HandleMessage(ctx context.Context, executor *Executor, logger zerolog.Logger, id string, data []byte) bool {
	start := time.Now()
	logger = logger.With().Str("message_id", id).Logger()

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return false
	}

	if err := executor.Run(ctx, job); err != nil {
		if errors.Is(err, ErrUnknownJobType) {
			logger.Warn().Str("job_type", string(job.JobType)).Msg("unknown job type")
			return true
		}
		logger.Error().Err(err).Str("job_type", string(job.JobType)).Msg("job failed")
		return false
	}

	logger.Info().
		Str("job_type", string(job.JobType)).
		Dur("duration", time.Since(start)).
		Msg("job completed successfully")
	return true
}
