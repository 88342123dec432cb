package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/verify"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	VerifyJob        *VerifyJob
	Logger           zerolog.Logger
}

// JobMessage is the payload of a worker job message.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// A verification takes at most two canary queries, so keep few in flight.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 2
	subscriber.ReceiveSettings.MaxExtension = 5 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       NewDispatcher(cfg.VerifyJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	if err := h.dispatcher.Handle(logger.WithContext(ctx), msg.Data); err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}
	msg.Ack()
}

// Dispatcher routes job messages to the watchdog. A nil error from Handle
// means the message should be acked.
type Dispatcher struct {
	job    *VerifyJob
	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher for job.
func NewDispatcher(job *VerifyJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{job: job, logger: logger}
}

// Handle decodes data and runs the requested job.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) error {
	startTime := time.Now()

	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	var err error
	switch msg.JobType {
	case JobTypeVerifyEndpoint:
		err = d.handleVerifyEndpoint(ctx)
	case JobTypeHealthCheck:
		err = d.handleHealthCheck(ctx)
	default:
		// Ack unknown messages to prevent redelivery.
		d.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
	if err != nil {
		return err
	}

	d.logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	return nil
}

// handleVerifyEndpoint fails only on errors a redelivery could fix. A wrong
// ruleset is an operator problem and is acked.
func (d *Dispatcher) handleVerifyEndpoint(ctx context.Context) error {
	result, err := d.job.Run(ctx)
	if err != nil {
		return err
	}
	if result.Outcome == verify.OutcomeTransportError {
		return fmt.Errorf("verify endpoint: %w", result.Err)
	}
	return nil
}

// handleHealthCheck makes sure the config store is reachable.
func (d *Dispatcher) handleHealthCheck(ctx context.Context) error {
	if _, err := d.job.store.Load(ctx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	d.logger.Debug().Msg("health check passed")
	return nil
}
