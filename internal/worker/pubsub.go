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

// Job types accepted on the subscription.
const (
	JobTypeLiveDataRefresh = "livedata_refresh"
	JobTypeHealthCheck     = "health_check"
)

// Handling errors.
var (
	ErrMalformedMessage = errors.New("malformed job message")
	ErrUnknownJobType   = errors.New("unknown job type")
)

// JobMessage is the payload of a worker job.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Routes optionally narrows a refresh to the given district pairs.
	Routes []RouteTarget `json:"routes,omitempty"`

	// HorizonDays overrides the configured horizon when set.
	HorizonDays *int `json:"horizon_days,omitempty"`
}

// Dispatcher runs jobs described by JobMessage payloads.
type Dispatcher struct {
	refreshJob *RefreshJob
	logger     zerolog.Logger
}

// NewDispatcher creates a Dispatcher that runs refreshes with job's
// refresher and configuration.
func NewDispatcher(job *RefreshJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{refreshJob: job, logger: logger}
}

// Handle decodes and runs one job. Undecodable payloads return
// ErrMalformedMessage and unrecognized job types ErrUnknownJobType.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.JobType {
	case JobTypeLiveDataRefresh:
		return d.handleRefresh(ctx, msg)
	case JobTypeHealthCheck:
		return d.handleHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobType, msg.JobType)
	}
}

func (d *Dispatcher) handleRefresh(ctx context.Context, msg JobMessage) error {
	job := d.refreshJob
	if len(msg.Routes) > 0 || msg.HorizonDays != nil {
		cfg := job.Config()
		if len(msg.Routes) > 0 {
			cfg.Routes = msg.Routes
		}
		if msg.HorizonDays != nil {
			cfg.HorizonDays = *msg.HorizonDays
		}
		job = NewRefreshJob(RefreshJobConfig{
			Config:    cfg,
			Logger:    d.logger,
			Refresher: job.refresher,
			Now:       job.now,
		})
	}

	result := job.Run(ctx)

	// Consider it successful unless most fetches failed.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalTasks)
	}
	return nil
}

func (d *Dispatcher) handleHealthCheck(ctx context.Context) error {
	routes := d.refreshJob.Config().Routes
	check := NewRefreshJob(RefreshJobConfig{
		Config: RefreshConfig{
			Routes:      routes[:1],
			Concurrency: 1,
			Timeout:     10 * time.Second,
			HorizonDays: 0,
		},
		Logger:    d.logger,
		Refresher: d.refreshJob.refresher,
		Now:       d.refreshJob.now,
	})

	result := check.Run(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %s", result.Errors[0].Error)
	}

	d.logger.Debug().Msg("health check passed")
	return nil
}

// PubSubHandler receives jobs from a Pub/Sub subscription.
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
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       NewDispatcher(cfg.RefreshJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start receives messages until ctx is cancelled.
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
	start := time.Now()
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	err := h.dispatcher.Handle(ctx, msg.Data)
	if ShouldAck(err) {
		if err != nil {
			logger.Warn().Err(err).Msg("dropping job message")
		} else {
			logger.Info().Dur("duration", time.Since(start)).Msg("job completed successfully")
		}
		msg.Ack()
		return
	}

	logger.Error().Err(err).Msg("job failed")
	msg.Nack()
}

// ShouldAck reports whether a message that produced err should be
// acknowledged. Unknown job types are acked so they are not redelivered;
// malformed payloads and failed jobs are nacked.
func ShouldAck(err error) bool {
	return err == nil || errors.Is(err, ErrUnknownJobType)
}
