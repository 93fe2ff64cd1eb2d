package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paklog/wave-planning-service/pkg/cloudevents"
	"github.com/paklog/wave-planning-service/pkg/logging"
	"github.com/paklog/wave-planning-service/pkg/metrics"
)

// Transport delivers a CloudEvent to a topic. The key controls
// partitioning so events for one aggregate stay ordered.
type Transport interface {
	Publish(ctx context.Context, topic, key string, event *cloudevents.WaveCloudEvent) error
}

// RelayConfig holds configuration for the outbox relay
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
}

// DefaultRelayConfig returns default configuration
func DefaultRelayConfig() *RelayConfig {
	return &RelayConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   DefaultMaxRetries,
	}
}

// Relay moves outbox records onto the transport. Delivery is
// at-least-once: marking can fail after a successful publish, so
// consumers must dedupe on the outboxid extension, which is stable
// across redeliveries.
type Relay struct {
	repo    Repository
	factory *cloudevents.EventFactory
	trans   Transport
	logger  *logging.Logger
	metrics *metrics.Metrics
	config  *RelayConfig

	mu           sync.Mutex
	running      bool
	stopCh       chan struct{}
	stoppedCh    chan struct{}
	publishedCnt int
	failedCnt    int
}

// NewRelay creates a new outbox relay
func NewRelay(
	repo Repository,
	factory *cloudevents.EventFactory,
	trans Transport,
	logger *logging.Logger,
	m *metrics.Metrics,
	config *RelayConfig,
) *Relay {
	if config == nil {
		config = DefaultRelayConfig()
	}

	return &Relay{
		repo:      repo,
		factory:   factory,
		trans:     trans,
		logger:    logger,
		metrics:   m,
		config:    config,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start starts the relay loop
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("relay already running")
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info("Starting outbox relay",
		"interval", r.config.PollInterval,
		"batchSize", r.config.BatchSize,
		"maxRetries", r.config.MaxRetries,
	)

	go r.run(ctx)
	return nil
}

// Stop stops the relay and waits for the loop to exit
func (r *Relay) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("relay not running")
	}
	r.mu.Unlock()

	close(r.stopCh)
	<-r.stoppedCh

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	r.logger.Info("Outbox relay stopped", "published", r.publishedCnt, "failed", r.failedCnt)
	return nil
}

func (r *Relay) run(ctx context.Context) {
	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.processBatch(ctx)
		case <-r.stopCh:
			return
		case <-ctx.Done():
			r.logger.Info("Outbox relay context cancelled")
			return
		}
	}
}

// processBatch publishes one batch of deliverable records. Records are
// handled one by one so a single bad record never blocks the rest.
func (r *Relay) processBatch(ctx context.Context) {
	start := time.Now()

	events, err := r.repo.FindPending(ctx, r.config.BatchSize)
	if err != nil {
		r.logger.WithError(err).Error("Failed to find pending outbox events")
		return
	}

	retryable, err := r.repo.FindFailedForRetry(ctx, r.config.MaxRetries, r.config.BatchSize)
	if err != nil {
		r.logger.WithError(err).Error("Failed to find retryable outbox events")
	} else {
		events = append(events, retryable...)
	}

	if r.metrics != nil {
		r.metrics.SetOutboxPending(len(events))
	}

	if len(events) == 0 {
		return
	}

	for _, event := range events {
		r.deliver(ctx, event)
	}

	if r.metrics != nil {
		r.metrics.RecordOutboxRelayCycle(len(events), time.Since(start))
	}
}

func (r *Relay) deliver(ctx context.Context, event *Event) {
	// A record can carry a tighter budget than the relay config; skip
	// anything that is no longer deliverable.
	if !event.ShouldRetry() {
		return
	}

	start := time.Now()
	err := r.publish(ctx, event)
	duration := time.Since(start)

	if err != nil {
		event.RecordFailure(err)

		r.mu.Lock()
		r.failedCnt++
		r.mu.Unlock()

		r.logger.WithError(err).Error("Failed to publish outbox event",
			"eventId", event.ID,
			"eventType", event.EventType,
			"aggregateId", event.AggregateID,
			"retryCount", event.RetryCount,
		)
		if r.metrics != nil {
			r.metrics.RecordOutboxPublish(event.EventType, false, duration)
		}
		if markErr := r.repo.MarkFailed(ctx, event.ID, event.LastError); markErr != nil {
			r.logger.WithError(markErr).Error("Failed to mark outbox event failed", "eventId", event.ID)
		}
		return
	}

	r.mu.Lock()
	r.publishedCnt++
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordOutboxPublish(event.EventType, true, duration)
	}
	if markErr := r.repo.MarkPublished(ctx, event.ID); markErr != nil {
		// The event went out; a redelivery on the next cycle is the
		// acceptable outcome here.
		r.logger.WithError(markErr).Error("Failed to mark outbox event published", "eventId", event.ID)
	}
}

// publish wraps the record payload in a CloudEvents envelope and ships it
func (r *Relay) publish(ctx context.Context, event *Event) error {
	cloudEvent := r.factory.CreateEvent(ctx, event.EventType, event.AggregateID, event.Payload)
	cloudEvent.SetExtension(cloudevents.ExtAggregateID, event.AggregateID)
	cloudEvent.SetExtension(cloudevents.ExtOutboxID, event.ID)

	if err := r.trans.Publish(ctx, event.Topic, event.AggregateID, cloudEvent); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", event.Topic, err)
	}

	r.logger.Debug("Published outbox event",
		"eventId", event.ID,
		"eventType", event.EventType,
		"topic", event.Topic,
		"aggregateId", event.AggregateID,
	)
	return nil
}

// IsRunning returns whether the relay is running
func (r *Relay) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stats returns relay statistics
func (r *Relay) Stats() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]int{
		"published": r.publishedCnt,
		"failed":    r.failedCnt,
	}
}
