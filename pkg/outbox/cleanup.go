package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paklog/wave-planning-service/pkg/logging"
	"github.com/paklog/wave-planning-service/pkg/metrics"
)

// failedBacklogWarnThreshold is the FAILED count above which the
// cleanup job starts warning; those records need operator attention.
const failedBacklogWarnThreshold = 100

// CleanupConfig holds configuration for the outbox cleanup job
type CleanupConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() *CleanupConfig {
	return &CleanupConfig{
		Interval:  1 * time.Hour,
		Retention: 7 * 24 * time.Hour,
	}
}

// Cleanup periodically removes PUBLISHED records past their retention
// window and reports outbox backlog counts. PENDING and FAILED records
// are never deleted.
type Cleanup struct {
	repo    Repository
	logger  *logging.Logger
	metrics *metrics.Metrics
	config  *CleanupConfig

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewCleanup creates a new outbox cleanup job
func NewCleanup(repo Repository, logger *logging.Logger, m *metrics.Metrics, config *CleanupConfig) *Cleanup {
	if config == nil {
		config = DefaultCleanupConfig()
	}

	return &Cleanup{
		repo:      repo,
		logger:    logger,
		metrics:   m,
		config:    config,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start starts the cleanup loop
func (c *Cleanup) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("cleanup already running")
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Info("Starting outbox cleanup",
		"interval", c.config.Interval,
		"retention", c.config.Retention,
	)

	go c.run(ctx)
	return nil
}

// Stop stops the cleanup job and waits for the loop to exit
func (c *Cleanup) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return fmt.Errorf("cleanup not running")
	}
	c.mu.Unlock()

	close(c.stopCh)
	<-c.stoppedCh

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.logger.Info("Outbox cleanup stopped")
	return nil
}

func (c *Cleanup) run(ctx context.Context) {
	defer close(c.stoppedCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.RunOnce(ctx)
		case <-c.stopCh:
			return
		case <-ctx.Done():
			c.logger.Info("Outbox cleanup context cancelled")
			return
		}
	}
}

// RunOnce executes a single cleanup pass
func (c *Cleanup) RunOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-c.config.Retention)

	deleted, err := c.repo.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		c.logger.WithError(err).Error("Failed to delete published outbox events")
	} else if deleted > 0 {
		c.logger.Info("Deleted published outbox events", "count", deleted, "cutoff", cutoff)
	}

	pending, err := c.repo.CountByStatus(ctx, StatusPending)
	if err != nil {
		c.logger.WithError(err).Error("Failed to count pending outbox events")
		return
	}
	failed, err := c.repo.CountByStatus(ctx, StatusFailed)
	if err != nil {
		c.logger.WithError(err).Error("Failed to count failed outbox events")
		return
	}
	published, err := c.repo.CountByStatus(ctx, StatusPublished)
	if err != nil {
		c.logger.WithError(err).Error("Failed to count published outbox events")
		return
	}

	if c.metrics != nil {
		c.metrics.SetOutboxBacklog(pending, failed)
	}

	c.logger.Info("Outbox status",
		"pending", pending,
		"failed", failed,
		"published", published,
	)
	if failed > failedBacklogWarnThreshold {
		c.logger.Warn("Outbox failed backlog above threshold",
			"failed", failed,
			"threshold", failedBacklogWarnThreshold,
		)
	}
}

// IsRunning returns whether the cleanup job is running
func (c *Cleanup) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
