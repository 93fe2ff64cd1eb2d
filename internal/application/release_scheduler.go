package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paklog/wave-planning-service/pkg/logging"
)

// ReleaseSchedulerConfig configuration for the release scheduler
type ReleaseSchedulerConfig struct {
	// CheckInterval is how often to look for waves due for release
	CheckInterval time.Duration `json:"checkInterval"`
}

// DefaultReleaseSchedulerConfig returns default configuration
func DefaultReleaseSchedulerConfig() ReleaseSchedulerConfig {
	return ReleaseSchedulerConfig{
		CheckInterval: 30 * time.Second,
	}
}

// ReleaseScheduler releases waves whose planned release time has passed.
// It polls for due waves on a fixed interval and pushes each one through
// the regular release use case, so scheduled releases carry the same SKU
// aggregation and events as manual ones.
type ReleaseScheduler struct {
	service *WavePlanningService
	config  ReleaseSchedulerConfig
	logger  *logging.Logger

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
}

// NewReleaseScheduler creates a new ReleaseScheduler
func NewReleaseScheduler(service *WavePlanningService, config ReleaseSchedulerConfig, logger *logging.Logger) *ReleaseScheduler {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultReleaseSchedulerConfig().CheckInterval
	}
	return &ReleaseScheduler{
		service:  service,
		config:   config,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduling loop
func (s *ReleaseScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("release scheduler is already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("Release scheduler started", "checkInterval", s.config.CheckInterval.String())
	go s.run(ctx)
	return nil
}

// Stop stops the scheduling loop
func (s *ReleaseScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
		s.logger.Info("Release scheduler stopped")
	}
}

// IsRunning returns whether the scheduler is running
func (s *ReleaseScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *ReleaseScheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.releaseDueWaves(ctx)
		}
	}
}

// releaseDueWaves releases every wave whose planned release time has
// passed. One wave failing does not block the rest; a concurrent
// modification means someone else got there first, which is fine.
func (s *ReleaseScheduler) releaseDueWaves(ctx context.Context) {
	waves, err := s.service.repo.FindReadyToRelease(ctx, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to find waves ready to release")
		return
	}
	if len(waves) == 0 {
		return
	}

	released := 0
	for _, wave := range waves {
		if _, err := s.service.ReleaseWave(ctx, ReleaseWaveCommand{WaveID: wave.WaveID}); err != nil {
			s.logger.WithError(err).Warn("Failed to release scheduled wave", "waveId", wave.WaveID)
			continue
		}
		released++
	}

	s.logger.Info("Released scheduled waves", "due", len(waves), "released", released)
}
