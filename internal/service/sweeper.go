package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"busbook/internal/redis"
)

const sweepLockTTL = 30 * time.Second

// Sweeper periodically expires unpaid reservations past their deadline.
// When a lock store is configured, a Redis leader lock ensures only one
// instance sweeps at a time; without one the sweeper runs unconditionally.
type Sweeper struct {
	coordinator *Coordinator
	lockStore   redis.LockStoreInterface // optional
	logger      *logrus.Logger
	instanceID  string
	interval    time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewSweeper creates a new Sweeper. lockStore may be nil.
func NewSweeper(coordinator *Coordinator, lockStore redis.LockStoreInterface, logger *logrus.Logger, interval time.Duration) *Sweeper {
	if logger == nil {
		logger = logrus.New()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		coordinator: coordinator,
		lockStore:   lockStore,
		logger:      logger,
		instanceID:  uuid.New().String(),
		interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (s *Sweeper) Start() {
	s.logger.WithField("interval", s.interval).Info("starting reservation expiry sweeper")
	go s.run()
}

// Stop stops the background sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.logger.Info("reservation expiry sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	// Run immediately on start, then on every tick.
	s.RunOnce(context.Background())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce runs a single sweep pass. Exposed for external schedulers and tests.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if s.lockStore != nil {
		acquired, err := s.lockStore.AcquireSweepLock(ctx, s.instanceID, sweepLockTTL)
		if err != nil {
			s.logger.WithError(err).Warn("sweep lock unavailable, skipping pass")
			return
		}
		if !acquired {
			// Another instance is sweeping.
			return
		}
		defer func() {
			_ = s.lockStore.ReleaseSweepLock(ctx, s.instanceID)
		}()
	}

	expired, err := s.coordinator.SweepExpired(ctx)
	if err != nil {
		s.logger.WithError(err).Error("expiry sweep failed")
		return
	}

	if expired > 0 {
		s.logger.WithField("count", expired).Info("expired unpaid reservations")
	}
}
