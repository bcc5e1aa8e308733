package autocharge

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs the sweep on a fixed interval until stopped.
type Scheduler struct {
	sweeper  *Sweeper
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewScheduler(sweeper *Sweeper, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.Named("scheduler"),
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting auto-charge scheduler", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	s.logger.Info("stopping auto-charge scheduler")
	close(s.stopChan)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if _, err := s.sweeper.Run(ctx); err != nil {
		s.logger.Error("auto-charge sweep failed", zap.Error(err))
	}
}
