package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/multimart/multimart-backend/pkg/logger"
	"github.com/multimart/multimart-backend/pkg/metrics"
)

const defaultInterval = 5 * time.Minute

// Job is one unit of periodic cleanup work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// ServiceParams configure the janitor service.
type ServiceParams struct {
	Logger   *logger.Logger
	Lock     Lock
	Metrics  *metrics.JanitorMetrics
	Interval time.Duration
	Jobs     []Job
}

// Service runs cleanup jobs on a fixed cadence, one replica at a time.
type Service struct {
	logg     *logger.Logger
	lock     Lock
	metrics  *metrics.JanitorMetrics
	interval time.Duration
	jobs     []Job
}

// NewService builds a janitor service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	lock := params.Lock
	if lock == nil {
		lock = LocalLock{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	jobs := make([]Job, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	return &Service{
		logg:     params.Logger,
		lock:     lock,
		metrics:  params.Metrics,
		interval: interval,
		jobs:     jobs,
	}, nil
}

// Run executes cleanup cycles until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "janitor cycle failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "janitor stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "janitor cycle failed", err)
			}
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		s.logg.Info(ctx, "janitor cycle skipped, another replica holds the lock")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "release janitor lock", err)
		}
	}()

	for _, job := range s.jobs {
		jobCtx := s.logg.WithField(ctx, "job", job.Name())
		start := time.Now()
		if err := job.Run(jobCtx); err != nil {
			s.metrics.IncFailure(job.Name())
			s.logg.Error(jobCtx, "janitor job failed", err)
			continue
		}
		s.metrics.ObserveDuration(job.Name(), time.Since(start))
		s.metrics.IncSuccess(job.Name())
	}
	return nil
}
