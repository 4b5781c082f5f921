package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/azizikri/pawclub-functions/internal/metrics"
	"github.com/rs/zerolog"
)

// Job is one housekeeping run.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler runs housekeeping jobs on a fixed interval.
type Scheduler struct {
	mu       sync.RWMutex
	jobs     []Job
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(interval time.Duration, jobs ...Job) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{jobs: jobs, interval: interval}
}

// Start runs every job once, then again on each tick until ctx is done or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			metrics.Operations.WithLabelValues(job.Name, "scheduler_error").Inc()
			logger.Error().Err(err).Str("job", job.Name).Msg("scheduled job failed")
			continue
		}
		metrics.Operations.WithLabelValues(job.Name, "scheduler_ok").Inc()
		logger.Info().Str("job", job.Name).Dur("took", time.Since(start)).Msg("scheduled job finished")
	}
}
