package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobScheduler submits a fixed set of named jobs to a pool on every tick.
// The status sweep runs here once a day.
type JobScheduler struct {
	Name   string
	Ticker *time.Ticker
	pool   *WorkingPool

	mu   sync.RWMutex
	jobs map[string]Job
}

func NewJobScheduler(name string, interval time.Duration, pool *WorkingPool) *JobScheduler {
	return &JobScheduler{
		Name:   name,
		Ticker: time.NewTicker(interval),
		pool:   pool,
		jobs:   make(map[string]Job),
	}
}

func (s *JobScheduler) AddJob(name string, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = job
}

func (s *JobScheduler) Run(ctx context.Context) {
	slog.Info("Scheduler running", "scheduler", s.Name)
	defer s.Ticker.Stop()

	for {
		select {
		case <-s.Ticker.C:
			s.submitJobs()

		case <-ctx.Done():
			slog.Info("Scheduler shutting down", "scheduler", s.Name)
			return
		}
	}
}

func (s *JobScheduler) submitJobs() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name, job := range s.jobs {
		if err := s.pool.SubmitJob(job); err != nil {
			slog.Error("Failed to submit scheduled job", "scheduler", s.Name, "job", name, "error", err)
			continue
		}
		slog.Info("Scheduled job submitted", "scheduler", s.Name, "job", name)
	}
}
