package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Job is one unit of background work: an extraction run, a compliance
// re-evaluation, a sweep pass.
type Job func(ctx context.Context) error

// WorkingPool runs submitted jobs on a fixed set of workers. Extraction
// jobs block on the AI call for seconds, so uploads hand off here instead
// of holding the HTTP request open.
type WorkingPool struct {
	NumWorkers int
	jobChan    chan Job

	mu     sync.Mutex
	closed bool
}

func NewWorkingPool(numWorkers int, queueSize int) *WorkingPool {
	return &WorkingPool{
		NumWorkers: numWorkers,
		jobChan:    make(chan Job, queueSize),
	}
}

// SubmitJob enqueues a job, failing fast when the queue is full rather than
// blocking the caller. Returns an error after shutdown; handlers still
// draining during the shutdown window get a refusal, not a panic on a
// closed channel.
func (p *WorkingPool) SubmitJob(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("pool is shut down")
	}
	select {
	case p.jobChan <- job:
		return nil
	default:
		return fmt.Errorf("job queue full (%d pending)", cap(p.jobChan))
	}
}

func (p *WorkingPool) Start(ctx context.Context, managerWg *sync.WaitGroup) {
	defer managerWg.Done()

	var workerWg sync.WaitGroup
	for i := range p.NumWorkers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1)
	}

	<-ctx.Done()

	slog.Info("Working pool shutdown signaled, closing job channel")
	p.mu.Lock()
	p.closed = true
	close(p.jobChan)
	p.mu.Unlock()
	workerWg.Wait()
	slog.Info("All workers stopped")
}

func (p *WorkingPool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-p.jobChan:
			if !ok {
				return
			}
			p.safeExecution(ctx, job, id)

		case <-ctx.Done():
			return
		}
	}
}

func (p *WorkingPool) safeExecution(ctx context.Context, job Job, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic recovered in background job", "worker", workerID, "panic", r)
		}
	}()

	if err := job(ctx); err != nil {
		slog.Error("Background job failed", "worker", workerID, "error", err)
	}
}
