package worker

import (
	"context"
	"sync"
)

// Job is a unit of work, typically one statement run end to end through the
// query pipeline.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a completed job reports back.
type Result interface {
	GetError() error
}

// Pool runs jobs across a fixed number of workers. Intended use is
// submit-then-drain: Submit every job, then call Wait once to collect all
// results. Workers append results directly to the collected slice, so the
// caller may submit any number of jobs before draining. Shutdown cancels
// in-flight jobs.
type Pool struct {
	workers int
	jobs    chan Job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	results []Result
}

// NewPool creates a pool with the given number of workers, minimum one.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. Must be called before Submit.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			res := job.Execute(p.ctx)
			p.mu.Lock()
			p.results = append(p.results, res)
			p.mu.Unlock()
		}
	}
}

// Submit queues a job. Blocks only while every worker is busy and the queue is
// full; workers always drain the queue. After Shutdown it returns without
// queuing.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Wait closes the queue, lets the workers drain it, and returns every result.
// Call at most once, after all Submit calls.
func (p *Pool) Wait() []Result {
	close(p.jobs)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results
}

// Shutdown cancels running jobs and waits for the workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
