package jobs

import (
	"fmt"
	"log"
	"sync"
)

// Job is one unit of background work, usually a batch recomputation.
type Job struct {
	ID      string
	Execute func() error
}

// WorkerPool runs submitted jobs on a fixed set of goroutines. Jobs
// buffer up to twice the worker count; beyond that Submit blocks.
type WorkerPool struct {
	workerCount int
	jobQueue    chan Job
	wg          sync.WaitGroup
	stopOnce    sync.Once
	done        chan struct{}

	mu      sync.Mutex
	stopped bool
}

func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	pool := &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan Job, workerCount*2),
		done:        make(chan struct{}),
	}

	for i := 0; i < workerCount; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	log.Printf("worker pool started with %d workers", workerCount)
	return pool
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			if err := job.Execute(); err != nil {
				log.Printf("worker %d: job %s failed: %v", id, job.ID, err)
			}

		case <-p.done:
			return
		}
	}
}

// Submit enqueues a job. It fails only when the pool is shutting down.
func (p *WorkerPool) Submit(job Job) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return fmt.Errorf("worker pool is shutting down")
	}
	p.mu.Unlock()

	select {
	case p.jobQueue <- job:
		return nil
	case <-p.done:
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Stop signals shutdown and waits for the workers to exit. The queue
// channel is never closed, so a Submit racing with Stop gets an error
// rather than a send on a closed channel. Jobs still buffered when the
// workers exit are dropped; callers that need completion must track job
// state themselves, which the recompute job table does.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		close(p.done)
		p.wg.Wait()
		log.Println("worker pool stopped")
	})
}

// QueueSize reports jobs waiting for a worker.
func (p *WorkerPool) QueueSize() int {
	return len(p.jobQueue)
}
