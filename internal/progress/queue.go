package progress

import (
	"context"
	"log/slog"
	"sync"
)

// Job is one persistence write.
type Job func(ctx context.Context) error

// Queue runs Jobs one at a time in submission order on its own goroutine, so
// a later write (a clear, say) can never be overtaken by an earlier one.
type Queue struct {
	log  *slog.Logger
	jobs chan Job
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewQueue starts a Queue holding up to size pending jobs.
func NewQueue(size int, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	q := &Queue{
		log:  log,
		jobs: make(chan Job, size),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for job := range q.jobs {
		if err := job(context.Background()); err != nil {
			q.log.Warn("persist", "error", err)
		}
	}
}

// Enqueue hands job to the writer without blocking. It reports false when the
// queue is full or closed and the job was dropped.
func (q *Queue) Enqueue(job Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		q.log.Warn("persist queue full, dropping write")
		return false
	}
}

// Close stops accepting jobs and waits for the pending ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	<-q.done
}
