package workers

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// historySize is how many finished jobs the queue remembers.
const historySize = 50

// A Queue runs import jobs one at a time, in the order they were added. It
// holds at most one pending or running job per artist.
type Queue struct {
	resolver    Resolver
	defaultRoot string
	log         hclog.Logger

	mu      sync.Mutex
	pending []*Job
	running *Job
	history []*Job
	onDone  []func(context.Context, *Job)

	wake chan struct{}
}

// NewQueue returns a queue whose jobs import under defaultRoot unless told
// otherwise.
func NewQueue(resolver Resolver, defaultRoot string, log hclog.Logger) *Queue {
	return &Queue{
		resolver:    resolver,
		defaultRoot: defaultRoot,
		log:         log.Named("queue"),
		wake:        make(chan struct{}, 1),
	}
}

// OnDone registers f to be called, on the queue's goroutine, after each job
// finishes.
func (q *Queue) OnDone(f func(context.Context, *Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onDone = append(q.onDone, f)
}

// Add queues an import of externalID. If a job for that artist is already
// pending or running, Add returns it and false.
func (q *Queue) Add(externalID, rootDir string) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running != nil && q.running.ExternalID == externalID {
		return q.running, false
	}
	for _, job := range q.pending {
		if job.ExternalID == externalID {
			return job, false
		}
	}

	job := NewJob(externalID, rootDir)
	q.pending = append(q.pending, job)
	q.log.Debug("queued artist", "artist-id", externalID, "job", job.ID.String(), "pending", len(q.pending))

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return job, true
}

// Jobs lists the running job, then pending jobs in order, then finished
// jobs newest first.
func (q *Queue) Jobs() []JobInfo {
	q.mu.Lock()
	defer q.mu.Unlock()

	var infos []JobInfo
	if q.running != nil {
		infos = append(infos, q.running.Info())
	}
	for _, job := range q.pending {
		infos = append(infos, job.Info())
	}
	for i := len(q.history) - 1; i >= 0; i-- {
		infos = append(infos, q.history[i].Info())
	}
	return infos
}

// Len is the number of jobs pending or running.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	if q.running != nil {
		n++
	}
	return n
}

// Run drains the queue until ctx is canceled, signaling c after each job.
func (q *Queue) Run(ctx context.Context, c chan<- struct{}) error {
	for {
		job := q.next()
		if job == nil {
			select {
			case <-ctx.Done():
				return fmt.Errorf("canceled: %w", ctx.Err())
			case <-q.wake:
				continue
			}
		}

		if err := ctx.Err(); err != nil {
			q.requeue(job)
			return fmt.Errorf("canceled: %w", err)
		}

		job.Run(ctx, q.resolver, q.defaultRoot, q.log)
		q.finish(ctx, job)

		if c != nil {
			select {
			case c <- struct{}{}:
			case <-ctx.Done():
			}
		}
	}
}

func (q *Queue) next() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	job := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	q.running = job
	return job
}

func (q *Queue) requeue(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.running = nil
	q.pending = append([]*Job{job}, q.pending...)
}

func (q *Queue) finish(ctx context.Context, job *Job) {
	q.mu.Lock()
	q.running = nil
	q.history = append(q.history, job)
	if over := len(q.history) - historySize; over > 0 {
		q.history = append([]*Job(nil), q.history[over:]...)
	}
	hooks := slices.Clone(q.onDone)
	q.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, job)
	}
}
