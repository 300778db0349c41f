package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// A Worker is a named loop run alongside the queue. It signals on its
// channel when it has finished a batch of work.
type Worker struct {
	Name string
	Run  func(context.Context, chan<- struct{}) error
}

type worker struct {
	f         func(context.Context, chan<- struct{}) error
	isRunning bool
}

type engine struct {
	log hclog.Logger

	mu      sync.Mutex
	workers map[string]worker

	// triggers maps a worker to the workers rerun when it finishes a batch.
	triggers map[string][]string
}

func (eng *engine) add(name string, f func(context.Context, chan<- struct{}) error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	eng.workers[name] = worker{f: f}
}

func (eng *engine) start(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	g := new(errgroup.Group)
	events := make(chan string)

	// run must be called with eng.mu held.
	run := func(name string) {
		worker := eng.workers[name]
		worker.isRunning = true
		f := worker.f
		eng.workers[name] = worker

		g.Go(func() error {
			theseEvents := make(chan struct{})
			go func() {
				for range theseEvents {
					select {
					case events <- name:
					case <-ctx.Done():
					}
				}
			}()

			eng.log.Debug("start", "worker", name)
			err := f(ctx, theseEvents)
			close(theseEvents)
			if err != nil && !errors.Is(err, context.Canceled) {
				eng.log.Error("worker failed", "worker", name, "error", err)
				cancel(err)
			} else {
				eng.log.Debug("done", "worker", name)
			}

			eng.mu.Lock()
			defer eng.mu.Unlock()
			worker := eng.workers[name]
			worker.isRunning = false
			eng.workers[name] = worker

			return err
		})
	}

	func() {
		eng.mu.Lock()
		defer eng.mu.Unlock()

		for name := range eng.workers {
			run(name)
		}
	}()

	retrigger := func(name string) {
		eng.mu.Lock()
		defer eng.mu.Unlock()

		if _, ok := eng.workers[name]; !ok || eng.workers[name].isRunning || ctx.Err() != nil {
			return
		}

		run(name)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				eng.log.Trace("batch", "worker", ev)
				for _, name := range eng.triggers[ev] {
					retrigger(name)
				}
			}
		}
	}()

	err := g.Wait()
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return err
}

// Run drains the queue, refreshes the library, and runs the given extra
// workers until ctx is canceled or one of them fails. The library's counts
// are logged after every job.
func Run(ctx context.Context, log hclog.Logger, queue *Queue, refresher *Refresher, counter Counter, extra ...Worker) error {
	log = log.Named("workers")
	eng := engine{
		log:     log,
		workers: map[string]worker{},
		triggers: map[string][]string{
			"queue": {"reporter"},
		},
	}

	eng.add("queue", queue.Run)
	if refresher != nil {
		eng.add("refresher", refresher.Run)
	}
	if counter != nil {
		eng.add("reporter", func(ctx context.Context, c chan<- struct{}) error {
			if err := runReporter(ctx, counter, log); err != nil && ctx.Err() == nil {
				log.Warn("error reporting progress", "error", err)
			}
			return nil
		})
	}
	for _, w := range extra {
		eng.add(w.Name, w.Run)
	}

	return eng.start(ctx)
}
