package runner

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/joe/servatio/internal/task"
)

// ErrQueueClosed is returned by Submit once the queue has stopped.
var ErrQueueClosed = errors.New("run queue is closed")

// RunFunc performs one run of a task.
type RunFunc func(ctx context.Context, t task.BackupTask) (*Result, error)

// Queue runs tasks one at a time on a single worker. Submissions for a task
// that is already waiting or running share that run instead of queueing
// another.
type Queue struct {
	run   RunFunc
	jobs  chan job
	group singleflight.Group
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

type job struct {
	task  task.BackupTask
	reply chan outcome
}

type outcome struct {
	result *Result
	err    error
}

// NewQueue creates a queue and starts its worker. The worker stops when ctx
// is done or Close is called.
func NewQueue(ctx context.Context, run RunFunc) *Queue {
	q := &Queue{
		run:  run,
		jobs: make(chan job),
		done: make(chan struct{}),
	}

	q.wg.Add(1)

	go q.worker(ctx)

	return q
}

// Submit waits until t has run and returns its result. shared is true when
// the result came from a run requested by another caller.
func (q *Queue) Submit(ctx context.Context, t task.BackupTask) (*Result, bool, error) {
	value, err, shared := q.group.Do(t.Name, func() (any, error) {
		reply := make(chan outcome, 1)

		select {
		case q.jobs <- job{task: t, reply: reply}:
		case <-q.done:
			return nil, ErrQueueClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		out := <-reply

		return out.result, out.err
	})

	result, _ := value.(*Result)

	return result, shared, err
}

// Close stops the worker after the current run and waits for it.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			q.once.Do(func() { close(q.done) })

			return
		case <-q.done:
			return
		case next := <-q.jobs:
			result, err := q.run(ctx, next.task)
			next.reply <- outcome{result: result, err: err}
		}
	}
}
