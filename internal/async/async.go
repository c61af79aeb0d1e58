// Package async runs fire-and-forget side effects off the relay path.
package async

import (
	"context"
	"sync"
	"time"

	"chat-relay/internal/logger"
)

// Runner executes a task. Go runs it on a new goroutine, Inline runs it on
// the caller's goroutine.
type Runner func(task func())

var (
	Go     Runner = func(task func()) { go task() }
	Inline Runner = func(task func()) { task() }
)

// DefaultTimeout bounds a single side effect.
const DefaultTimeout = 10 * time.Second

// Do runs fn through r with a fresh context bounded by timeout. Errors are
// logged with op and never returned.
func (r Runner) Do(log logger.Logger, op string, timeout time.Duration, fn func(ctx context.Context) error) {
	r(bounded(log, op, timeout, fn))
}

func bounded(log logger.Logger, op string, timeout time.Duration, fn func(ctx context.Context) error) func() {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Warn("background task failed", logger.String("op", op), logger.Error(err))
		}
	}
}

// Queue runs tasks sharing a key one at a time, in submission order, however
// the underlying Runner schedules them. Tasks of different keys are
// independent.
type Queue struct {
	run     Runner
	mu      sync.Mutex
	pending map[string][]func()
}

func NewQueue(run Runner) *Queue {
	if run == nil {
		run = Go
	}
	return &Queue{run: run, pending: make(map[string][]func())}
}

// Do queues fn behind the earlier tasks of key. Errors are logged like
// Runner.Do.
func (q *Queue) Do(key string, log logger.Logger, op string, timeout time.Duration, fn func(ctx context.Context) error) {
	task := bounded(log, op, timeout, fn)

	q.mu.Lock()
	tasks, draining := q.pending[key]
	q.pending[key] = append(tasks, task)
	q.mu.Unlock()

	if !draining {
		q.run(func() { q.drain(key) })
	}
}

// drain runs the tasks of key until none are left. A key is present in
// pending for as long as one drain owns it.
func (q *Queue) drain(key string) {
	for {
		q.mu.Lock()
		tasks := q.pending[key]
		if len(tasks) == 0 {
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		task := tasks[0]
		q.pending[key] = tasks[1:]
		q.mu.Unlock()

		task()
	}
}
