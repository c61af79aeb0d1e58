package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chat-relay/internal/logger"
)

func TestInlineRunsOnCaller(t *testing.T) {
	ran := false
	Inline.Do(logger.Nop(), "test", 0, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		ran = true
		return errors.New("ignored")
	})
	assert.True(t, ran)
}

func TestGoRunsAsync(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	Go.Do(logger.Nop(), "test", time.Second, func(context.Context) error {
		wg.Done()
		return nil
	})
	wg.Wait()
}

// deferred collects tasks so a test can run them in an order of its choosing.
type deferred struct{ tasks []func() }

func (d *deferred) runner() Runner {
	return func(task func()) { d.tasks = append(d.tasks, task) }
}

func (d *deferred) runReversed() {
	tasks := d.tasks
	d.tasks = nil
	for i := len(tasks) - 1; i >= 0; i-- {
		tasks[i]()
	}
}

func TestQueueKeepsOrderPerKey(t *testing.T) {
	var d deferred
	q := NewQueue(d.runner())

	var got []string
	record := func(s string) func(context.Context) error {
		return func(context.Context) error {
			got = append(got, s)
			return nil
		}
	}

	q.Do("bob", logger.Nop(), "test", 0, record("bob-1"))
	q.Do("carol", logger.Nop(), "test", 0, record("carol-1"))
	q.Do("bob", logger.Nop(), "test", 0, record("bob-2"))
	q.Do("bob", logger.Nop(), "test", 0, record("bob-3"))

	// One drain per key, no matter how many tasks were queued.
	assert.Len(t, d.tasks, 2)
	d.runReversed()

	assert.Equal(t, []string{"carol-1", "bob-1", "bob-2", "bob-3"}, got)
}

func TestQueueSchedulesAgainAfterDrain(t *testing.T) {
	var d deferred
	q := NewQueue(d.runner())

	calls := 0
	inc := func(context.Context) error {
		calls++
		return nil
	}

	q.Do("k", logger.Nop(), "test", 0, inc)
	d.runReversed()
	q.Do("k", logger.Nop(), "test", 0, inc)
	assert.Len(t, d.tasks, 1)
	d.runReversed()

	assert.Equal(t, 2, calls)
}

func TestQueueInlineTaskQueuesBehindItself(t *testing.T) {
	q := NewQueue(Inline)

	var got []string
	q.Do("k", logger.Nop(), "test", 0, func(context.Context) error {
		q.Do("k", logger.Nop(), "test", 0, func(context.Context) error {
			got = append(got, "inner")
			return nil
		})
		got = append(got, "outer")
		return nil
	})

	assert.Equal(t, []string{"outer", "inner"}, got)
}
