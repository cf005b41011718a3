package source

import (
	"context"
	"sync"
)

// Task is the pending result of an asynchronous load.
type Task struct {
	done chan struct{}
	once sync.Once
	res  Decoded
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) complete(res Decoded, err error) {
	t.once.Do(func() {
		t.res, t.err = res, err
		close(t.done)
	})
}

// Done is closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task completes or ctx is done. Giving up on a
// task does not stop it; its result is just never read.
func (t *Task) Wait(ctx context.Context) (Decoded, error) {
	select {
	case <-t.done:
		return t.res, t.err
	case <-ctx.Done():
		return Decoded{}, ctx.Err()
	}
}
