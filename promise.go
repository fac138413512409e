package rapport

import (
	"context"
	"sync"
)

// Callback receives the outcome of a request or close.
// Exactly one of result or err is meaningful; err is nil on success.
type Callback func(result interface{}, err error)

// Promise is the completion handle returned by Request and Close.
// It settles exactly once; later Resolve or Reject calls are ignored.
type Promise interface {
	Resolve(v interface{})
	Reject(err error)
	// Done returns a channel that is closed once the Promise has settled.
	Done() <-chan struct{}
	// Wait blocks until the Promise settles or ctx is done.
	Wait(ctx context.Context) (interface{}, error)
}

// Call is the default Promise.
type Call struct {
	once  sync.Once
	done  chan struct{}
	value interface{}
	err   error
}

// NewCall returns an unsettled Call. It is the default Options.NewPromise.
func NewCall() Promise {
	return &Call{done: make(chan struct{})}
}

// Resolve settles the Call with v.
func (c *Call) Resolve(v interface{}) {
	c.once.Do(func() {
		c.value = v
		close(c.done)
	})
}

// Reject settles the Call with err.
func (c *Call) Reject(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Done returns a channel that is closed once the Call has settled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the Call settles or ctx is done. A nil ctx waits forever.
func (c *Call) Wait(ctx context.Context) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
