package rapport

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// completion picks how an outbound operation reports its outcome.
// With a callback there is no Promise; without one the Options must
// provide a Promise factory.
func (s *Socket) completion(op string, cb Callback) (p Promise, err error) {
	if cb == nil {
		if s.opts.NewPromise == nil {
			return nil, errors.WithStack(ConfigurationError{Op: op})
		}
		p = s.opts.NewPromise()
	}
	return
}

// register adds the sink for p or cb under id.
func register(reg *Registry, id string, p Promise, cb Callback) bool {
	if cb != nil {
		return reg.AddCallback(id, cb)
	}
	return reg.AddPromise(id, p.Resolve, p.Reject)
}

// settle returns a Callback that settles p.
func settle(p Promise) Callback {
	return func(v interface{}, err error) {
		if err != nil {
			p.Reject(err)
		} else {
			p.Resolve(v)
		}
	}
}

// request is the single outbound path behind Request and RequestFunc.
func (s *Socket) request(body interface{}, timeout time.Duration, cb Callback) (id string, p Promise, err error) {
	if p, err = s.completion("make a request", cb); err != nil {
		return
	}

	id = s.opts.GenerateRequestID()

	// register before sending, a response may arrive before Send returns
	if !register(s.requests, id, p, cb) {
		return "", nil, errors.Errorf("request ID %q is already pending", id)
	}

	if timeout > 0 {
		// no need to stop it, rejecting a completed request is a no-op
		time.AfterFunc(timeout, func() {
			s.requests.Reject(id, errors.WithStack(TimeoutError{After: timeout}))
		})
	}

	if err = s.Send(BuildRequest(id, body)); err != nil {
		s.requests.Reject(id, errors.WithStack(SendError{Err: err}))
	}

	return id, p, nil
}

// Request sends body as a request and returns a Promise for the response.
// A positive timeout rejects the Promise with a TimeoutError if no response
// arrived in time. Send failures reject the Promise, they are not returned.
// The error is non-nil only if no Promise could be created.
func (s *Socket) Request(body interface{}, timeout time.Duration) (Promise, error) {
	_, p, err := s.request(body, timeout, nil)
	return p, err
}

// RequestFunc sends body as a request and calls cb exactly once with the
// response or the error. With a nil cb it behaves like Request and discards
// the Promise.
func (s *Socket) RequestFunc(body interface{}, timeout time.Duration, cb Callback) error {
	_, _, err := s.request(body, timeout, cb)
	return err
}

// RequestWait sends body as a request and waits for the response.
// The deadline of ctx, if any, is used as the request timeout.
// If ctx is done first the request is dropped, a late response is ignored.
func (s *Socket) RequestWait(ctx context.Context, body interface{}) (interface{}, error) {
	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		if timeout = time.Until(deadline); timeout <= 0 {
			return nil, errors.WithStack(context.DeadlineExceeded)
		}
	}
	c := NewCall()
	id, _, err := s.request(body, timeout, settle(c))
	if err != nil {
		return nil, err
	}
	v, err := c.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		s.requests.Reject(id, errors.WithStack(err))
	}
	return v, err
}
