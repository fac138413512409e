package rapport

import (
	"log"
	"time"

	"github.com/pkg/errors"
)

// close is the single path behind Close and CloseFunc.
func (s *Socket) close(message interface{}, code int, timeout time.Duration, cb Callback) (Promise, error) {
	if code == 0 {
		code = DefaultCloseCode
	}
	if message == nil {
		message = DefaultCloseMessage
	}

	p, err := s.completion("close", cb)
	if err != nil {
		return nil, err
	}

	// fail everything in flight before the transport starts closing
	s.requests.RejectAll(errors.WithStack(ClosedError{Local: true, Code: code, Message: message}))

	id := s.opts.GenerateRequestID()
	if !register(s.closers, id, p, cb) {
		return nil, errors.Errorf("close ID %q is already pending", id)
	}

	if timeout > 0 {
		time.AfterFunc(timeout, func() {
			s.closers.Reject(id, errors.WithStack(TimeoutError{After: timeout}))
		})
	}

	reason, err := s.opts.Serializer.Encode(message)
	if err != nil {
		s.closers.Reject(id, errors.Wrap(err, "encode"))
		return p, nil
	}
	if err = s.transport.Close(code, reason); err != nil {
		s.closers.Reject(id, errors.WithStack(SendError{Err: err}))
	}
	return p, nil
}

// Close rejects every pending request with a ClosedError and starts closing
// the connection with the given message and code. A nil message and zero
// code mean DefaultCloseMessage and DefaultCloseCode.
//
// The returned Promise resolves with the peer's close message once the
// close event arrives, or is rejected if the transport fails or the
// optional timeout expires first.
func (s *Socket) Close(message interface{}, code int, timeout time.Duration) (Promise, error) {
	return s.close(message, code, timeout, nil)
}

// CloseFunc is Close with a Callback instead of a Promise.
func (s *Socket) CloseFunc(message interface{}, code int, timeout time.Duration, cb Callback) error {
	_, err := s.close(message, code, timeout, cb)
	return err
}

// closed handles the transport's close event.
func (s *Socket) closed(code int, reason []byte) {
	var message interface{}
	if v, err := s.opts.Serializer.Decode(reason); err == nil {
		message = v
	} else {
		message = string(reason)
	}

	if n := s.requests.RejectAll(errors.WithStack(ClosedError{Code: code, Message: message})); n > 0 && s.logging() {
		log.Print("CLOS ", s, " rejected ", n, " pending requests")
	}

	if _, _, onClose := s.handlers(); onClose != nil {
		onClose(message, code)
	}

	s.closers.ResolveAll(message)
	s.closeDoneChan()
}
