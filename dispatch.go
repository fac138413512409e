package rapport

import (
	"log"

	"github.com/pkg/errors"
)

var errMissingBodyAndError = ProtocolError{Reason: "response missing body and error"}

// dispatch handles one inbound transport message. The transport calls it
// from a single goroutine, so messages are handled in arrival order.
func (s *Socket) dispatch(data []byte) {
	if s.logging() {
		log.Print("READ ", s, " ", string(data))
	}

	decoded, err := s.opts.Serializer.Decode(data)
	if err != nil {
		// tell the peer, but never hand garbage to the handlers
		perr := ProtocolError{Reason: err.Error()}
		if sendErr := s.Send(perr.Error()); sendErr != nil {
			log.Print("Socket.dispatch(): ", perr, ": ", sendErr)
		}
		return
	}

	env := Classify(decoded)
	switch env.Kind {
	case KindResponse:
		s.handleResponse(env)
	case KindRequest:
		s.handleRequest(env)
	default:
		s.handleMessage(env)
	}
}

func (s *Socket) handleResponse(env Envelope) {
	switch {
	case env.HasBody:
		s.requests.Resolve(env.ID, env.Body)
	case env.HasError:
		s.requests.Reject(env.ID, errors.WithStack(RemoteError{Value: env.Error}))
	default:
		s.requests.Reject(env.ID, errors.WithStack(errMissingBodyAndError))
	}
}

func (s *Socket) handleRequest(env Envelope) {
	if _, onRequest, _ := s.handlers(); onRequest != nil {
		onRequest(&Message{ID: env.ID, IsRequest: true, Body: env.Body}, newResponder(s, env.ID))
	}
}

func (s *Socket) handleMessage(env Envelope) {
	if onMessage, _, _ := s.handlers(); onMessage != nil {
		onMessage(&Message{Body: env.Body}, s)
	}
}
