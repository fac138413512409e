// Copyright 2018 Johan Lindh. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package rapport

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// MessageHandler handles plain messages. There is nothing to respond to,
// but the Socket is passed along so the handler can send.
type MessageHandler func(msg *Message, s *Socket)

// RequestHandler handles requests. The Responder sends the response.
type RequestHandler func(req *Message, res *Responder)

// CloseHandler is called once the connection has closed, after every
// pending request has been rejected.
type CloseHandler func(message interface{}, code int)

// Socket wraps a Transport with request/response functionality.
type Socket struct {
	transport    Transport
	opts         *Options
	requests     *Registry // outstanding requests
	closers      *Registry // Close calls waiting for the close event
	serialNumber uint32
	mu           sync.Mutex // protects those below
	onMessage    MessageHandler
	onRequest    RequestHandler
	onClose      CloseHandler
	doneChan     chan struct{}
	netLog       bool
}

var socketNextSerialNumber uint32

// Wrap returns a Socket using t. Options not given default to DefaultOptions.
// The Socket takes over t's message and close handlers.
func Wrap(t Transport, opts ...Option) *Socket {
	s := &Socket{
		transport:    t,
		opts:         newOptions(opts...),
		requests:     NewRegistry(),
		closers:      NewRegistry(),
		serialNumber: atomic.AddUint32(&socketNextSerialNumber, 1),
		doneChan:     make(chan struct{}),
	}
	t.OnMessage(s.dispatch)
	t.OnClose(s.closed)
	s.OnOpen(func() {})
	s.OnError(func(error) {})
	s.OnMessage(func(*Message, *Socket) {})
	s.OnRequest(func(*Message, *Responder) {})
	s.OnClose(func(interface{}, int) {})
	return s
}

func (s *Socket) String() string {
	return fmt.Sprintf("[Socket %x]", s.serialNumber)
}

// Transport returns the wrapped Transport.
func (s *Socket) Transport() Transport {
	return s.transport
}

// Options returns the Socket's options. They must not be modified.
func (s *Socket) Options() *Options {
	return s.opts
}

// Pending returns the number of outstanding requests.
func (s *Socket) Pending() int {
	return s.requests.Len()
}

// OnOpen sets the handler called when the connection opens.
func (s *Socket) OnOpen(handler func()) {
	s.transport.OnOpen(handler)
}

// OnError sets the handler called when the connection fails.
func (s *Socket) OnError(handler func(err error)) {
	s.transport.OnError(handler)
}

// OnMessage sets the handler for plain messages, replacing the previous one.
func (s *Socket) OnMessage(handler MessageHandler) {
	s.mu.Lock()
	s.onMessage = handler
	s.mu.Unlock()
}

// OnRequest sets the handler for requests, replacing the previous one.
func (s *Socket) OnRequest(handler RequestHandler) {
	s.mu.Lock()
	s.onRequest = handler
	s.mu.Unlock()
}

// OnClose sets the handler called once the connection has closed,
// replacing the previous one.
func (s *Socket) OnClose(handler CloseHandler) {
	s.mu.Lock()
	s.onClose = handler
	s.mu.Unlock()
}

func (s *Socket) handlers() (MessageHandler, RequestHandler, CloseHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onMessage, s.onRequest, s.onClose
}

// NetLog enables or disables logging of every message sent and received.
func (s *Socket) NetLog(state bool) {
	s.mu.Lock()
	s.netLog = state
	s.mu.Unlock()
}

func (s *Socket) logging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.netLog
}

// Send encodes msg and sends it as a plain message.
func (s *Socket) Send(msg interface{}) error {
	data, err := s.opts.Serializer.Encode(msg)
	if err != nil {
		return errors.Wrap(err, "encode")
	}
	if s.logging() {
		log.Print("WRIT ", s, " ", string(data))
	}
	return s.transport.Send(data)
}

// Respond sends a successful response to the request requestID.
func (s *Socket) Respond(requestID string, body interface{}) error {
	return s.Send(BuildResponse(requestID, body))
}

// RespondWithError sends an error response to the request requestID.
func (s *Socket) RespondWithError(requestID string, e interface{}) error {
	return s.Send(BuildErrorResponse(requestID, e))
}

// Serve drives the transport's read loop until the connection closes.
// Install handlers before calling it.
func (s *Socket) Serve() error {
	if r, ok := s.transport.(Runner); ok {
		return r.Run()
	}
	return errNoRunner
}

// Done returns a channel that is closed once the close event has been handled.
func (s *Socket) Done() <-chan struct{} {
	return s.doneChan
}

// returns true if doneChan was closed now, false if already closed
func (s *Socket) closeDoneChan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.doneChan:
		return false
	default:
		close(s.doneChan)
		return true
	}
}
