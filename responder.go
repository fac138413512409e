package rapport

import "sync/atomic"

// Message is what handlers receive for an inbound request or plain message.
type Message struct {
	ID        string      // the request ID, empty for plain messages
	IsRequest bool        // true if a response is expected
	Body      interface{} // the request body, or the whole decoded message
}

// Responder answers one inbound request. It does not stop a handler from
// responding more than once; every call sends.
type Responder struct {
	*Socket
	ID   string // the request ID being answered
	sent int32
}

func newResponder(s *Socket, id string) *Responder {
	return &Responder{Socket: s, ID: id}
}

// Respond sends body as the response.
func (res *Responder) Respond(body interface{}) error {
	atomic.StoreInt32(&res.sent, 1)
	return res.Socket.Respond(res.ID, body)
}

// RespondWithError sends e as the error response.
func (res *Responder) RespondWithError(e interface{}) error {
	atomic.StoreInt32(&res.sent, 1)
	return res.Socket.RespondWithError(res.ID, e)
}

// Sent returns true once Respond or RespondWithError has been called.
func (res *Responder) Sent() bool {
	return atomic.LoadInt32(&res.sent) != 0
}
