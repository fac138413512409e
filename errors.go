package rapport

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// ProtocolError is the error type used for malformed inbound payloads and
// responses that carry neither a body nor an error. It only ever fails the
// request it concerns, never the Socket.
type ProtocolError struct {
	Reason string
}

func (err ProtocolError) Error() string {
	if err.Reason == "" {
		return "protocol error"
	}
	return "protocol error: " + err.Reason
}

// TimeoutError rejects a request that got no response in time.
type TimeoutError struct {
	After time.Duration
}

func (err TimeoutError) Error() string {
	return fmt.Sprintf("Timed out after %d ms", int64(err.After/time.Millisecond))
}

// Timeout returns true.
func (TimeoutError) Timeout() bool { return true }

// Temporary returns true.
func (TimeoutError) Temporary() bool { return true }

// ClosedError rejects every request still pending when a Socket closes.
type ClosedError struct {
	Local   bool        // true if Close was called on this side
	Code    int         // the close code
	Message interface{} // the decoded close message
}

func (err ClosedError) Error() string {
	where := "remotely"
	if err.Local {
		where = "locally"
	}
	return fmt.Sprintf("Websocket was closed %s with code %d and message %v", where, err.Code, err.Message)
}

// ConfigurationError is returned synchronously when an operation needs a
// completion sink and neither a callback nor a Promise factory is available.
type ConfigurationError struct {
	Op string
}

func (err ConfigurationError) Error() string {
	return "can't " + err.Op + " without a Promise implementation or callback"
}

// SendError wraps a synchronous failure of the transport to send or close.
type SendError struct {
	Err error
}

func (err SendError) Error() string { return "send failed: " + err.Err.Error() }

// Unwrap returns the underlying transport error.
func (err SendError) Unwrap() error { return err.Err }

// RemoteError is the rejection produced by an error response from the peer.
// Value is the decoded error payload as sent.
type RemoteError struct {
	Value interface{}
}

func (err RemoteError) Error() string {
	switch v := err.Value.(type) {
	case string:
		return v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
		if status := err.Status(); status != 0 {
			if body, ok := v[FieldBody]; ok && body != nil {
				return fmt.Sprintf("status %d: %v", status, body)
			}
			return "status " + strconv.Itoa(status)
		}
	}
	return fmt.Sprintf("remote error: %v", err.Value)
}

// Status returns the HTTP-style status carried by the error, or zero.
func (err RemoteError) Status() int {
	if m, ok := err.Value.(map[string]interface{}); ok {
		return toInt(m["status"])
	}
	return 0
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case fmt.Stringer:
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i
		}
	}
	return 0
}

var errNoRunner = errors.New("transport has no read loop")

// IsClosedError returns true if the error means the connection is gone.
func IsClosedError(err error) bool {
	switch cause := errors.Cause(err).(type) {
	case ClosedError, *ClosedError:
		return true
	case *websocket.CloseError:
		return true
	default:
		switch cause {
		case io.EOF, io.ErrClosedPipe, websocket.ErrCloseSent:
			return true
		}
	}
	return false
}
