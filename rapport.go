package rapport

import "time"

const (
	// DefaultCloseCode is the close code used when none is given.
	DefaultCloseCode = 1000
	// DefaultCloseMessage is the close message used when none is given.
	DefaultCloseMessage = "Socket was closed"
	// AbnormalCloseCode is reported when the connection dropped without a close frame.
	AbnormalCloseCode = 1006
	// AbnormalCloseMessage is reported alongside AbnormalCloseCode.
	AbnormalCloseMessage = "Socket was closed without a close event"
	// MaxCloseReasonSize is the largest close reason a control frame can carry.
	MaxCloseReasonSize = 123
	// DefaultWriteTimeout is how long to wait to send
	DefaultWriteTimeout = time.Second * 5
	// DefaultCloseGracePeriod is how long to wait for the peer to acknowledge a close.
	DefaultCloseGracePeriod = time.Second * 5
)

// Wire field names of the envelope.
const (
	FieldRequestID  = "requestId"
	FieldResponseID = "responseId"
	FieldBody       = "body"
	FieldError      = "error"
)
