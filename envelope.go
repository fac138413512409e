package rapport

import "fmt"

// Kind enumerates the envelope shapes.
type Kind int

const (
	// KindMessage is a plain, uncorrelated message.
	KindMessage = Kind(iota)
	// KindRequest awaits a response keyed by its ID.
	KindRequest
	// KindResponse completes the pending request with the same ID.
	KindResponse
)

var kindTexts = map[Kind]string{
	KindMessage:  "message",
	KindRequest:  "request",
	KindResponse: "response",
}

func (k Kind) String() string {
	if s, ok := kindTexts[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Envelope is a classified inbound value.
type Envelope struct {
	Kind     Kind
	ID       string      // requestId or responseId, empty for messages
	Body     interface{} // the body field, or the whole value for messages
	Error    interface{} // the error field of a response
	HasBody  bool
	HasError bool
	Value    interface{} // the decoded value as received
}

// Classify sorts a decoded value by the fields it carries: responseId makes
// it a response, otherwise requestId makes it a request, otherwise it is a
// plain message. Values that are not objects are always plain messages.
func Classify(decoded interface{}) (env Envelope) {
	env.Value = decoded
	env.Kind = KindMessage
	env.Body = decoded
	env.HasBody = true
	m, ok := decoded.(map[string]interface{})
	if !ok {
		return
	}
	if id, ok := m[FieldResponseID]; ok {
		env.Kind = KindResponse
		env.ID = idString(id)
		env.Body, env.HasBody = m[FieldBody]
		env.Error, env.HasError = m[FieldError]
		return
	}
	if id, ok := m[FieldRequestID]; ok {
		env.Kind = KindRequest
		env.ID = idString(id)
		env.Body, env.HasBody = m[FieldBody]
	}
	return
}

func idString(id interface{}) string {
	if s, ok := id.(string); ok {
		return s
	}
	return fmt.Sprint(id)
}

// BuildRequest returns the request envelope for id and body.
func BuildRequest(id string, body interface{}) map[string]interface{} {
	return map[string]interface{}{
		FieldRequestID: id,
		FieldBody:      body,
	}
}

// BuildResponse returns the successful response envelope for id.
func BuildResponse(id string, body interface{}) map[string]interface{} {
	return map[string]interface{}{
		FieldResponseID: id,
		FieldBody:       body,
	}
}

// BuildErrorResponse returns the error response envelope for id.
// A Go error is sent as its message text.
func BuildErrorResponse(id string, e interface{}) map[string]interface{} {
	if err, ok := e.(error); ok {
		e = err.Error()
	}
	return map[string]interface{}{
		FieldResponseID: id,
		FieldError:      e,
	}
}
