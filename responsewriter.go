package rapport

import (
	"bytes"
	"log"
	"net/http"
	"strings"
)

// ResponseWriter implements http.ResponseWriter for a Responder.
// The response is buffered and sent when Flush is called.
type ResponseWriter struct {
	*Responder
	Code        int         // the HTTP response code from WriteHeader
	HeaderMap   http.Header // the HTTP response headers
	Body        bytes.Buffer
	Flushed     bool
	wroteHeader bool
}

// NewResponseWriter returns an initialized ResponseWriter.
func NewResponseWriter(res *Responder) *ResponseWriter {
	return &ResponseWriter{
		Responder: res,
		HeaderMap: make(http.Header),
		Code:      200,
	}
}

// Header returns the response headers.
func (rw *ResponseWriter) Header() http.Header {
	m := rw.HeaderMap
	if m == nil {
		m = make(http.Header)
		rw.HeaderMap = m
	}
	return m
}

// Write always succeeds and appends to rw.Body.
func (rw *ResponseWriter) Write(buf []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(200)
	}
	return rw.Body.Write(buf)
}

// WriteHeader sets rw.Code.
func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.Code = code
		rw.wroteHeader = true
	}
}

// Reset sets the ResponseWriter to the initial state.
func (rw *ResponseWriter) Reset() {
	rw.Code = 200
	rw.HeaderMap = nil
	rw.Body.Reset()
	rw.Flushed = false
	rw.wroteHeader = false
}

// body decodes the buffered body with the Socket's serializer,
// falling back to the trimmed text.
func (rw *ResponseWriter) body() interface{} {
	if rw.Body.Len() == 0 {
		return nil
	}
	if v, err := rw.Options().Serializer.Decode(rw.Body.Bytes()); err == nil {
		return v
	}
	return strings.TrimSpace(rw.Body.String())
}

// Flush sends the response, once. Codes of 400 and up are sent as an
// error response carrying the status and body.
func (rw *ResponseWriter) Flush() {
	if !rw.Flushed {
		if !rw.wroteHeader {
			rw.WriteHeader(200)
		}
		rw.Flushed = true
		var err error
		if rw.Code >= 400 {
			err = rw.RespondWithError(HTTPError(rw.Code, rw.body()))
		} else {
			err = rw.Respond(rw.body())
		}
		if err != nil {
			log.Print("ResponseWriter.Flush(): ", err.Error())
		}
	}
}
