package rapport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestResponseWriter() (*ResponseWriter, *mockTransport) {
	s, mt := newMockSocket()
	return NewResponseWriter(newResponder(s, "rw")), mt
}

func Test_ResponseWriter_NewResponseWriter(t *testing.T) {
	rw := NewResponseWriter(nil)
	assert.NotNil(t, rw)
	assert.Equal(t, 200, rw.Code)
}

func Test_ResponseWriter_Header(t *testing.T) {
	rw := &ResponseWriter{}
	assert.NotNil(t, rw.Header())
}

func Test_ResponseWriter_Write_WriteHeader(t *testing.T) {
	rw, _ := newTestResponseWriter()
	n, err := rw.Write([]byte{'1'})
	assert.Equal(t, 1, n)
	assert.NoError(t, err)
	rw.WriteHeader(404)
	assert.Equal(t, 200, rw.Code, "status is fixed by the first write")
}

func Test_ResponseWriter_Flush_json(t *testing.T) {
	rw, mt := newTestResponseWriter()
	rw.Write([]byte(`{"a":[1,2]}`))
	rw.Flush()
	rw.Flush()
	assert.Equal(t, 1, mt.sentCount())
	m := mt.lastSent(t)
	assert.Equal(t, "rw", m[FieldResponseID])
	assert.Equal(t, map[string]interface{}{"a": []interface{}{float64(1), float64(2)}}, m[FieldBody])
}

func Test_ResponseWriter_Flush_text(t *testing.T) {
	rw, mt := newTestResponseWriter()
	rw.Write([]byte("Hello, World!\n"))
	rw.Flush()
	assert.Equal(t, "Hello, World!", mt.lastSent(t)[FieldBody])
}

func Test_ResponseWriter_Flush_empty(t *testing.T) {
	rw, mt := newTestResponseWriter()
	rw.Flush()
	m := mt.lastSent(t)
	body, ok := m[FieldBody]
	assert.True(t, ok)
	assert.Nil(t, body)
}

func Test_ResponseWriter_Flush_error_status(t *testing.T) {
	rw, mt := newTestResponseWriter()
	rw.WriteHeader(418)
	rw.Write([]byte("teapot"))
	rw.Flush()
	m := mt.lastSent(t)
	_, hasBody := m[FieldBody]
	assert.False(t, hasBody)
	assert.Equal(t, map[string]interface{}{"status": float64(418), "body": "teapot"}, m[FieldError])
}

func Test_ResponseWriter_Reset(t *testing.T) {
	rw, mt := newTestResponseWriter()
	rw.WriteHeader(500)
	rw.Write([]byte("x"))
	rw.Flush()
	rw.Reset()
	assert.Equal(t, 200, rw.Code)
	assert.Zero(t, rw.Body.Len())
	assert.False(t, rw.Flushed)
	rw.Flush()
	assert.Equal(t, 2, mt.sentCount())
}
