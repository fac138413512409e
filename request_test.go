package rapport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Request_sends_envelope(t *testing.T) {
	s, mt := newMockSocket(WithRequestIDGenerator(func() string { return "req-1" }))
	p, err := s.Request(map[string]interface{}{"q": 1}, 0)
	require.NoError(t, err)
	require.NotNil(t, p)
	m := mt.lastSent(t)
	assert.Equal(t, "req-1", m[FieldRequestID])
	assert.Equal(t, map[string]interface{}{"q": float64(1)}, m[FieldBody])
	assert.Equal(t, 1, s.Pending())
}

func Test_Request_resolved_by_response(t *testing.T) {
	s, mt := newMockSocket()
	p, err := s.Request("ping", 0)
	require.NoError(t, err)
	mt.deliverValue(t, BuildResponse(mt.lastRequestID(t), "pong"))
	v, err := waitPromise(t, p)
	assert.NoError(t, err)
	assert.Equal(t, "pong", v)
	assert.Equal(t, 0, s.Pending())
}

func Test_Request_rejected_by_error_response(t *testing.T) {
	s, mt := newMockSocket()
	p, err := s.Request("ping", 0)
	require.NoError(t, err)
	mt.deliverValue(t, BuildErrorResponse(mt.lastRequestID(t), "nope"))
	_, err = waitPromise(t, p)
	require.Error(t, err)
	re, ok := pkgerrors.Cause(err).(RemoteError)
	require.True(t, ok)
	assert.Equal(t, "nope", re.Value)
	assert.Equal(t, "nope", err.Error())
}

func Test_Request_timeout(t *testing.T) {
	defer leaktest.Check(t)()
	s, mt := newMockSocket()
	p, err := s.Request("slow", 20*time.Millisecond)
	require.NoError(t, err)
	id := mt.lastRequestID(t)
	_, err = waitPromise(t, p)
	require.Error(t, err)
	te, ok := pkgerrors.Cause(err).(TimeoutError)
	require.True(t, ok)
	assert.Equal(t, "Timed out after 20 ms", te.Error())
	assert.Equal(t, 0, s.Pending())

	// a late response is dropped
	mt.deliverValue(t, BuildResponse(id, "too late"))
	assert.Equal(t, 0, s.Pending())
}

func Test_Request_response_beats_timeout(t *testing.T) {
	defer leaktest.Check(t)()
	s, mt := newMockSocket()
	calls := make(chan error, 2)
	require.NoError(t, s.RequestFunc("fast", 30*time.Millisecond, func(v interface{}, err error) {
		calls <- err
	}))
	mt.deliverValue(t, BuildResponse(mt.lastRequestID(t), 1))
	assert.NoError(t, <-calls)
	time.Sleep(60 * time.Millisecond)
	assert.Len(t, calls, 0, "callback must run exactly once")
}

func Test_Request_send_failure_rejects(t *testing.T) {
	s, mt := newMockSocket()
	mt.sendErr = errors.New("socket is gone")
	p, err := s.Request("x", 0)
	require.NoError(t, err)
	_, err = waitPromise(t, p)
	require.Error(t, err)
	se, ok := pkgerrors.Cause(err).(SendError)
	require.True(t, ok)
	assert.Equal(t, mt.sendErr, se.Err)
	assert.Equal(t, 0, s.Pending())
}

func Test_Request_encode_failure_rejects(t *testing.T) {
	s, _ := newMockSocket()
	p, err := s.Request(make(chan int), 0)
	require.NoError(t, err)
	_, err = waitPromise(t, p)
	assert.Error(t, err)
	assert.Equal(t, 0, s.Pending())
}

func Test_Request_without_promise_implementation(t *testing.T) {
	s, mt := newMockSocket(WithPromise(nil))
	p, err := s.Request("x", 0)
	assert.Nil(t, p)
	require.Error(t, err)
	ce, ok := pkgerrors.Cause(err).(ConfigurationError)
	require.True(t, ok)
	assert.Equal(t, "can't make a request without a Promise implementation or callback", ce.Error())
	assert.Zero(t, mt.sentCount(), "nothing may be sent")
	assert.Equal(t, 0, s.Pending())

	// callbacks still work
	done := make(chan interface{}, 1)
	require.NoError(t, s.RequestFunc("y", 0, func(v interface{}, err error) { done <- v }))
	mt.deliverValue(t, BuildResponse(mt.lastRequestID(t), "ok"))
	assert.Equal(t, "ok", <-done)
}

func Test_Request_duplicate_id(t *testing.T) {
	s, mt := newMockSocket(WithRequestIDGenerator(func() string { return "same" }))
	_, err := s.Request("a", 0)
	require.NoError(t, err)
	_, err = s.Request("b", 0)
	assert.Error(t, err)
	assert.Equal(t, 1, mt.sentCount())
	assert.Equal(t, 1, s.Pending())
}

func Test_Request_custom_promise(t *testing.T) {
	made := 0
	s, mt := newMockSocket(WithPromise(func() Promise { made++; return NewCall() }))
	p, err := s.Request("x", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, made)
	mt.deliverValue(t, BuildResponse(mt.lastRequestID(t), json.Number("3")))
	v, err := waitPromise(t, p)
	assert.NoError(t, err)
	assert.Equal(t, json.Number("3"), v)
}

func Test_RequestWait(t *testing.T) {
	defer leaktest.Check(t)()
	s, mt := newMockSocket()
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		v, err := s.RequestWait(ctx, "hello")
		assert.NoError(t, err)
		assert.Equal(t, "world", v)
	}()
	require.Eventually(t, func() bool { return mt.sentCount() == 1 }, time.Second, time.Millisecond)
	mt.deliverValue(t, BuildResponse(mt.lastRequestID(t), "world"))
	<-done
	assert.Equal(t, 0, s.Pending())
}

func Test_RequestWait_works_without_promises(t *testing.T) {
	defer leaktest.Check(t)()
	s, mt := newMockSocket(WithPromise(nil))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.RequestWait(ctx, "hello")
	require.Error(t, err)
	assert.Equal(t, 1, mt.sentCount())
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, time.Millisecond)
}

func Test_RequestWait_expired_context(t *testing.T) {
	s, mt := newMockSocket()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := s.RequestWait(ctx, "hello")
	assert.Equal(t, context.DeadlineExceeded, pkgerrors.Cause(err))
	assert.Zero(t, mt.sentCount())
}

func Test_RequestWait_cancel_drops_request(t *testing.T) {
	defer leaktest.Check(t)()
	s, mt := newMockSocket()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.RequestWait(ctx, "hello")
		done <- err
	}()
	require.Eventually(t, func() bool { return mt.sentCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, s.Pending())
	cancel()
	assert.Equal(t, context.Canceled, <-done)
	assert.Equal(t, 0, s.Pending())
	mt.deliverValue(t, BuildResponse(mt.lastRequestID(t), "late"))
	assert.Equal(t, 0, s.Pending())
}
