// Copyright 2018 Johan Lindh. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package rapport

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// wsConn is the part of a WebSocket connection the adapter needs.
// Both gorilla/websocket and fasthttp/websocket connections satisfy it.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// closeDecoder extracts the close code and text from a read error,
// returning ok false if the error was not caused by a close frame.
type closeDecoder func(err error) (code int, text string, ok bool)

// WebsocketTransport adapts a WebSocket connection to the Transport interface.
// Events are delivered from Run, which must be running for the Socket to
// receive anything.
type WebsocketTransport struct {
	StatsCollector                 // Where to report statistics (optional)
	WriteTimeout     time.Duration // write timeout per message, zero for none
	CloseGracePeriod time.Duration // how long to wait for the peer's close frame
	conn             wsConn
	closeInfo        closeDecoder
	wmu              sync.Mutex // serializes writes
	mu               sync.Mutex // protects those below
	onOpen           func()
	onError          func(error)
	onClose          func(int, []byte)
	onMessage        func([]byte)
	runOnce          sync.Once
	doneChan         chan struct{}
}

func newWebsocketTransport(conn wsConn, closeInfo closeDecoder) *WebsocketTransport {
	return &WebsocketTransport{
		WriteTimeout:     DefaultWriteTimeout,
		CloseGracePeriod: DefaultCloseGracePeriod,
		conn:             conn,
		closeInfo:        closeInfo,
		doneChan:         make(chan struct{}),
	}
}

// NewWebsocketTransport wraps a gorilla/websocket connection.
func NewWebsocketTransport(conn *websocket.Conn) *WebsocketTransport {
	return newWebsocketTransport(conn, gorillaCloseInfo)
}

func gorillaCloseInfo(err error) (int, string, bool) {
	if ce, ok := errors.Cause(err).(*websocket.CloseError); ok {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// OnOpen sets the handler called when Run starts.
func (t *WebsocketTransport) OnOpen(handler func()) {
	t.mu.Lock()
	t.onOpen = handler
	t.mu.Unlock()
}

// OnError sets the handler called when the connection fails.
func (t *WebsocketTransport) OnError(handler func(error)) {
	t.mu.Lock()
	t.onError = handler
	t.mu.Unlock()
}

// OnClose sets the handler called once when the connection has closed.
func (t *WebsocketTransport) OnClose(handler func(int, []byte)) {
	t.mu.Lock()
	t.onClose = handler
	t.mu.Unlock()
}

// OnMessage sets the handler called for each data message, in arrival order.
func (t *WebsocketTransport) OnMessage(handler func([]byte)) {
	t.mu.Lock()
	t.onMessage = handler
	t.mu.Unlock()
}

func (t *WebsocketTransport) handlers() (onOpen func(), onError func(error), onClose func(int, []byte), onMessage func([]byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.onOpen, t.onError, t.onClose, t.onMessage
}

func (t *WebsocketTransport) writeDeadline() (d time.Time) {
	if t.WriteTimeout != 0 {
		d = time.Now().Add(t.WriteTimeout)
	}
	return
}

// Send writes data as a single text message.
func (t *WebsocketTransport) Send(data []byte) (err error) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err = t.conn.SetWriteDeadline(t.writeDeadline()); err == nil {
		err = t.conn.WriteMessage(websocket.TextMessage, data)
	}
	if err == nil && t.StatsCollector != nil {
		t.StatsCollector.AddBytesWritten(int64(len(data)))
	}
	return errors.WithStack(err)
}

// Close sends a close frame and gives the peer CloseGracePeriod to answer.
// The reason is truncated to fit a control frame.
func (t *WebsocketTransport) Close(code int, reason []byte) (err error) {
	reason = truncateReason(reason)
	t.wmu.Lock()
	defer t.wmu.Unlock()
	msg := websocket.FormatCloseMessage(code, string(reason))
	if err = t.conn.WriteControl(websocket.CloseMessage, msg, t.writeDeadline()); err != nil {
		// can't say goodbye, so just hang up
		t.conn.Close()
		return errors.WithStack(err)
	}
	if t.CloseGracePeriod != 0 {
		t.conn.SetReadDeadline(time.Now().Add(t.CloseGracePeriod))
	}
	return nil
}

// truncateReason cuts reason to MaxCloseReasonSize bytes without
// splitting a UTF-8 sequence, peers fail the connection on invalid text.
func truncateReason(reason []byte) []byte {
	if len(reason) <= MaxCloseReasonSize {
		return reason
	}
	n := MaxCloseReasonSize
	for n > 0 && !utf8.RuneStart(reason[n]) {
		n--
	}
	return reason[:n]
}

// Done returns a channel that is closed when Run has returned.
func (t *WebsocketTransport) Done() <-chan struct{} {
	return t.doneChan
}

// Run reads messages until the connection closes. It fires the open handler
// first, then the message handler for every data message, then exactly one
// close. A close frame from the peer ends Run with a nil error.
func (t *WebsocketTransport) Run() (err error) {
	ran := false
	t.runOnce.Do(func() {
		ran = true
		err = t.run()
	})
	if !ran {
		<-t.doneChan
	}
	return
}

func (t *WebsocketTransport) run() (err error) {
	defer close(t.doneChan)

	if onOpen, _, _, _ := t.handlers(); onOpen != nil {
		onOpen()
	}

	for {
		var mt int
		var data []byte
		if mt, data, err = t.conn.ReadMessage(); err != nil {
			break
		}
		if t.StatsCollector != nil {
			t.StatsCollector.AddBytesRead(int64(len(data)))
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			if _, _, _, onMessage := t.handlers(); onMessage != nil {
				onMessage(data)
			}
		}
	}

	code, text, ok := t.closeInfo(err)
	if ok {
		err = nil
	} else {
		if _, onError, _, _ := t.handlers(); onError != nil {
			onError(err)
		}
		code, text = AbnormalCloseCode, AbnormalCloseMessage
	}

	t.conn.Close()

	if _, _, onClose, _ := t.handlers(); onClose != nil {
		onClose(code, []byte(text))
	}
	return errors.WithStack(err)
}
