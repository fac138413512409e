// Copyright 2018 Johan Lindh. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package rapport

import (
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

// ErrServerClosed is returned by Serve after Close.
var ErrServerClosed = errors.New("rapport: server closed")

// Server accepts WebSocket connections and serves a Socket for each.
type Server struct {
	Addr            string                              // TCP address to listen on, ":10111" if empty
	Handler         func(*Socket)                       // called for each new Socket before it is served
	Options         []Option                            // options for the Sockets
	Upgrader        websocket.Upgrader                  // upgrades HTTP requests to WebSockets
	FastCheckOrigin func(ctx *fasthttp.RequestCtx) bool // ServeFastHTTP origin check, same-origin if nil
	WriteTimeout    time.Duration                       // write timeout per message
	bytesWritten    int64
	bytesRead       int64
	mu              sync.Mutex
	serveErrorsMu   sync.Mutex
	serveErrors     map[string]int
	listeners       map[net.Listener]*http.Server
	activeSockets   map[*Socket]struct{}
	doneChan        chan struct{}
	netLog          bool
}

// tcpKeepAliveListener sets TCP keep-alive timeouts on accepted
// network connections so dead ones eventually go away.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}

// Listen announces on the local network address.
func (srv *Server) Listen(address string) (net.Listener, error) {
	ln, err := net.Listen("tcp", srv.getListenAddr(address))
	if err == nil {
		srv.Addr = ln.Addr().String()
		ln = tcpKeepAliveListener{ln.(*net.TCPListener)}
	}
	return ln, err
}

// DefaultListenAddr returns the default address:port
// to listen on.
func (srv *Server) DefaultListenAddr() string {
	return ":10111"
}

func (srv *Server) getListenAddr(addr string) string {
	if addr == "" {
		return srv.DefaultListenAddr()
	}
	return addr
}

// ListenAndServe listens on the TCP network address srv.Addr and then calls
// Serve to handle requests on incoming network connections.
// If srv.Addr is blank, ":10111" is used.
func (srv *Server) ListenAndServe() (err error) {
	listener, err := srv.Listen(srv.Addr)
	if err == nil {
		err = srv.Serve(listener)
	}
	return
}

// Serve accepts HTTP connections on l and upgrades them to Sockets.
// It always returns a non-nil error, ErrServerClosed after Close.
func (srv *Server) Serve(l net.Listener) error {
	hs := &http.Server{Handler: srv}

	srv.mu.Lock()
	select {
	case <-srv.getDoneChanLocked():
		srv.mu.Unlock()
		l.Close()
		return ErrServerClosed
	default:
	}
	srv.trackListenerLocked(l, hs)
	srv.mu.Unlock()
	defer srv.untrackListener(l)

	err := hs.Serve(l)
	select {
	case <-srv.getDoneChan():
		return ErrServerClosed
	default:
	}
	return err
}

// ServeHTTP upgrades the request to a WebSocket and serves it
// until the connection closes.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := srv.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the Upgrader has already replied with an HTTP error
		log.Print("Server.ServeHTTP(): ", err)
		return
	}
	srv.ServeTransport(NewWebsocketTransport(conn))
}

// ServeTransport wraps t in a Socket, hands it to srv.Handler and runs it
// until the connection closes.
func (srv *Server) ServeTransport(t *WebsocketTransport) {
	t.StatsCollector = srv
	if srv.WriteTimeout != 0 {
		t.WriteTimeout = srv.WriteTimeout
	}
	s := Wrap(t, srv.Options...)
	srv.mu.Lock()
	s.NetLog(srv.netLog)
	srv.mu.Unlock()
	if !srv.trackSocket(s, true) {
		// closed while upgrading
		t.Close(websocket.CloseGoingAway, nil)
	}
	defer srv.trackSocket(s, false)
	if srv.Handler != nil {
		srv.Handler(s)
	}
	if err := s.Serve(); err != nil && !IsClosedError(err) {
		srv.serveErrorsMu.Lock()
		defer srv.serveErrorsMu.Unlock()
		if srv.serveErrors == nil {
			srv.serveErrors = make(map[string]int)
		}
		srv.serveErrors[errors.Cause(err).Error()]++
	}
}

// NetLog enables or disables logging of every message on every Socket.
func (srv *Server) NetLog(state bool) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.netLog = state
	for s := range srv.activeSockets {
		s.NetLog(state)
	}
}

// ServeErrors returns a copy of the serve errors map
func (srv *Server) ServeErrors() map[string]int {
	srv.serveErrorsMu.Lock()
	defer srv.serveErrorsMu.Unlock()
	m := make(map[string]int)
	for k, v := range srv.serveErrors {
		m[k] = v
	}
	return m
}

func (srv *Server) trackListenerLocked(ln net.Listener, hs *http.Server) {
	if srv.listeners == nil {
		srv.listeners = make(map[net.Listener]*http.Server)
	}
	srv.listeners[ln] = hs
}

func (srv *Server) untrackListener(ln net.Listener) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	delete(srv.listeners, ln)
}

// trackSocket adds or removes s from the active set. Adding fails once
// the Server is closed.
func (srv *Server) trackSocket(s *Socket, add bool) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if add {
		select {
		case <-srv.getDoneChanLocked():
			return false
		default:
		}
		if srv.activeSockets == nil {
			srv.activeSockets = make(map[*Socket]struct{})
		}
		srv.activeSockets[s] = struct{}{}
	} else {
		delete(srv.activeSockets, s)
	}
	return true
}

func (srv *Server) getDoneChan() <-chan struct{} {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.getDoneChanLocked()
}

func (srv *Server) getDoneChanLocked() chan struct{} {
	if srv.doneChan == nil {
		srv.doneChan = make(chan struct{})
	}
	return srv.doneChan
}

func (srv *Server) closeDoneChanLocked() {
	ch := srv.getDoneChanLocked()
	select {
	case <-ch:
	default:
		close(ch)
	}
}

// Close stops the listeners and closes every active Socket with
// code 1001 (going away). It does not wait for the peers to acknowledge.
func (srv *Server) Close() (err error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.closeDoneChanLocked()
	for ln, hs := range srv.listeners {
		if cerr := hs.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(srv.listeners, ln)
	}
	for s := range srv.activeSockets {
		if cerr := s.CloseFunc("server closed", websocket.CloseGoingAway, 0, func(interface{}, error) {}); cerr != nil && err == nil {
			err = cerr
		}
	}
	return
}

// ActiveSockets returns the number of Sockets being served.
func (srv *Server) ActiveSockets() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return len(srv.activeSockets)
}

// AddBytesWritten adds n to the number of bytes written statistic.
func (srv *Server) AddBytesWritten(n int64) {
	atomic.AddInt64(&srv.bytesWritten, n)
}

// BytesWritten returns the current number of bytes written.
func (srv *Server) BytesWritten() int64 {
	return atomic.LoadInt64(&srv.bytesWritten)
}

// AddBytesRead adds n to the number of bytes read statistic.
func (srv *Server) AddBytesRead(n int64) {
	atomic.AddInt64(&srv.bytesRead, n)
}

// BytesRead returns the current number of bytes read.
func (srv *Server) BytesRead() int64 {
	return atomic.LoadInt64(&srv.bytesRead)
}
