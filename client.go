package rapport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Dial connects to the WebSocket server at url and returns a Socket for
// the connection. The caller must run Serve on the Socket to receive
// anything. The *http.Response is the handshake response, which may be
// non-nil even when err is not.
func Dial(ctx context.Context, url string, header http.Header, opts ...Option) (*Socket, *http.Response, error) {
	return dial(ctx, websocket.DefaultDialer, url, header, opts...)
}

func dial(ctx context.Context, dialer *websocket.Dialer, url string, header http.Header, opts ...Option) (*Socket, *http.Response, error) {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, resp, errors.WithStack(err)
	}
	return Wrap(NewWebsocketTransport(conn), opts...), resp, nil
}

// Client keeps one Socket connected to a server, dialing as needed.
type Client struct {
	URL          string            // the WebSocket URL to dial
	Header       http.Header       // extra handshake headers
	DialTimeout  time.Duration     // dialing timeout
	Options      []Option          // options for the Sockets
	Dialer       *websocket.Dialer // dialer to use, websocket.DefaultDialer if nil
	OnConnect    func(s *Socket)   // called for each new Socket before it is served
	mu           sync.Mutex        // protects those below
	sock         *Socket
	lastError    error
	lastAttempt  time.Time
	firstAttempt time.Time
}

// NewClient returns a Client for the server at url. No connection is
// made until Socket is called.
func NewClient(url string) *Client {
	return &Client{
		URL:         url,
		DialTimeout: time.Second * 60,
	}
}

func (c *Client) liveLocked() *Socket {
	if c.sock != nil {
		select {
		case <-c.sock.Done():
			c.sock = nil
		default:
		}
	}
	return c.sock
}

func (c *Client) offlineError() (err error) {
	if err = c.lastError; err == nil {
		err = fmt.Errorf("upstream server unresponsive")
	}
	if c.firstAttempt != c.lastAttempt {
		err = fmt.Errorf("%v; no response for %v",
			err, time.Since(c.firstAttempt))
	}
	return
}

// Socket returns the connected Socket, dialing a new one if there is none.
func (c *Client) Socket(ctx context.Context) (*Socket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.liveLocked(); s != nil {
		return s, nil
	}
	if c.DialTimeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.DialTimeout)
		defer cancel()
	}
	s, _, err := dial(ctx, c.Dialer, c.URL, c.Header, c.Options...)
	if err != nil {
		c.lastError = err
		c.lastAttempt = time.Now()
		if c.firstAttempt.IsZero() {
			c.firstAttempt = c.lastAttempt
		}
		return nil, c.offlineError()
	}
	c.lastError = nil
	c.lastAttempt = time.Time{}
	c.firstAttempt = time.Time{}
	if c.OnConnect != nil {
		c.OnConnect(s)
	}
	c.sock = s
	go s.Serve()
	return s, nil
}

// Close closes the current Socket, if any, and waits for the close
// to finish or ctx to be done.
func (c *Client) Close(ctx context.Context) (err error) {
	c.mu.Lock()
	s := c.liveLocked()
	c.sock = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	if err = s.CloseFunc(nil, 0, 0, func(interface{}, error) {}); err == nil {
		select {
		case <-s.Done():
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	return
}
