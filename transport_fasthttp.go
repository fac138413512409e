package rapport

import (
	fastws "github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

// NewFastHTTPTransport wraps a fasthttp/websocket connection.
func NewFastHTTPTransport(conn *fastws.Conn) *WebsocketTransport {
	return newWebsocketTransport(conn, fastCloseInfo)
}

func fastCloseInfo(err error) (int, string, bool) {
	if ce, ok := errors.Cause(err).(*fastws.CloseError); ok {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}
