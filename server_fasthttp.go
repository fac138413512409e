package rapport

import (
	"log"

	fastws "github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
)

// ServeFastHTTP is the valyala/fasthttp request handler. It upgrades the
// request and serves the Socket like ServeHTTP does.
func (srv *Server) ServeFastHTTP(ctx *fasthttp.RequestCtx) {
	upgrader := fastws.FastHTTPUpgrader{
		HandshakeTimeout:  srv.Upgrader.HandshakeTimeout,
		ReadBufferSize:    srv.Upgrader.ReadBufferSize,
		WriteBufferSize:   srv.Upgrader.WriteBufferSize,
		Subprotocols:      srv.Upgrader.Subprotocols,
		EnableCompression: srv.Upgrader.EnableCompression,
	}
	if upgrader.CheckOrigin = srv.FastCheckOrigin; upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = fastCheckSameOrigin
	}
	err := upgrader.Upgrade(ctx, func(conn *fastws.Conn) {
		srv.ServeTransport(NewFastHTTPTransport(conn))
	})
	if err != nil {
		log.Print("Server.ServeFastHTTP(): ", err)
	}
}

// fastCheckSameOrigin accepts requests without an Origin header, or
// where the Origin host matches the Host header.
func fastCheckSameOrigin(ctx *fasthttp.RequestCtx) bool {
	origin := ctx.Request.Header.Peek("Origin")
	if len(origin) == 0 {
		return true
	}
	u := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(u)
	if err := u.Parse(nil, origin); err != nil {
		return false
	}
	return string(u.Host()) == string(ctx.Host())
}
