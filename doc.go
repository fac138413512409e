// Copyright 2018 Johan Lindh. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

/*
Package rapport adds request/response semantics to WebSockets.

A WebSocket only delivers messages one way at a time. Rapport wraps a socket so that a caller can send a request and later receive the matching response, an error response from the peer, a timeout or a closure error, without tracking correlation identifiers itself.

Every wrapped socket (a Socket) owns a Registry of pending requests keyed by request ID. Outbound requests are registered before they are sent, inbound responses complete them, and closing the socket (locally or remotely) rejects whatever is still pending before the close handler runs.

On the wire there are three envelope shapes, told apart by the fields present:

	{"requestId": "...", "body": ...}    a request awaiting a response
	{"responseId": "...", "body": ...}   a successful response
	{"responseId": "...", "error": ...}  an error response
	anything else                        a plain message

The Transport interface normalizes the underlying socket. Adapters exist for gorilla/websocket and fasthttp/websocket. A Router built on httprouter gives HTTP-style verb and path dispatch on top of requests.
*/
package rapport
