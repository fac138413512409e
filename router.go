package rapport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

type socketContextKey struct{}

// SocketFromContext returns the Socket an HTTP-style request arrived on,
// or nil if the context didn't come from a Router.
func SocketFromContext(ctx context.Context) *Socket {
	s, _ := ctx.Value(socketContextKey{}).(*Socket)
	return s
}

// Router dispatches HTTP-style requests (see Socket.HTTP) to handlers
// registered on the embedded httprouter.Router. Use ServeRequest as the
// Socket's request handler.
type Router struct {
	*httprouter.Router
}

// NewRouter returns a Router. Handler panics become 500 responses.
func NewRouter() *Router {
	r := httprouter.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.PanicHandler = func(w http.ResponseWriter, req *http.Request, v interface{}) {
		http.Error(w, fmt.Sprint(v), http.StatusInternalServerError)
	}
	return &Router{Router: r}
}

// cleanPath trims surrounding slashes so "a/b/" and "/a/b" route alike.
func cleanPath(p string) string {
	return "/" + strings.Trim(p, "/")
}

// NewHTTPRequestFor builds the *http.Request for an HTTP-style request,
// encoding the body with ser.
func NewHTTPRequestFor(ctx context.Context, hr HTTPRequest, ser Serializer) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if hr.Body != nil {
		data, err := ser.Encode(hr.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	r, err := http.NewRequestWithContext(ctx, hr.Method, hr.URL, body)
	if err != nil {
		return nil, err
	}
	r.URL.Path = cleanPath(r.URL.Path)
	r.URL.RawPath = ""
	r.RequestURI = hr.URL
	if hr.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	return r, nil
}

// ServeRequest runs the handler chain for an HTTP-style request and sends
// what it wrote as the response. Requests that aren't HTTP-style get a 400.
func (rt *Router) ServeRequest(req *Message, res *Responder) {
	hr, ok := ParseHTTPRequest(req.Body)
	if !ok {
		if err := res.RespondWithError(HTTPError(http.StatusBadRequest, "not an HTTP-style request")); err != nil {
			log.Print("Router.ServeRequest(): ", err)
		}
		return
	}
	ctx := context.WithValue(context.Background(), socketContextKey{}, res.Socket)
	r, err := NewHTTPRequestFor(ctx, hr, res.Options().Serializer)
	if err != nil {
		if err = res.RespondWithError(HTTPError(http.StatusBadRequest, err.Error())); err != nil {
			log.Print("Router.ServeRequest(): ", err)
		}
		return
	}
	rw := NewResponseWriter(res)
	rt.Router.ServeHTTP(rw, r)
	rw.Flush()
}
