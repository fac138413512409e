package rapport

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Gateway forwards plain HTTP requests to a rapport server as HTTP-style
// requests, relaying the responses back to the HTTP clients.
type Gateway struct {
	Client  *Client
	Timeout time.Duration // per request, zero for none
}

// NewGateway returns a Gateway for the rapport server at url.
// The Gateway implements the http.Handler interface.
func NewGateway(url string) *Gateway {
	return &Gateway{
		Client:  NewClient(url),
		Timeout: time.Second * 30,
	}
}

// Close closes the gateway's connection.
func (g *Gateway) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultCloseGracePeriod)
	defer cancel()
	return g.Client.Close(ctx)
}

// gatewayStatus maps a failed request to the HTTP status to reply with.
func gatewayStatus(err error) int {
	switch e := errors.Cause(err).(type) {
	case RemoteError:
		if status := e.Status(); status >= 400 && status < 600 {
			return status
		}
		return http.StatusInternalServerError
	case TimeoutError:
		return http.StatusGatewayTimeout
	}
	if errors.Cause(err) == context.DeadlineExceeded {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	s, err := g.Client.Socket(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	ser := s.Options().Serializer

	var body interface{}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(data) > 0 {
		if body, err = ser.Decode(data); err != nil {
			body = string(data)
		}
	}

	result, err := s.RequestWait(ctx, NewHTTPRequest(r.Method, r.URL.RequestURI(), body))
	if err != nil {
		status := gatewayStatus(err)
		if re, ok := errors.Cause(err).(RemoteError); ok {
			if m, isMap := re.Value.(map[string]interface{}); isMap {
				g.reply(w, ser, status, m[FieldBody])
				return
			}
		}
		http.Error(w, err.Error(), status)
		return
	}
	g.reply(w, ser, http.StatusOK, result)
}

func (g *Gateway) reply(w http.ResponseWriter, ser Serializer, status int, body interface{}) {
	if s, ok := body.(string); ok {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		io.WriteString(w, s)
		return
	}
	data, err := ser.Encode(body)
	if err != nil {
		log.Print("Gateway.ServeHTTP(): ", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
