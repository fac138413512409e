package rapport

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPRequest is the body of an HTTP-style request.
type HTTPRequest struct {
	Method string
	URL    string
	Body   interface{}
}

// NewHTTPRequest returns the request body for an HTTP-style request.
func NewHTTPRequest(method, route string, body interface{}) map[string]interface{} {
	return map[string]interface{}{
		"method": strings.ToUpper(method),
		"url":    route,
		"body":   body,
	}
}

// ParseHTTPRequest extracts an HTTP-style request from a request body.
// Returns false if body isn't one.
func ParseHTTPRequest(body interface{}) (hr HTTPRequest, ok bool) {
	m, isMap := body.(map[string]interface{})
	if !isMap {
		return
	}
	if hr.Method, ok = m["method"].(string); !ok || hr.Method == "" {
		return hr, false
	}
	if hr.URL, ok = m["url"].(string); !ok {
		return hr, false
	}
	hr.Method = strings.ToUpper(hr.Method)
	hr.Body = m["body"]
	return hr, true
}

// HTTPError is the error body sent back for HTTP-style requests that fail.
func HTTPError(status int, body interface{}) map[string]interface{} {
	return map[string]interface{}{
		"status": status,
		"body":   body,
	}
}

// HTTP makes an HTTP-style request with the given method, route and body.
// A peer using a Router answers with the response body, or rejects with a
// RemoteError whose Status is the HTTP status.
func (s *Socket) HTTP(method, route string, body interface{}, timeout time.Duration) (Promise, error) {
	return s.Request(NewHTTPRequest(method, route, body), timeout)
}

// Get makes a GET request, appending query to the url.
func (s *Socket) Get(route string, query url.Values, timeout time.Duration) (Promise, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(route, "?") {
			sep = "&"
		}
		route += sep + query.Encode()
	}
	return s.HTTP(http.MethodGet, route, nil, timeout)
}

// Post makes a POST request.
func (s *Socket) Post(route string, body interface{}, timeout time.Duration) (Promise, error) {
	return s.HTTP(http.MethodPost, route, body, timeout)
}

// Put makes a PUT request.
func (s *Socket) Put(route string, body interface{}, timeout time.Duration) (Promise, error) {
	return s.HTTP(http.MethodPut, route, body, timeout)
}

// Patch makes a PATCH request.
func (s *Socket) Patch(route string, body interface{}, timeout time.Duration) (Promise, error) {
	return s.HTTP(http.MethodPatch, route, body, timeout)
}

// Delete makes a DELETE request.
func (s *Socket) Delete(route string, body interface{}, timeout time.Duration) (Promise, error) {
	return s.HTTP(http.MethodDelete, route, body, timeout)
}
