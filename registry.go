// Copyright 2018 Johan Lindh. All rights reserved.
// Use of this source code is governed by the MIT license, see the LICENSE file.

package rapport

import (
	"fmt"
	"log"
	"sync"
)

// pending is a completion sink for one outstanding request.
// Exactly one of cb or the resolve/reject pair is set.
type pending struct {
	resolve func(interface{})
	reject  func(error)
	cb      Callback
}

func (p pending) complete(v interface{}, err error) {
	if p.cb != nil {
		if err != nil {
			p.cb(nil, err)
		} else {
			p.cb(v, nil)
		}
		return
	}
	if err != nil {
		p.reject(err)
	} else {
		p.resolve(v)
	}
}

// Registry maps request IDs to the sinks waiting for their completion.
// Each Socket owns one, so concurrent connections never complete each
// other's requests. An ID present in the map has not been completed yet.
type Registry struct {
	mu       sync.Mutex // protects requests
	requests map[string]pending
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{requests: make(map[string]pending)}
}

func (r *Registry) add(id string, p pending) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[id]; exists {
		return false
	}
	r.requests[id] = p
	return true
}

// AddPromise registers a resolve/reject pair under id.
// Returns false, leaving the registry untouched, if id is already pending.
func (r *Registry) AddPromise(id string, resolve func(interface{}), reject func(error)) bool {
	return r.add(id, pending{resolve: resolve, reject: reject})
}

// AddCallback registers cb under id.
// Returns false, leaving the registry untouched, if id is already pending.
func (r *Registry) AddCallback(id string, cb Callback) bool {
	return r.add(id, pending{cb: cb})
}

// remove takes the entry for id out of the map.
func (r *Registry) remove(id string) (p pending, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok = r.requests[id]; ok {
		delete(r.requests, id)
	}
	return
}

// Resolve completes the request id with v. The entry is removed before
// its sink runs, so later completions of the same id are no-ops.
// Returns false if id was not pending.
func (r *Registry) Resolve(id string, v interface{}) bool {
	p, ok := r.remove(id)
	if ok {
		p.complete(v, nil)
	}
	return ok
}

// Reject fails the request id with err. See Resolve.
func (r *Registry) Reject(id string, err error) bool {
	p, ok := r.remove(id)
	if ok {
		p.complete(nil, err)
	}
	return ok
}

// takeAll empties the registry and returns what it held.
func (r *Registry) takeAll() (m map[string]pending) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m = r.requests
	r.requests = make(map[string]pending)
	return
}

// RejectAll rejects every request pending at the time of the call with err
// and returns how many there were. Requests registered by the sinks while
// this runs are left pending. A sink that panics is logged and does not
// prevent the others from being notified.
func (r *Registry) RejectAll(err error) int {
	m := r.takeAll()
	for id, p := range m {
		completeIsolated(id, p, nil, err)
	}
	return len(m)
}

// ResolveAll resolves every pending request with v. See RejectAll.
func (r *Registry) ResolveAll(v interface{}) int {
	m := r.takeAll()
	for id, p := range m {
		completeIsolated(id, p, v, nil)
	}
	return len(m)
}

func completeIsolated(id string, p pending, v interface{}, err error) {
	defer func() {
		if e := recover(); e != nil {
			log.Print("Registry: sink for ", id, " panicked: ", fmt.Sprint(e))
		}
	}()
	p.complete(v, err)
}

// Len returns the number of pending requests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// Has returns true if id is pending.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.requests[id]
	return ok
}
