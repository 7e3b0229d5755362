package client

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Result is a resolved call: the response's status, headers and JSON body.
type Result struct {
	Status int
	Header http.Header
	Data   json.RawMessage
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Result) Decode(v any) error {
	if len(bytes.TrimSpace(r.Data)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Pending is a call in flight. It resolves exactly once.
type Pending struct {
	done chan struct{}
	res  *Result
	err  error
}

// resolved returns an already-completed Pending.
func resolved(res *Result, err error) *Pending {
	p := &Pending{done: make(chan struct{}), res: res, err: err}
	close(p.done)
	return p
}

// async runs fn on its own goroutine.
func async(fn func() (*Result, error)) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.res, p.err = fn()
	}()
	return p
}

// Done is closed once the call has resolved.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the call resolves and returns its outcome.
func (p *Pending) Wait() (*Result, error) {
	<-p.done
	return p.res, p.err
}
