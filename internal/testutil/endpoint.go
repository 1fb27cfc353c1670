package testutil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// Endpoint is an in-process http.RoundTripper standing in for the remote
// delivery endpoint. It records every request body and answers with a
// scripted status sequence (the last status repeats once the script runs
// out; an empty script answers 200).
type Endpoint struct {
	mu       sync.Mutex
	statuses []int
	calls    int
	bodies   [][]byte
	auth     []string
}

// NewEndpoint creates an endpoint answering the given status sequence.
func NewEndpoint(statuses ...int) *Endpoint {
	return &Endpoint{statuses: statuses}
}

// Client returns an http.Client routed to this endpoint.
func (e *Endpoint) Client() *http.Client {
	return &http.Client{Transport: e}
}

// RoundTrip implements http.RoundTripper.
func (e *Endpoint) RoundTrip(req *http.Request) (*http.Response, error) {
	body := []byte{}
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	e.mu.Lock()
	status := http.StatusOK
	if len(e.statuses) > 0 {
		idx := e.calls
		if idx >= len(e.statuses) {
			idx = len(e.statuses) - 1
		}
		status = e.statuses[idx]
	}
	e.calls++
	e.bodies = append(e.bodies, body)
	e.auth = append(e.auth, req.Header.Get("Authorization"))
	e.mu.Unlock()

	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// Calls returns how many requests the endpoint answered.
func (e *Endpoint) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Body returns the nth recorded request body.
func (e *Endpoint) Body(n int) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bodies[n]
}

// Authorization returns the nth recorded Authorization header.
func (e *Endpoint) Authorization(n int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auth[n]
}
