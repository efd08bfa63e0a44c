// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package azuretesting provides an HTTP transport returning canned
// responses, for testing clients built on the Azure SDK pipeline.
package azuretesting

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/juju/errors"
)

// MockSender is a policy.Transporter that records requests and
// replays queued responses in order.
type MockSender struct {
	mu        sync.Mutex
	responses []*http.Response
	repeat    *http.Response
	errs      []error
	requests  []*http.Request
	bodies    [][]byte
}

// AppendResponse queues a response.
func (m *MockSender) AppendResponse(resp *http.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	m.errs = append(m.errs, nil)
}

// AppendError queues a transport error.
func (m *MockSender) AppendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, nil)
	m.errs = append(m.errs, err)
}

// AppendAndRepeatResponse queues a response returned for every
// request once the queue is empty.
func (m *MockSender) AppendAndRepeatResponse(resp *http.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = resp
}

// Do is part of the policy.Transporter interface.
func (m *MockSender) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = io.ReadAll(req.Body); err != nil {
			return nil, errors.Trace(err)
		}
		req.Body.Close()
	}
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	var resp *http.Response
	switch {
	case len(m.responses) > 0:
		resp, m.responses = m.responses[0], m.responses[1:]
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	case m.repeat != nil:
		resp = copyResponse(m.repeat)
	default:
		return nil, errors.Errorf("no response queued for %s %s", req.Method, req.URL)
	}
	resp.Request = req
	return resp, nil
}

// Requests returns the requests sent so far.
func (m *MockSender) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request{}, m.requests...)
}

// RequestBody returns the body of the i'th request.
func (m *MockSender) RequestBody(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.bodies[i])
}

// NewResponseWithContent returns a 200 OK response with the given body.
func NewResponseWithContent(content string) *http.Response {
	resp := NewResponseWithStatus("200 OK", http.StatusOK)
	resp.Body = io.NopCloser(bytes.NewBufferString(content))
	resp.ContentLength = int64(len(content))
	resp.Header.Set("Content-Type", "application/xml; charset=utf-8")
	return resp
}

// NewResponseWithStatus returns an empty response with the given status.
func NewResponseWithStatus(status string, code int) *http.Response {
	return &http.Response{
		Status:     status,
		StatusCode: code,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}
}

// NewResponseWithBodyAndStatus returns a response with the given body
// and status code.
func NewResponseWithBodyAndStatus(content string, code int) *http.Response {
	resp := NewResponseWithContent(content)
	resp.StatusCode = code
	resp.Status = fmt.Sprintf("%d %s", code, http.StatusText(code))
	return resp
}

// SetRequestID sets the x-ms-request-id header of resp and returns it.
func SetRequestID(resp *http.Response, id string) *http.Response {
	resp.Header.Set("x-ms-request-id", id)
	return resp
}

func copyResponse(resp *http.Response) *http.Response {
	var body []byte
	if resp.Body != nil {
		body, _ = io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}
	out := *resp
	out.Header = resp.Header.Clone()
	out.Body = io.NopCloser(bytes.NewReader(body))
	return &out
}
