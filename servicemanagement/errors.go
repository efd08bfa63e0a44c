// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package servicemanagement

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/juju/errors"
)

// Error is a failed management API request.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code == "" {
		return fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Code, msg, e.StatusCode)
}

// Is lets errors.IsNotFound and errors.IsUnauthorized recognise
// the corresponding management API failures.
func (e *Error) Is(target error) bool {
	switch target {
	case errors.NotFound:
		return e.StatusCode == http.StatusNotFound || e.Code == "ResourceNotFound"
	case errors.Unauthorized:
		return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusUnauthorized
	case errors.BadRequest:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

type errorBody struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

func newError(resp *http.Response) error {
	e := &Error{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get(headerRequestID),
	}
	payload, err := runtime.Payload(resp)
	if err == nil && len(payload) > 0 {
		var body errorBody
		if xml.Unmarshal(payload, &body) == nil {
			e.Code = body.Code
			e.Message = body.Message
		}
	}
	return e
}

// IsConflict reports whether err is a conflict, returned while another
// operation holds the deployment.
func IsConflict(err error) bool {
	e, ok := errors.AsType[*Error](err)
	return ok && e.StatusCode == http.StatusConflict
}

// IsThrottled reports whether the service refused err's request
// because too many requests were made.
func IsThrottled(err error) bool {
	e, ok := errors.AsType[*Error](err)
	if !ok {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests ||
		(e.StatusCode == http.StatusServiceUnavailable && e.Code == "ServerBusy")
}
