// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package servicemanagement

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/juju/errors"
	"github.com/juju/retry"
)

// OperationStatus is the state of an asynchronous operation.
type OperationStatus string

const (
	OperationInProgress OperationStatus = "InProgress"
	OperationSucceeded  OperationStatus = "Succeeded"
	OperationFailed     OperationStatus = "Failed"
)

// Operation identifies a request made to the service and its outcome.
type Operation struct {
	ID             string          `xml:"ID"`
	Status         OperationStatus `xml:"Status"`
	HTTPStatusCode int             `xml:"-"`
	Error          *OperationError `xml:"Error"`
}

// OperationError describes why an asynchronous operation failed.
type OperationError struct {
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

const (
	operationPollDelay    = time.Second
	operationPollMaxDelay = 15 * time.Second
	operationTimeout      = 20 * time.Minute
)

var errOperationInProgress = errors.New("operation in progress")

// GetOperationStatus returns the status of the operation with the
// given request id.
func (c *Client) GetOperationStatus(ctx context.Context, id string) (Operation, error) {
	var op Operation
	if _, err := c.do(ctx, http.MethodGet, "/operations/"+url.PathEscape(id), nil, &op); err != nil {
		return Operation{}, errors.Annotatef(err, "getting status of operation %q", id)
	}
	if op.ID == "" {
		op.ID = id
	}
	return op, nil
}

// WaitForOperation polls the operation until it completes. The final
// status is returned; a failed operation is also returned as an error.
func (c *Client) WaitForOperation(ctx context.Context, op Operation) (Operation, error) {
	if op.Status != OperationInProgress {
		return op, nil
	}
	if op.ID == "" {
		return op, errors.NotValidf("asynchronous operation without request id")
	}
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			status, err := c.GetOperationStatus(ctx, op.ID)
			if err != nil {
				return errors.Trace(err)
			}
			op = status
			if op.Status == OperationInProgress {
				return errOperationInProgress
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			return err != errOperationInProgress
		},
		Attempts:    -1,
		Delay:       operationPollDelay,
		MaxDelay:    operationPollMaxDelay,
		MaxDuration: operationTimeout,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.config.Clock,
		Stop:        ctx.Done(),
	})
	if retry.IsDurationExceeded(err) {
		return op, errors.Timeoutf("operation %q", op.ID)
	}
	if retry.IsRetryStopped(err) {
		return op, errors.Trace(ctx.Err())
	}
	if err != nil {
		return op, errors.Trace(err)
	}
	if op.Status == OperationFailed {
		if op.Error != nil {
			return op, errors.Errorf("operation %q failed: %s: %s", op.ID, op.Error.Code, op.Error.Message)
		}
		return op, errors.Errorf("operation %q failed", op.ID)
	}
	return op, nil
}
