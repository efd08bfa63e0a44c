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
	"github.com/kr/pretty"
)

const (
	conflictRetryDelay    = 5 * time.Second
	conflictMaxRetryDelay = time.Minute
	conflictMaxDuration   = 5 * time.Minute
)

// GetRole returns a virtual machine role of a deployment.
func (c *Client) GetRole(ctx context.Context, service, deployment, role string) (Role, error) {
	var r Role
	if _, err := c.do(ctx, http.MethodGet, rolePath(service, deployment, role), nil, &r); err != nil {
		return Role{}, errors.Annotatef(err, "getting role %q", role)
	}
	return r, nil
}

// UpdateRole replaces the configuration of a virtual machine role and
// waits for the change to be applied.
func (c *Client) UpdateRole(ctx context.Context, service, deployment string, role Role) (Operation, error) {
	role.XmlnsI = xmlSchemaInstance
	logger.Tracef("updating role %q of %s/%s: %s", role.RoleName, service, deployment, pretty.Sprint(role))
	var op Operation
	err := c.callWithBackoff(ctx, func() error {
		var err error
		op, err = c.do(ctx, http.MethodPut, rolePath(service, deployment, role.RoleName), role, nil,
			http.StatusOK, http.StatusAccepted)
		return err
	})
	if err != nil {
		return op, errors.Annotatef(err, "updating role %q", role.RoleName)
	}
	op, err = c.WaitForOperation(ctx, op)
	return op, errors.Annotatef(err, "updating role %q", role.RoleName)
}

// callWithBackoff calls f, retrying with exponential backoff while
// another operation holds the deployment or requests are throttled.
func (c *Client) callWithBackoff(ctx context.Context, f func() error) error {
	err := retry.Call(retry.CallArgs{
		Func: f,
		IsFatalError: func(err error) bool {
			return !IsConflict(err) && !IsThrottled(err)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debugf("attempt %d: %v", attempt, err)
		},
		Attempts:    -1,
		Delay:       conflictRetryDelay,
		MaxDelay:    conflictMaxRetryDelay,
		MaxDuration: conflictMaxDuration,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.config.Clock,
		Stop:        ctx.Done(),
	})
	if retry.IsDurationExceeded(err) || retry.IsRetryStopped(err) {
		err = retry.LastError(err)
	}
	return err
}

func rolePath(service, deployment, role string) string {
	return hostedServicePath(service) +
		"/deployments/" + url.PathEscape(deployment) +
		"/roles/" + url.PathEscape(role)
}
