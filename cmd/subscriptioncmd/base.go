// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package subscriptioncmd provides the base of commands that operate
// on a subscription.
package subscriptioncmd

import (
	"context"
	"os"

	"github.com/juju/clock"
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/juju/azsm/servicemanagement"
	"github.com/juju/azsm/subscriptions"
)

var logger = loggo.GetLogger("azsm.cmd.subscriptioncmd")

// SubscriptionCommandBase is a convenience type for embedding in
// commands that call the management API of a subscription.
type SubscriptionCommandBase struct {
	cmd.CommandBase

	store            subscriptions.Store
	clock            clock.Clock
	subscriptionName string
	subscription     *subscriptions.Subscription
}

// SetFlags implements cmd.Command.SetFlags.
func (c *SubscriptionCommandBase) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.subscriptionName, "s", "", "Subscription to operate in")
	f.StringVar(&c.subscriptionName, "subscription", "", "")
}

// SetClientStore sets the store of subscriptions.
func (c *SubscriptionCommandBase) SetClientStore(store subscriptions.Store) {
	c.store = store
}

// ClientStore returns the store of subscriptions, which defaults to
// the subscriptions file.
func (c *SubscriptionCommandBase) ClientStore() subscriptions.Store {
	if c.store == nil {
		c.store = subscriptions.NewFileStore()
	}
	return c.store
}

// SetClock sets the clock of management API clients.
func (c *SubscriptionCommandBase) SetClock(clk clock.Clock) {
	c.clock = clk
}

// Clock returns the clock used to wait between retries and polls.
func (c *SubscriptionCommandBase) Clock() clock.Clock {
	if c.clock == nil {
		c.clock = clock.WallClock
	}
	return c.clock
}

// SubscriptionName returns the value of the --subscription flag.
func (c *SubscriptionCommandBase) SubscriptionName() string {
	return c.subscriptionName
}

// Subscription returns the subscription the command operates in: the
// one named by --subscription, or else the current subscription.
func (c *SubscriptionCommandBase) Subscription() (*subscriptions.Subscription, error) {
	if c.subscription != nil {
		return c.subscription, nil
	}
	sub, err := c.ClientStore().CurrentSubscription(c.subscriptionName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	logger.Debugf("using subscription %q (%s)", sub.Name, sub.ID)
	c.subscription = sub
	return sub, nil
}

// NewServiceManagementClient returns a client of the management API
// of the subscription.
func (c *SubscriptionCommandBase) NewServiceManagementClient() (*servicemanagement.Client, error) {
	sub, err := c.Subscription()
	if err != nil {
		return nil, errors.Trace(err)
	}
	cert, err := servicemanagement.LoadCertificate(sub.ManagementCertificate)
	if err != nil {
		return nil, errors.Annotatef(err, "subscription %q", sub.Name)
	}
	client, err := servicemanagement.NewClient(servicemanagement.ClientConfig{
		SubscriptionID: sub.ID,
		Endpoint:       sub.ManagementEndpoint,
		Certificate:    cert,
		Clock:          c.Clock(),
	})
	return client, errors.Trace(err)
}

// StdContext returns a context cancelled when the command is
// interrupted. The returned function must be called when the command
// finishes.
func (c *SubscriptionCommandBase) StdContext(ctx *cmd.Context) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithCancel(context.Background())
	interrupted := make(chan os.Signal, 1)
	ctx.InterruptNotify(interrupted)
	go func() {
		select {
		case <-interrupted:
			ctx.Infof("interrupted, cancelling")
			cancel()
		case <-stdCtx.Done():
		}
	}()
	return stdCtx, func() {
		ctx.StopInterruptNotify(interrupted)
		cancel()
	}
}
