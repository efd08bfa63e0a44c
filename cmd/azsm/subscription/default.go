// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package subscription

import (
	"fmt"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/subscriptioncmd"
	"github.com/juju/azsm/subscriptions"
)

const defaultDoc = `
Shows the default subscription, or makes the named subscription the
default one. The default is used when neither --subscription nor
AZSM_SUBSCRIPTION is given.
`

// NewDefaultSubscriptionCommand returns a command showing or setting
// the default subscription.
func NewDefaultSubscriptionCommand() cmd.Command {
	return &defaultCommand{}
}

type defaultCommand struct {
	subscriptioncmd.SubscriptionCommandBase

	name string
}

// Info implements cmd.Command.
func (c *defaultCommand) Info() *cmd.Info {
	return azsmcmd.Info(&cmd.Info{
		Name:    "default-subscription",
		Args:    "[<name>]",
		Purpose: "Shows or sets the default subscription.",
		Doc:     defaultDoc,
		Examples: `
    azsm default-subscription
    azsm default-subscription Pay-As-You-Go
`,
	})
}

// Init implements cmd.Command.
func (c *defaultCommand) Init(args []string) error {
	if len(args) > 0 {
		c.name, args = args[0], args[1:]
	}
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *defaultCommand) Run(ctx *cmd.Context) error {
	store := c.ClientStore()
	if c.name != "" {
		if err := store.SetDefault(c.name); err != nil {
			return errors.Trace(err)
		}
		ctx.Infof("Default subscription is now %q.", c.name)
		return nil
	}
	subs, err := store.AllSubscriptions()
	if err != nil {
		return errors.Trace(err)
	}
	for _, sub := range subs {
		if sub.Default {
			_, err := fmt.Fprintln(ctx.Stdout, sub.Name)
			return errors.Trace(err)
		}
	}
	return subscriptions.ErrNoCurrentSubscription
}
