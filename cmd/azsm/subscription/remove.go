// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package subscription

import (
	"os"
	"path/filepath"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/subscriptioncmd"
	"github.com/juju/azsm/subscriptions"
)

// NewRemoveSubscriptionCommand returns a command forgetting a
// subscription.
func NewRemoveSubscriptionCommand() cmd.Command {
	return &removeCommand{}
}

type removeCommand struct {
	subscriptioncmd.SubscriptionCommandBase

	name string
}

// Info implements cmd.Command.
func (c *removeCommand) Info() *cmd.Info {
	return azsmcmd.Info(&cmd.Info{
		Name:    "remove-subscription",
		Args:    "<name>",
		Purpose: "Removes a subscription from the client.",
		Doc: `
Removes a subscription and its imported management certificate from
the client.
Nothing is changed in the cloud.
`,
	})
}

// Init implements cmd.Command.
func (c *removeCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no subscription specified")
	}
	c.name = args[0]
	return cmd.CheckEmpty(args[1:])
}

// Run implements cmd.Command.
func (c *removeCommand) Run(ctx *cmd.Context) error {
	store := c.ClientStore()
	sub, err := store.SubscriptionByName(c.name)
	if err != nil {
		return errors.Trace(err)
	}
	if err := store.RemoveSubscription(c.name); err != nil {
		return errors.Trace(err)
	}
	// Only certificates written by import-publish-settings are removed.
	if filepath.Dir(sub.ManagementCertificate) == subscriptions.CertificatesDir() {
		err := os.Remove(sub.ManagementCertificate)
		if err != nil && !os.IsNotExist(err) {
			return errors.Annotatef(err, "removing management certificate of %q", c.name)
		}
	}
	ctx.Infof("Removed subscription %q.", c.name)
	return nil
}
