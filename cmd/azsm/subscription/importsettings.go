// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package subscription holds the commands managing the subscriptions
// known to the client.
package subscription

import (
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/subscriptioncmd"
	"github.com/juju/azsm/subscriptions"
)

const importDoc = `
Imports the subscriptions of a publish settings file downloaded from
the management portal. The management certificate of each subscription
is stored in PEM form next to the subscriptions file.

Subscriptions already known by the same name are replaced. The first
subscription imported becomes the default one.
`

// NewImportPublishSettingsCommand returns a command importing a
// publish settings file.
func NewImportPublishSettingsCommand() cmd.Command {
	return &importCommand{}
}

type importCommand struct {
	subscriptioncmd.SubscriptionCommandBase

	path string
}

// Info implements cmd.Command.
func (c *importCommand) Info() *cmd.Info {
	return azsmcmd.Info(&cmd.Info{
		Name:     "import-publish-settings",
		Args:     "<file>",
		Purpose:  "Imports subscriptions from a publish settings file.",
		Doc:      importDoc,
		Examples: "\n    azsm import-publish-settings ~/Downloads/azure.publishsettings\n",
	})
}

// Init implements cmd.Command.
func (c *importCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no publish settings file specified")
	}
	c.path = args[0]
	return cmd.CheckEmpty(args[1:])
}

// Run implements cmd.Command.
func (c *importCommand) Run(ctx *cmd.Context) error {
	imported, err := subscriptions.ImportPublishSettings(c.ClientStore(), ctx.AbsPath(c.path))
	for _, sub := range imported {
		ctx.Infof("Imported subscription %q (%s).", sub.Name, sub.ID)
	}
	return errors.Trace(err)
}
