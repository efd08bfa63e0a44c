// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package subscription

import (
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/output"
	"github.com/juju/azsm/cmd/subscriptioncmd"
	"github.com/juju/azsm/servicemanagement"
)

// SubscriptionDetails is a subscription as shown by the subscriptions
// command.
type SubscriptionDetails struct {
	Name                  string `yaml:"name" json:"name"`
	ID                    string `yaml:"id" json:"id"`
	ManagementEndpoint    string `yaml:"management-endpoint" json:"management-endpoint"`
	CurrentStorageAccount string `yaml:"current-storage-account,omitempty" json:"current-storage-account,omitempty"`
	Default               bool   `yaml:"default" json:"default"`
}

// NewListSubscriptionsCommand returns a command listing the known
// subscriptions.
func NewListSubscriptionsCommand() cmd.Command {
	return &listCommand{}
}

type listCommand struct {
	subscriptioncmd.SubscriptionCommandBase
	out cmd.Output
}

// Info implements cmd.Command.
func (c *listCommand) Info() *cmd.Info {
	return azsmcmd.Info(&cmd.Info{
		Name:    "subscriptions",
		Purpose: "Lists the known subscriptions.",
		Doc: `
Lists the subscriptions imported from publish settings files. The
default subscription is marked with an asterisk.
`,
	})
}

// SetFlags implements cmd.Command.
func (c *listCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "tabular", output.DefaultFormatters(formatSubscriptions))
}

// Run implements cmd.Command.
func (c *listCommand) Run(ctx *cmd.Context) error {
	subs, err := c.ClientStore().AllSubscriptions()
	if err != nil {
		return errors.Trace(err)
	}
	if len(subs) == 0 {
		ctx.Infof("No subscriptions known. Use import-publish-settings to add one.")
		return nil
	}
	details := make([]SubscriptionDetails, len(subs))
	for i, sub := range subs {
		endpoint := sub.ManagementEndpoint
		if endpoint == "" {
			endpoint = servicemanagement.DefaultEndpoint
		}
		details[i] = SubscriptionDetails{
			Name:                  sub.Name,
			ID:                    sub.ID,
			ManagementEndpoint:    endpoint,
			CurrentStorageAccount: sub.CurrentStorageAccount,
			Default:               sub.Default,
		}
	}
	return c.out.Write(ctx, details)
}

var formatSubscriptions = output.Tabular(func(w *output.Wrapper, subs []SubscriptionDetails) {
	w.Println("Subscription", "Id", "Endpoint", "Storage account")
	for _, sub := range subs {
		name := sub.Name
		if sub.Default {
			name += "*"
		}
		w.Println(name, sub.ID, sub.ManagementEndpoint, sub.CurrentStorageAccount)
	}
})
