// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package commands assembles the azsm command line.
package commands

import (
	"fmt"
	"os"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/azsm/extension"
	"github.com/juju/azsm/cmd/azsm/store"
	"github.com/juju/azsm/cmd/azsm/subscription"
	"github.com/juju/azsm/cmd/azsm/vhd"
	"github.com/juju/azsm/osenv"
)

var azsmDoc = `
azsm manages cloud services, virtual machines and disks through the
Service Management API.

Start by importing the publish settings file of your subscriptions:

    azsm import-publish-settings <file>
`

// Main registers subcommands for the azsm executable, and hands over
// control to the cmd package. It returns the exit code.
func Main(args []string) int {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if err := initDataHome(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 2
	}
	return cmd.Main(NewAzsmCommand(), ctx, args[1:])
}

func initDataHome() error {
	dir := osenv.DataHomeDir()
	if dir == "" {
		return errors.New("cannot determine azsm data home, set " + osenv.AzsmDataHomeEnvKey)
	}
	osenv.SetDataHome(dir)
	return nil
}

// NewAzsmCommand returns the azsm super command with every subcommand
// registered.
func NewAzsmCommand() cmd.Command {
	azsm := azsmcmd.NewSuperCommand(cmd.SuperCommandParams{
		Name: "azsm",
		Doc:  azsmDoc,
	})
	registerCommands(azsm)
	return azsm
}

type commandRegistry interface {
	Register(cmd.Command)
}

func registerCommands(r commandRegistry) {
	// Subscriptions.
	r.Register(subscription.NewImportPublishSettingsCommand())
	r.Register(subscription.NewListSubscriptionsCommand())
	r.Register(subscription.NewDefaultSubscriptionCommand())
	r.Register(subscription.NewRemoveSubscriptionCommand())

	// Disks.
	r.Register(vhd.NewAddVHDCommand())

	// Store.
	r.Register(store.NewStoreAddOnsCommand())

	// Extensions.
	r.Register(extension.NewServiceDiagnosticsExtensionCommand())
	r.Register(extension.NewVMExtensionsCommand())
	r.Register(extension.NewRemoveVMExtensionCommand())
}
