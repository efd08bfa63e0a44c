// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package extension

import (
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/output"
	"github.com/juju/azsm/extensions"
)

const removeVMExtensionDoc = `
Removes resource extensions from a virtual machine of the production
deployment of a cloud service.

Extensions are selected by extension name and publisher, by reference
name, or all at once with --all. Every installed reference matching
the selection is removed; versions are not compared. The virtual
machine is updated and the command waits for the update to complete
before showing the remaining extensions.
`

const removeVMExtensionExamples = `
    azsm remove-vm-extension mysvc myvm --name BGInfo --publisher Microsoft.Compute --version 1.*
    azsm remove-vm-extension mysvc myvm --reference-name BGInfo
    azsm remove-vm-extension mysvc myvm --all
`

// NewRemoveVMExtensionCommand returns a command removing extensions
// from a virtual machine.
func NewRemoveVMExtensionCommand() cmd.Command {
	return &removeVMExtensionCommand{}
}

type removeVMExtensionCommand struct {
	extensionCommandBase
	out cmd.Output

	service string
	vm      string
	filter  extensions.ReferenceFilter
	all     bool
}

// Info implements cmd.Command.
func (c *removeVMExtensionCommand) Info() *cmd.Info {
	return azsmcmd.Info(&cmd.Info{
		Name:     "remove-vm-extension",
		Args:     "<service> <vm>",
		Purpose:  "Removes extensions from a virtual machine.",
		Doc:      removeVMExtensionDoc,
		Examples: removeVMExtensionExamples,
	})
}

// SetFlags implements cmd.Command.
func (c *removeVMExtensionCommand) SetFlags(f *gnuflag.FlagSet) {
	c.SubscriptionCommandBase.SetFlags(f)
	c.out.AddFlags(f, "tabular", output.DefaultFormatters(formatVirtualMachine))
	f.StringVar(&c.filter.Name, "name", "", "Extension name")
	f.StringVar(&c.filter.Publisher, "publisher", "", "Extension publisher")
	f.StringVar(&c.filter.Version, "version", "", "Extension version")
	f.StringVar(&c.filter.ReferenceName, "reference-name", "", "Extension reference name")
	f.BoolVar(&c.all, "all", false, "Remove all extensions")
}

// Init implements cmd.Command.
func (c *removeVMExtensionCommand) Init(args []string) error {
	var err error
	if c.service, c.vm, err = serviceAndVM(args); err != nil {
		return errors.Trace(err)
	}
	if c.all {
		if c.filter != (extensions.ReferenceFilter{}) {
			return errors.New("--all cannot be combined with an extension selection")
		}
		return nil
	}
	return errors.Trace(c.filter.Validate())
}

// Run implements cmd.Command.
func (c *removeVMExtensionCommand) Run(ctx *cmd.Context) error {
	stdCtx, cancel := c.StdContext(ctx)
	defer cancel()

	api, err := c.newAPI()
	if err != nil {
		return errors.Trace(err)
	}
	deployment, err := productionDeployment(stdCtx, api, c.service)
	if err != nil {
		return errors.Trace(err)
	}
	role, err := api.GetRole(stdCtx, c.service, deployment, c.vm)
	if err != nil {
		return errors.Trace(err)
	}

	refs := role.Extensions()
	removed := len(refs)
	if c.all {
		refs = nil
	} else {
		refs, removed = extensions.RemoveReferences(refs, c.filter)
		if removed == 0 {
			return errors.NotFoundf("extension %s on virtual machine %q", c.filter, c.vm)
		}
	}
	role.SetExtensions(refs)

	op, err := api.UpdateRole(stdCtx, c.service, deployment, role)
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("Removed %d extension(s) from %q.", removed, c.vm)

	vm := newVirtualMachine(c.service, deployment, role)
	vm.OperationID = op.ID
	vm.OperationStatus = string(op.Status)
	return c.out.Write(ctx, vm)
}
