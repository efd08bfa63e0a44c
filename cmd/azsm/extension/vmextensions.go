// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package extension

import (
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/output"
	"github.com/juju/azsm/servicemanagement"
)

// VMExtension is an extension installed on a virtual machine.
type VMExtension struct {
	ReferenceName string `yaml:"reference-name" json:"reference-name"`
	Publisher     string `yaml:"publisher" json:"publisher"`
	Name          string `yaml:"name" json:"name"`
	Version       string `yaml:"version" json:"version"`
	State         string `yaml:"state,omitempty" json:"state,omitempty"`
}

// VirtualMachine is a virtual machine role and its extensions.
type VirtualMachine struct {
	ServiceName     string        `yaml:"service-name" json:"service-name"`
	DeploymentName  string        `yaml:"deployment-name" json:"deployment-name"`
	Name            string        `yaml:"name" json:"name"`
	OperationID     string        `yaml:"operation-id,omitempty" json:"operation-id,omitempty"`
	OperationStatus string        `yaml:"operation-status,omitempty" json:"operation-status,omitempty"`
	Extensions      []VMExtension `yaml:"extensions" json:"extensions"`
}

func newVirtualMachine(service, deployment string, role servicemanagement.Role) VirtualMachine {
	vm := VirtualMachine{
		ServiceName:    service,
		DeploymentName: deployment,
		Name:           role.RoleName,
		Extensions:     []VMExtension{},
	}
	for _, ref := range role.Extensions() {
		vm.Extensions = append(vm.Extensions, VMExtension{
			ReferenceName: ref.ReferenceName,
			Publisher:     ref.Publisher,
			Name:          ref.Name,
			Version:       ref.Version,
			State:         ref.State,
		})
	}
	return vm
}

var formatVirtualMachine = output.Tabular(func(w *output.Wrapper, vm VirtualMachine) {
	w.Println("Reference", "Publisher", "Extension", "Version", "State")
	for _, ext := range vm.Extensions {
		w.Println(ext.ReferenceName, ext.Publisher, ext.Name, ext.Version, ext.State)
	}
})

const vmExtensionsDoc = `
Lists the resource extensions installed on a virtual machine of the
production deployment of a cloud service.
`

// NewVMExtensionsCommand returns a command listing the extensions of
// a virtual machine.
func NewVMExtensionsCommand() cmd.Command {
	return &vmExtensionsCommand{}
}

type vmExtensionsCommand struct {
	extensionCommandBase
	out cmd.Output

	service string
	vm      string
}

// Info implements cmd.Command.
func (c *vmExtensionsCommand) Info() *cmd.Info {
	return azsmcmd.Info(&cmd.Info{
		Name:     "vm-extensions",
		Args:     "<service> <vm>",
		Purpose:  "Lists the extensions of a virtual machine.",
		Doc:      vmExtensionsDoc,
		Examples: "\n    azsm vm-extensions mysvc myvm\n",
	})
}

// SetFlags implements cmd.Command.
func (c *vmExtensionsCommand) SetFlags(f *gnuflag.FlagSet) {
	c.SubscriptionCommandBase.SetFlags(f)
	c.out.AddFlags(f, "tabular", output.DefaultFormatters(formatVirtualMachine))
}

// Init implements cmd.Command.
func (c *vmExtensionsCommand) Init(args []string) error {
	var err error
	c.service, c.vm, err = serviceAndVM(args)
	return errors.Trace(err)
}

// Run implements cmd.Command.
func (c *vmExtensionsCommand) Run(ctx *cmd.Context) error {
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
	return c.out.Write(ctx, newVirtualMachine(c.service, deployment, role))
}

func serviceAndVM(args []string) (string, string, error) {
	switch len(args) {
	case 0:
		return "", "", errors.New("no cloud service specified")
	case 1:
		return "", "", errors.New("no virtual machine specified")
	}
	return args[0], args[1], cmd.CheckEmpty(args[2:])
}
