// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package extension

import (
	"github.com/juju/cmd/v3"
)

func setAPI(base *extensionCommandBase, api ServiceManagementAPI) {
	base.newAPIFunc = func() (ServiceManagementAPI, error) {
		return api, nil
	}
}

// NewServiceDiagnosticsExtensionCommandForTest returns a
// service-diagnostics-extension command using api.
func NewServiceDiagnosticsExtensionCommandForTest(api ServiceManagementAPI) cmd.Command {
	c := &diagnosticsCommand{}
	setAPI(&c.extensionCommandBase, api)
	return c
}

// NewVMExtensionsCommandForTest returns a vm-extensions command using
// api.
func NewVMExtensionsCommandForTest(api ServiceManagementAPI) cmd.Command {
	c := &vmExtensionsCommand{}
	setAPI(&c.extensionCommandBase, api)
	return c
}

// NewRemoveVMExtensionCommandForTest returns a remove-vm-extension
// command using api.
func NewRemoveVMExtensionCommandForTest(api ServiceManagementAPI) cmd.Command {
	c := &removeVMExtensionCommand{}
	setAPI(&c.extensionCommandBase, api)
	return c
}
