// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package extension

import (
	"os"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/output"
	"github.com/juju/azsm/extensions"
	"github.com/juju/azsm/osenv"
	"github.com/juju/azsm/servicemanagement"
)

const diagnosticsDoc = `
Shows the diagnostics extension enabled for the roles of a cloud
service deployment, together with the storage account receiving the
diagnostics data and the diagnostics configuration.

The cloud service defaults to the value of AZSM_CLOUD_SERVICE. The
production slot is used unless --slot selects the staging one.
`

const diagnosticsExamples = `
    azsm service-diagnostics-extension mysvc
    azsm service-diagnostics-extension mysvc --slot staging --format yaml
`

// DiagnosticExtensionContext describes the diagnostics extension of
// one role.
type DiagnosticExtensionContext struct {
	OperationID          string                   `yaml:"operation-id" json:"operation-id"`
	OperationDescription string                   `yaml:"operation-description" json:"operation-description"`
	OperationStatus      string                   `yaml:"operation-status" json:"operation-status"`
	Extension            string                   `yaml:"extension" json:"extension"`
	ProviderNameSpace    string                   `yaml:"provider-namespace" json:"provider-namespace"`
	ID                   string                   `yaml:"id" json:"id"`
	Role                 extensions.ExtensionRole `yaml:"role" json:"role"`
	StorageAccountName   string                   `yaml:"storage-account-name" json:"storage-account-name"`
	WadCfg               string                   `yaml:"wad-cfg,omitempty" json:"wad-cfg,omitempty"`
}

// NewServiceDiagnosticsExtensionCommand returns a command showing the
// diagnostics extension of a cloud service.
func NewServiceDiagnosticsExtensionCommand() cmd.Command {
	return &diagnosticsCommand{}
}

type diagnosticsCommand struct {
	extensionCommandBase
	out cmd.Output

	service  string
	slotName string
	slot     servicemanagement.DeploymentSlot
}

// Info implements cmd.Command.
func (c *diagnosticsCommand) Info() *cmd.Info {
	return azsmcmd.Info(&cmd.Info{
		Name:     "service-diagnostics-extension",
		Args:     "[<service>]",
		Purpose:  "Shows the diagnostics extension of a cloud service.",
		Doc:      diagnosticsDoc,
		Examples: diagnosticsExamples,
	})
}

// SetFlags implements cmd.Command.
func (c *diagnosticsCommand) SetFlags(f *gnuflag.FlagSet) {
	c.SubscriptionCommandBase.SetFlags(f)
	c.out.AddFlags(f, "tabular", output.DefaultFormatters(formatDiagnostics))
	f.StringVar(&c.slotName, "slot", "", "Deployment slot: Production (default) or Staging")
}

// Init implements cmd.Command.
func (c *diagnosticsCommand) Init(args []string) error {
	if len(args) > 0 {
		c.service, args = args[0], args[1:]
	}
	if err := cmd.CheckEmpty(args); err != nil {
		return errors.Trace(err)
	}
	if c.service == "" {
		c.service = os.Getenv(osenv.AzsmCloudServiceEnvKey)
	}
	if c.service == "" {
		return errors.New("no cloud service specified")
	}
	var err error
	c.slot, err = servicemanagement.ParseDeploymentSlot(c.slotName)
	return errors.Trace(err)
}

// Run implements cmd.Command.
func (c *diagnosticsCommand) Run(ctx *cmd.Context) error {
	stdCtx, cancel := c.StdContext(ctx)
	defer cancel()

	api, err := c.newAPI()
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := api.GetHostedService(stdCtx, c.service); err != nil {
		return errors.Trace(err)
	}
	deployment, err := api.GetDeploymentBySlot(stdCtx, c.service, c.slot)
	if err != nil {
		return errors.Trace(err)
	}
	list, err := api.ListHostedServiceExtensions(stdCtx, c.service)
	if err != nil {
		return errors.Trace(err)
	}

	builder := extensions.NewConfigurationBuilder(deployment.ExtensionConfiguration)
	var result []DiagnosticExtensionContext
	for _, role := range extensions.DeploymentRoles(deployment) {
		for _, ext := range list.Extensions {
			if !extensions.CheckNameSpaceType(ext, extensions.DiagnosticsNamespace, extensions.DiagnosticsType) {
				continue
			}
			if !builder.Exist(role, ext.ID) {
				continue
			}
			storageAccount, err := extensions.PublicConfigValue(ext, extensions.StorageAccountElement)
			if err != nil {
				return errors.Trace(err)
			}
			wadCfg, err := extensions.PublicConfigValue(ext, extensions.WadCfgElement)
			if err != nil {
				return errors.Trace(err)
			}
			result = append(result, DiagnosticExtensionContext{
				OperationID:          list.Operation.ID,
				OperationDescription: c.Info().Name,
				OperationStatus:      string(list.Operation.Status),
				Extension:            ext.Type,
				ProviderNameSpace:    ext.ProviderNameSpace,
				ID:                   ext.ID,
				Role:                 role,
				StorageAccountName:   storageAccount,
				WadCfg:               wadCfg,
			})
		}
	}
	if len(result) == 0 {
		ctx.Infof("No diagnostics extension enabled in the %s deployment of %q.", c.slot, c.service)
		return nil
	}
	return c.out.Write(ctx, result)
}

var formatDiagnostics = output.Tabular(func(w *output.Wrapper, contexts []DiagnosticExtensionContext) {
	w.Println("Role", "Type", "Extension", "Storage account")
	for _, ec := range contexts {
		w.Println(ec.Role.RoleName, ec.Role.RoleType, ec.ID, ec.StorageAccountName)
	}
})
