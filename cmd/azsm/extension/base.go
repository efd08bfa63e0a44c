// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package extension holds the commands managing cloud service and
// virtual machine extensions.
package extension

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/azsm/cmd/subscriptioncmd"
	"github.com/juju/azsm/servicemanagement"
)

var logger = loggo.GetLogger("azsm.cmd.extension")

// ServiceManagementAPI is the part of the management API used by the
// extension commands.
type ServiceManagementAPI interface {
	GetHostedService(ctx context.Context, service string) (servicemanagement.HostedService, error)
	GetDeploymentBySlot(ctx context.Context, service string, slot servicemanagement.DeploymentSlot) (servicemanagement.Deployment, error)
	ListHostedServiceExtensions(ctx context.Context, service string) (*servicemanagement.ExtensionList, error)
	GetRole(ctx context.Context, service, deployment, role string) (servicemanagement.Role, error)
	UpdateRole(ctx context.Context, service, deployment string, role servicemanagement.Role) (servicemanagement.Operation, error)
}

type extensionCommandBase struct {
	subscriptioncmd.SubscriptionCommandBase

	newAPIFunc func() (ServiceManagementAPI, error)
}

func (c *extensionCommandBase) newAPI() (ServiceManagementAPI, error) {
	if c.newAPIFunc != nil {
		return c.newAPIFunc()
	}
	client, err := c.NewServiceManagementClient()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return client, nil
}

// productionDeployment returns the name of the deployment in the
// production slot of service.
func productionDeployment(ctx context.Context, api ServiceManagementAPI, service string) (string, error) {
	d, err := api.GetDeploymentBySlot(ctx, service, servicemanagement.SlotProduction)
	if err != nil {
		return "", errors.Trace(err)
	}
	logger.Debugf("cloud service %q has production deployment %q", service, d.Name)
	return d.Name, nil
}
