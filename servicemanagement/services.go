// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package servicemanagement

import (
	"context"
	"net/http"
	"net/url"

	"github.com/juju/errors"
)

// ListLocations returns the regions available to the subscription.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var list locationList
	if _, err := c.do(ctx, http.MethodGet, "/locations", nil, &list); err != nil {
		return nil, errors.Annotate(err, "listing locations")
	}
	return list.Locations, nil
}

// GetHostedService returns the named cloud service.
func (c *Client) GetHostedService(ctx context.Context, service string) (HostedService, error) {
	var hs HostedService
	if _, err := c.do(ctx, http.MethodGet, hostedServicePath(service), nil, &hs); err != nil {
		return HostedService{}, errors.Annotatef(err, "getting cloud service %q", service)
	}
	return hs, nil
}

// ListHostedServiceExtensions returns the extensions added to a
// cloud service.
func (c *Client) ListHostedServiceExtensions(ctx context.Context, service string) (*ExtensionList, error) {
	var list ExtensionList
	op, err := c.do(ctx, http.MethodGet, hostedServicePath(service)+"/extensions", nil, &list)
	if err != nil {
		return nil, errors.Annotatef(err, "listing extensions of cloud service %q", service)
	}
	list.Operation = op
	return &list, nil
}

// GetDeploymentBySlot returns the deployment in the given slot of a
// cloud service.
func (c *Client) GetDeploymentBySlot(ctx context.Context, service string, slot DeploymentSlot) (Deployment, error) {
	var d Deployment
	path := hostedServicePath(service) + "/deploymentslots/" + url.PathEscape(string(slot))
	if _, err := c.do(ctx, http.MethodGet, path, nil, &d); err != nil {
		return Deployment{}, errors.Annotatef(err, "getting %s deployment of cloud service %q", slot, service)
	}
	return d, nil
}

// GetStorageServiceKeys returns the access keys of a storage account.
func (c *Client) GetStorageServiceKeys(ctx context.Context, account string) (StorageServiceKeys, error) {
	var keys StorageServiceKeys
	path := "/services/storageservices/" + url.PathEscape(account) + "/keys"
	if _, err := c.do(ctx, http.MethodGet, path, nil, &keys); err != nil {
		return StorageServiceKeys{}, errors.Annotatef(err, "getting keys of storage account %q", account)
	}
	return keys, nil
}

// ListCloudServices returns the cloud services holding store add-ons.
func (c *Client) ListCloudServices(ctx context.Context) ([]CloudService, error) {
	var list cloudServiceList
	if _, err := c.do(ctx, http.MethodGet, "/cloudservices", nil, &list); err != nil {
		return nil, errors.Annotate(err, "listing cloud services")
	}
	return list.CloudServices, nil
}

func hostedServicePath(service string) string {
	return "/services/hostedservices/" + url.PathEscape(service)
}
