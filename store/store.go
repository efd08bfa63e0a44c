// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package store lists the add-ons a subscription has purchased from
// the store. Purchased add-ons are resources of cloud services named
// with the store prefix.
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/azsm/servicemanagement"
)

// CloudServicePrefix prefixes the names of the cloud services holding
// purchased add-ons.
const CloudServicePrefix = "Azure-Stores-"

// AddOn is a purchased add-on.
type AddOn struct {
	Type        string            `yaml:"type" json:"type"`
	AddOn       string            `yaml:"add-on" json:"add-on"`
	Name        string            `yaml:"name" json:"name"`
	Plan        string            `yaml:"plan" json:"plan"`
	Location    string            `yaml:"location" json:"location"`
	Status      string            `yaml:"status" json:"status"`
	ETag        string            `yaml:"etag,omitempty" json:"etag,omitempty"`
	OutputItems map[string]string `yaml:"output-items,omitempty" json:"output-items,omitempty"`
}

// AddOnSearchOptions narrows the add-ons returned by GetAddOn. Empty
// fields match everything.
type AddOnSearchOptions struct {
	Name      string
	Provider  string
	GeoRegion string
}

func (o AddOnSearchOptions) matches(a AddOn) bool {
	return matchField(o.Name, a.Name) &&
		matchField(o.Provider, a.AddOn) &&
		matchField(o.GeoRegion, a.Location)
}

func matchField(want, have string) bool {
	return want == "" || strings.EqualFold(want, have)
}

// CloudServiceAPI lists the cloud services of a subscription.
type CloudServiceAPI interface {
	ListCloudServices(ctx context.Context) ([]servicemanagement.CloudService, error)
}

// Client reads purchased add-ons.
type Client struct {
	api CloudServiceAPI
}

// NewClient returns a client that lists add-ons through api.
func NewClient(api CloudServiceAPI) *Client {
	return &Client{api: api}
}

// GetAddOn returns the purchased add-ons matching opts, ordered by
// name.
func (c *Client) GetAddOn(ctx context.Context, opts AddOnSearchOptions) ([]AddOn, error) {
	services, err := c.api.ListCloudServices(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "listing add-ons")
	}
	var addOns []AddOn
	for _, svc := range services {
		if !strings.HasPrefix(svc.Name, CloudServicePrefix) {
			continue
		}
		for _, r := range svc.Resources {
			addOn := newAddOn(svc.GeoRegion, r)
			if opts.matches(addOn) {
				addOns = append(addOns, addOn)
			}
		}
	}
	sort.SliceStable(addOns, func(i, j int) bool {
		return addOns[i].Name < addOns[j].Name
	})
	return addOns, nil
}

func newAddOn(region string, r servicemanagement.Resource) AddOn {
	addOn := AddOn{
		Type:     r.Type,
		AddOn:    r.ResourceProviderNamespace,
		Name:     r.Name,
		Plan:     r.Plan,
		Location: region,
		Status:   r.State,
		ETag:     r.ETag,
	}
	if len(r.OutputItems) > 0 {
		addOn.OutputItems = make(map[string]string, len(r.OutputItems))
		for _, item := range r.OutputItems {
			addOn.OutputItems[item.Key] = item.Value
		}
	}
	return addOn
}
