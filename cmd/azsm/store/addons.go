// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package store holds the command listing store add-ons.
package store

import (
	"context"
	"io"
	"os"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/output"
	"github.com/juju/azsm/cmd/subscriptioncmd"
	"github.com/juju/azsm/marketplace"
	"github.com/juju/azsm/osenv"
	"github.com/juju/azsm/store"
)

const storeAddOnsDoc = `
Lists the add-ons purchased from the store, optionally only the one
with the given name.

With --list-available, lists the add-ons that can be purchased in the
locations available to the subscription instead. Prices and plans
depend on the country, given as a two letter code.
`

const storeAddOnsExamples = `
    azsm store-add-ons
    azsm store-add-ons mymail
    azsm store-add-ons --list-available --country GB
`

// StoreAPI lists purchased add-ons.
type StoreAPI interface {
	GetAddOn(ctx context.Context, opts store.AddOnSearchOptions) ([]store.AddOn, error)
}

// MarketplaceAPI lists add-ons available for purchase.
type MarketplaceAPI interface {
	GetAvailableOffers(ctx context.Context, country string) ([]marketplace.Offer, error)
	IsKnownProvider(providerIdentifier string) bool
}

// NewStoreAddOnsCommand returns a command listing store add-ons.
func NewStoreAddOnsCommand() cmd.Command {
	c := &storeAddOnsCommand{}
	c.newStoreAPIFunc = c.newStoreAPI
	c.newMarketplaceAPIFunc = c.newMarketplaceAPI
	return c
}

type storeAddOnsCommand struct {
	subscriptioncmd.SubscriptionCommandBase
	out cmd.Output

	newStoreAPIFunc       func() (StoreAPI, error)
	newMarketplaceAPIFunc func(context.Context) (MarketplaceAPI, error)

	name          string
	listAvailable bool
	country       string
}

// Info implements cmd.Command.
func (c *storeAddOnsCommand) Info() *cmd.Info {
	return azsmcmd.Info(&cmd.Info{
		Name:     "store-add-ons",
		Args:     "[<name>]",
		Purpose:  "Lists purchased or available store add-ons.",
		Doc:      storeAddOnsDoc,
		Examples: storeAddOnsExamples,
	})
}

// SetFlags implements cmd.Command.
func (c *storeAddOnsCommand) SetFlags(f *gnuflag.FlagSet) {
	c.SubscriptionCommandBase.SetFlags(f)
	c.out.AddFlags(f, "tabular", output.DefaultFormatters(formatTabular))
	f.BoolVar(&c.listAvailable, "list-available", false, "List add-ons available for purchase")
	f.StringVar(&c.country, "country", "", "Two letter country code of available add-ons (default US)")
}

// Init implements cmd.Command.
func (c *storeAddOnsCommand) Init(args []string) error {
	if len(args) > 0 {
		c.name, args = args[0], args[1:]
	}
	if err := cmd.CheckEmpty(args); err != nil {
		return errors.Trace(err)
	}
	if c.listAvailable {
		if c.name != "" {
			return errors.New("cannot specify an add-on name with --list-available")
		}
		if c.country == "" {
			c.country = marketplace.DefaultCountry
		}
		return errors.Trace(marketplace.ValidateCountry(c.country))
	}
	if c.country != "" {
		return errors.New("--country requires --list-available")
	}
	return nil
}

// Run implements cmd.Command.
func (c *storeAddOnsCommand) Run(ctx *cmd.Context) error {
	stdCtx, cancel := c.StdContext(ctx)
	defer cancel()

	if c.listAvailable {
		return errors.Trace(c.listAvailableAddOns(ctx, stdCtx))
	}
	api, err := c.newStoreAPIFunc()
	if err != nil {
		return errors.Trace(err)
	}
	addOns, err := api.GetAddOn(stdCtx, store.AddOnSearchOptions{Name: c.name})
	if err != nil {
		return errors.Trace(err)
	}
	if len(addOns) == 0 {
		if c.name != "" {
			return errors.NotFoundf("add-on %q", c.name)
		}
		ctx.Infof("No add-ons purchased.")
		return nil
	}
	return c.out.Write(ctx, addOns)
}

func (c *storeAddOnsCommand) listAvailableAddOns(ctx *cmd.Context, stdCtx context.Context) error {
	api, err := c.newMarketplaceAPIFunc(stdCtx)
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Verbosef("Getting available add-ons, this may take a while.")
	offers, err := api.GetAvailableOffers(stdCtx, c.country)
	if err != nil {
		return errors.Trace(err)
	}
	var known []marketplace.Offer
	for _, offer := range offers {
		if api.IsKnownProvider(offer.ProviderIdentifier) {
			known = append(known, offer)
		}
	}
	if len(known) == 0 {
		ctx.Infof("No add-ons available in %s.", c.country)
		return nil
	}
	return c.out.Write(ctx, known)
}

func (c *storeAddOnsCommand) newStoreAPI() (StoreAPI, error) {
	client, err := c.NewServiceManagementClient()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return store.NewClient(client), nil
}

func (c *storeAddOnsCommand) newMarketplaceAPI(ctx context.Context) (MarketplaceAPI, error) {
	client, err := c.NewServiceManagementClient()
	if err != nil {
		return nil, errors.Trace(err)
	}
	locations, err := client.ListLocations(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	names := make([]string, len(locations))
	for i, l := range locations {
		names[i] = l.Name
	}
	return marketplace.NewClient(marketplace.ClientConfig{
		URL:       os.Getenv(osenv.AzsmMarketplaceURLEnvKey),
		Locations: names,
	}), nil
}

var (
	formatAddOns = output.Tabular(func(w *output.Wrapper, addOns []store.AddOn) {
		w.Println("Name", "Add-on", "Plan", "Location", "Status")
		for _, a := range addOns {
			w.Println(a.Name, a.AddOn, a.Plan, a.Location, a.Status)
		}
	})

	formatOffers = output.Tabular(func(w *output.Wrapper, offers []marketplace.Offer) {
		w.Println("Add-on", "Provider", "Plans", "Locations")
		for _, o := range offers {
			plans := make([]string, len(o.Plans))
			for i, p := range o.Plans {
				plans[i] = p.PlanIdentifier
			}
			w.Println(o.OfferIdentifier, o.ProviderName, plans, o.Locations)
		}
	})
)

func formatTabular(writer io.Writer, value interface{}) error {
	if _, ok := value.([]marketplace.Offer); ok {
		return formatOffers(writer, value)
	}
	return formatAddOns(writer, value)
}
