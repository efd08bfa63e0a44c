// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package marketplace lists the add-on offers of the store that can be
// purchased in the locations available to a subscription.
package marketplace

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/naturalsort"

	"github.com/juju/azsm/version"
)

var logger = loggo.GetLogger("azsm.marketplace")

const (
	// DefaultURL is the offers feed of the public store.
	DefaultURL = "https://marketplace.windowsazure.com/api/offers"

	// DefaultCountry is used when no country is given.
	DefaultCountry = "US"
)

// DefaultKnownProviders are the providers whose offers are listed.
var DefaultKnownProviders = []string{
	"activecloudmonitoring",
	"cleardb",
	"mailgun",
	"mongolab",
	"newrelic",
	"pusher",
	"sendgrid",
	"sqlsentry",
}

// Plan is a purchasable plan of an offer.
type Plan struct {
	PlanIdentifier string `json:"planIdentifier" yaml:"plan-identifier"`
	Name           string `json:"name" yaml:"name"`
	CountryCode    string `json:"countryCode" yaml:"country-code"`
}

// Offer is an add-on offered in the store.
type Offer struct {
	OfferIdentifier    string   `json:"offerIdentifier" yaml:"offer-identifier"`
	Name               string   `json:"name" yaml:"name"`
	ProviderIdentifier string   `json:"providerIdentifier" yaml:"provider-identifier"`
	ProviderName       string   `json:"providerName" yaml:"provider-name"`
	Locations          []string `json:"locations" yaml:"locations"`
	Plans              []Plan   `json:"plans" yaml:"plans"`
}

type offerFeed struct {
	Offers []Offer `json:"offers"`
}

// ValidateCountry checks country is a two letter country code.
func ValidateCountry(country string) error {
	if len(country) != 2 {
		return errors.NotValidf("country %q (expected a two letter code)", country)
	}
	for _, r := range country {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return errors.NotValidf("country %q (expected a two letter code)", country)
		}
	}
	return nil
}

// ClientConfig holds the configuration of a Client.
type ClientConfig struct {
	// URL is the offers feed. DefaultURL is used when it is empty.
	URL string

	// Locations are the locations available to the subscription.
	Locations []string

	// KnownProviders are the provider identifiers IsKnownProvider
	// accepts. DefaultKnownProviders is used when it is empty.
	KnownProviders []string

	// Transport, if set, replaces the HTTP client.
	Transport policy.Transporter
}

// Client reads the store's offers feed.
type Client struct {
	url       string
	locations set.Strings
	known     set.Strings
	pipeline  runtime.Pipeline
}

// NewClient returns a client that filters offers by the configured
// locations.
func NewClient(config ClientConfig) *Client {
	if config.URL == "" {
		config.URL = DefaultURL
	}
	known := config.KnownProviders
	if len(known) == 0 {
		known = DefaultKnownProviders
	}
	c := &Client{
		url:       config.URL,
		locations: set.NewStrings(),
		known:     set.NewStrings(),
	}
	for _, l := range config.Locations {
		c.locations.Add(strings.ToLower(l))
	}
	for _, p := range known {
		c.known.Add(strings.ToLower(p))
	}
	opts := &policy.ClientOptions{
		Transport: config.Transport,
		Telemetry: policy.TelemetryOptions{ApplicationID: "azsm/" + version.Current},
	}
	c.pipeline = runtime.NewPipeline("azsm/marketplace", version.Current, runtime.PipelineOptions{}, opts)
	return c
}

// IsKnownProvider reports whether offers of the provider are listed.
func (c *Client) IsKnownProvider(providerIdentifier string) bool {
	return c.known.Contains(strings.ToLower(providerIdentifier))
}

// GetAvailableOffers returns the offers with at least one plan sold in
// country and at least one location available to the subscription.
// Each offer's plans and locations are narrowed to those.
func (c *Client) GetAvailableOffers(ctx context.Context, country string) ([]Offer, error) {
	if country == "" {
		country = DefaultCountry
	}
	if err := ValidateCountry(country); err != nil {
		return nil, errors.Trace(err)
	}
	feed, err := c.fetch(ctx, country)
	if err != nil {
		return nil, errors.Annotate(err, "getting store offers")
	}
	var offers []Offer
	for _, offer := range feed.Offers {
		var plans []Plan
		for _, p := range offer.Plans {
			if p.CountryCode == "" || strings.EqualFold(p.CountryCode, country) {
				plans = append(plans, p)
			}
		}
		var locations []string
		for _, l := range offer.Locations {
			if c.locations.Contains(strings.ToLower(l)) {
				locations = append(locations, l)
			}
		}
		if len(plans) == 0 || len(locations) == 0 {
			logger.Tracef("skipping offer %q: %d plans, %d locations", offer.OfferIdentifier, len(plans), len(locations))
			continue
		}
		offer.Plans = plans
		offer.Locations = naturalsort.Sort(locations)
		offers = append(offers, offer)
	}
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Name < offers[j].Name
	})
	return offers, nil
}

func (c *Client) fetch(ctx context.Context, country string) (offerFeed, error) {
	req, err := runtime.NewRequest(ctx, http.MethodGet, c.url)
	if err != nil {
		return offerFeed{}, errors.Trace(err)
	}
	q := req.Raw().URL.Query()
	q.Set("country", strings.ToUpper(country))
	req.Raw().URL.RawQuery = q.Encode()
	req.Raw().Header.Set("Accept", "application/json")

	resp, err := c.pipeline.Do(req)
	if err != nil {
		return offerFeed{}, errors.Trace(err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		runtime.Drain(resp)
		return offerFeed{}, errors.Errorf("unexpected response %q", resp.Status)
	}
	var feed offerFeed
	if err := runtime.UnmarshalAsJSON(resp, &feed); err != nil {
		return offerFeed{}, errors.Annotate(err, "decoding offers")
	}
	return feed, nil
}
