// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package subscriptions stores the details of the subscriptions the
// client can manage, and which of them is used by default.
package subscriptions

import (
	"net/url"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Subscription holds what is needed to connect to the management API
// on behalf of a subscription.
type Subscription struct {
	// Name is the name the subscription is known by.
	Name string `yaml:"-"`

	// ID is the subscription's unique id.
	ID string `yaml:"id"`

	// ManagementEndpoint is the management API endpoint. The public
	// cloud endpoint is used when it is empty.
	ManagementEndpoint string `yaml:"management-endpoint,omitempty"`

	// ManagementCertificate is the path of a PEM file holding the
	// management certificate and its private key.
	ManagementCertificate string `yaml:"management-certificate"`

	// CurrentStorageAccount names the storage account selected for
	// the subscription. It is kept in the subscriptions file and
	// listed by the subscriptions command; no command defaults to it.
	CurrentStorageAccount string `yaml:"current-storage-account,omitempty"`

	// Default is set on the default subscription when read.
	Default bool `yaml:"-"`
}

// Validate checks the subscription details are complete.
func (s Subscription) Validate() error {
	if s.Name == "" {
		return errors.NotValidf("empty subscription name")
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		return errors.NotValidf("subscription id %q", s.ID)
	}
	if s.ManagementCertificate == "" {
		return errors.NotValidf("subscription %q without management certificate", s.Name)
	}
	if s.ManagementEndpoint != "" {
		u, err := url.Parse(s.ManagementEndpoint)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return errors.NotValidf("management endpoint %q", s.ManagementEndpoint)
		}
	}
	return nil
}

// SubscriptionsFile is the on-disk form of the subscriptions.
type SubscriptionsFile struct {
	// Default is the name of the default subscription.
	Default string `yaml:"default,omitempty"`

	// Subscriptions are keyed on name.
	Subscriptions map[string]Subscription `yaml:"subscriptions"`
}

// SubscriptionGetter reads subscriptions.
type SubscriptionGetter interface {
	// AllSubscriptions returns all subscriptions ordered by name.
	AllSubscriptions() ([]Subscription, error)

	// SubscriptionByName returns the named subscription. If there is
	// none, an error satisfying errors.IsNotFound is returned.
	SubscriptionByName(name string) (*Subscription, error)

	// CurrentSubscription returns the named subscription or, if name
	// is empty, the one named by $AZSM_SUBSCRIPTION or else the
	// default subscription. ErrNoCurrentSubscription is returned if
	// none of these name a subscription.
	CurrentSubscription(name string) (*Subscription, error)
}

// SubscriptionUpdater changes subscriptions.
type SubscriptionUpdater interface {
	// UpdateSubscription adds or replaces a subscription. The first
	// subscription added becomes the default.
	UpdateSubscription(Subscription) error

	// RemoveSubscription removes the named subscription.
	RemoveSubscription(name string) error

	// SetDefault makes the named subscription the default.
	SetDefault(name string) error
}

// Store stores subscriptions.
type Store interface {
	SubscriptionGetter
	SubscriptionUpdater
}

// ErrNoCurrentSubscription is returned by CurrentSubscription when no
// subscription is selected.
var ErrNoCurrentSubscription = errors.New(`no subscription selected
Use "azsm import-publish-settings" to add subscriptions and
"azsm default-subscription" to choose one`)
