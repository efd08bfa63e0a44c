// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package subscription_test

import (
	"os"
	"path/filepath"

	"github.com/juju/cmd/v3/cmdtesting"
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/azsm/cmd/azsm/subscription"
	"github.com/juju/azsm/subscriptions"
	coretesting "github.com/juju/azsm/testing"
)

type subscriptionSuite struct {
	coretesting.BaseSuite
	store subscriptions.Store
}

var _ = gc.Suite(&subscriptionSuite{})

var publishSettings string

func (s *subscriptionSuite) SetUpSuite(c *gc.C) {
	s.BaseSuite.SetUpSuite(c)
	var err error
	publishSettings, err = filepath.Abs(filepath.Join("..", "..", "..", "subscriptions", "testdata", "azure.publishsettings"))
	c.Assert(err, jc.ErrorIsNil)
}

func (s *subscriptionSuite) SetUpTest(c *gc.C) {
	s.BaseSuite.SetUpTest(c)
	s.store = subscriptions.NewFileStore()
}

func (s *subscriptionSuite) importSettings(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, subscription.NewImportPublishSettingsCommand(), publishSettings)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *subscriptionSuite) TestImport(c *gc.C) {
	ctx, err := cmdtesting.RunCommand(c, subscription.NewImportPublishSettingsCommand(), publishSettings)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stderr(ctx), gc.Equals, ""+
		"Imported subscription \"Pay-As-You-Go\" (5bd63a96-0c8f-4b07-8e51-4a8a1c0e6f35).\n"+
		"Imported subscription \"China\" (0f1d2c3b-4a59-4687-9a0b-1c2d3e4f5a6b).\n")

	subs, err := s.store.AllSubscriptions()
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(subs, gc.HasLen, 2)
}

func (s *subscriptionSuite) TestImportArgs(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, subscription.NewImportPublishSettingsCommand())
	c.Assert(err, gc.ErrorMatches, "no publish settings file specified")
	_, err = cmdtesting.RunCommand(c, subscription.NewImportPublishSettingsCommand(), "a", "b")
	c.Assert(err, gc.ErrorMatches, `unrecognized args: \["b"\]`)
}

func (s *subscriptionSuite) TestImportMissingFile(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, subscription.NewImportPublishSettingsCommand(), "missing.publishsettings")
	c.Assert(err, jc.Satisfies, errors.IsNotFound)
}

func (s *subscriptionSuite) TestListEmpty(c *gc.C) {
	ctx, err := cmdtesting.RunCommand(c, subscription.NewListSubscriptionsCommand())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stdout(ctx), gc.Equals, "")
	c.Assert(cmdtesting.Stderr(ctx), gc.Equals, "No subscriptions known. Use import-publish-settings to add one.\n")
}

func (s *subscriptionSuite) TestList(c *gc.C) {
	s.importSettings(c)
	ctx, err := cmdtesting.RunCommand(c, subscription.NewListSubscriptionsCommand())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stdout(ctx), gc.Equals, ""+
		"Subscription    Id                                    Endpoint                                  Storage account\n"+
		"China           0f1d2c3b-4a59-4687-9a0b-1c2d3e4f5a6b  https://management.core.chinacloudapi.cn  -\n"+
		"Pay-As-You-Go*  5bd63a96-0c8f-4b07-8e51-4a8a1c0e6f35  https://management.core.windows.net       -\n")
}

func (s *subscriptionSuite) TestListYAML(c *gc.C) {
	s.importSettings(c)
	ctx, err := cmdtesting.RunCommand(c, subscription.NewListSubscriptionsCommand(), "--format", "yaml")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stdout(ctx), gc.Equals, `
- name: China
  id: 0f1d2c3b-4a59-4687-9a0b-1c2d3e4f5a6b
  management-endpoint: https://management.core.chinacloudapi.cn
  default: false
- name: Pay-As-You-Go
  id: 5bd63a96-0c8f-4b07-8e51-4a8a1c0e6f35
  management-endpoint: https://management.core.windows.net
  default: true
`[1:])
}

func (s *subscriptionSuite) TestListStorageAccount(c *gc.C) {
	s.importSettings(c)
	sub, err := s.store.SubscriptionByName("China")
	c.Assert(err, jc.ErrorIsNil)
	sub.CurrentStorageAccount = "vhds"
	c.Assert(s.store.UpdateSubscription(*sub), jc.ErrorIsNil)

	ctx, err := cmdtesting.RunCommand(c, subscription.NewListSubscriptionsCommand(), "--format", "json")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stdout(ctx), jc.Contains, `"name":"China","id":"0f1d2c3b-4a59-4687-9a0b-1c2d3e4f5a6b","management-endpoint":"https://management.core.chinacloudapi.cn","current-storage-account":"vhds"`)
}

func (s *subscriptionSuite) TestDefault(c *gc.C) {
	s.importSettings(c)
	ctx, err := cmdtesting.RunCommand(c, subscription.NewDefaultSubscriptionCommand())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stdout(ctx), gc.Equals, "Pay-As-You-Go\n")

	ctx, err = cmdtesting.RunCommand(c, subscription.NewDefaultSubscriptionCommand(), "China")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stderr(ctx), gc.Equals, "Default subscription is now \"China\".\n")

	sub, err := s.store.CurrentSubscription("")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(sub.Name, gc.Equals, "China")
}

func (s *subscriptionSuite) TestDefaultUnknown(c *gc.C) {
	s.importSettings(c)
	_, err := cmdtesting.RunCommand(c, subscription.NewDefaultSubscriptionCommand(), "missing")
	c.Assert(err, gc.ErrorMatches, `subscription "missing" not found`)
}

func (s *subscriptionSuite) TestDefaultNone(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, subscription.NewDefaultSubscriptionCommand())
	c.Assert(err, gc.Equals, subscriptions.ErrNoCurrentSubscription)
}

func (s *subscriptionSuite) TestRemove(c *gc.C) {
	s.importSettings(c)
	sub, err := s.store.SubscriptionByName("China")
	c.Assert(err, jc.ErrorIsNil)

	ctx, err := cmdtesting.RunCommand(c, subscription.NewRemoveSubscriptionCommand(), "China")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cmdtesting.Stderr(ctx), gc.Equals, "Removed subscription \"China\".\n")

	_, err = s.store.SubscriptionByName("China")
	c.Assert(err, jc.Satisfies, errors.IsNotFound)
	_, err = os.Stat(sub.ManagementCertificate)
	c.Assert(err, jc.Satisfies, os.IsNotExist)
}

func (s *subscriptionSuite) TestRemoveKeepsExternalCertificate(c *gc.C) {
	certPath := filepath.Join(c.MkDir(), "mine.pem")
	coretesting.WriteCertificate(c, certPath)
	err := s.store.UpdateSubscription(subscriptions.Subscription{
		Name:                  "mine",
		ID:                    "9a8b7c6d-5e4f-4321-8fed-cba987654321",
		ManagementCertificate: certPath,
	})
	c.Assert(err, jc.ErrorIsNil)

	_, err = cmdtesting.RunCommand(c, subscription.NewRemoveSubscriptionCommand(), "mine")
	c.Assert(err, jc.ErrorIsNil)
	_, err = os.Stat(certPath)
	c.Assert(err, jc.ErrorIsNil)
}
