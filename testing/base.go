// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package testing holds suites and helpers shared by the azsm tests.
package testing

import (
	"github.com/juju/loggo"
	"github.com/juju/testing"
	gc "gopkg.in/check.v1"

	"github.com/juju/azsm/osenv"
)

// BaseSuite isolates tests from the user's environment and gives each
// test an empty azsm data directory.
type BaseSuite struct {
	testing.IsolationSuite

	// DataHome is the data directory of the running test.
	DataHome string
}

func (s *BaseSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	// Commands register their own writers when run.
	loggo.ResetWriters()
	s.AddCleanup(func(*gc.C) { loggo.ResetWriters() })
	s.DataHome = c.MkDir()
	s.PatchEnvironment(osenv.AzsmDataHomeEnvKey, s.DataHome)
	s.PatchEnvironment(osenv.AzsmSubscriptionEnvKey, "")
	old := osenv.SetDataHome("")
	s.AddCleanup(func(*gc.C) { osenv.SetDataHome(old) })
	loggo.GetLogger("azsm").SetLogLevel(loggo.DEBUG)
}
