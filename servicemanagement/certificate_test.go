// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package servicemanagement_test

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/azsm/servicemanagement"
	coretesting "github.com/juju/azsm/testing"
)

type certificateSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&certificateSuite{})

func (s *certificateSuite) TestLoadCertificate(c *gc.C) {
	path := filepath.Join(c.MkDir(), "management.pem")
	coretesting.WriteCertificate(c, path)

	cert, err := servicemanagement.LoadCertificate(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(cert.Certificate, gc.HasLen, 1)
	c.Assert(cert.PrivateKey, gc.NotNil)
}

func (s *certificateSuite) TestLoadCertificateMissing(c *gc.C) {
	path := filepath.Join(c.MkDir(), "missing.pem")
	_, err := servicemanagement.LoadCertificate(path)
	c.Assert(err, jc.Satisfies, errors.IsNotFound)
}

func (s *certificateSuite) TestLoadCertificateInvalid(c *gc.C) {
	path := filepath.Join(c.MkDir(), "bad.pem")
	err := os.WriteFile(path, []byte("not a certificate"), 0600)
	c.Assert(err, jc.ErrorIsNil)
	_, err = servicemanagement.LoadCertificate(path)
	c.Assert(err, gc.ErrorMatches, `loading management certificate ".*bad.pem": .*`)
}
