// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package servicemanagement

import (
	"crypto/tls"
	"os"

	"github.com/juju/errors"
)

// LoadCertificate reads a management certificate and its private key
// from a single PEM file.
func LoadCertificate(path string) (*tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("management certificate %q", path)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	cert, err := tls.X509KeyPair(data, data)
	if err != nil {
		return nil, errors.Annotatef(err, "loading management certificate %q", path)
	}
	return &cert, nil
}
