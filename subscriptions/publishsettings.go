// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package subscriptions

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"encoding/pem"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/utils/v4"
	"golang.org/x/crypto/pkcs12"
)

type publishData struct {
	Profiles []publishProfile `xml:"PublishProfile"`
}

type publishProfile struct {
	SchemaVersion         string                `xml:"SchemaVersion,attr"`
	URL                   string                `xml:"Url,attr"`
	ManagementCertificate string                `xml:"ManagementCertificate,attr"`
	Subscriptions         []publishSubscription `xml:"Subscription"`
}

type publishSubscription struct {
	ID                    string `xml:"Id,attr"`
	Name                  string `xml:"Name,attr"`
	ServiceManagementURL  string `xml:"ServiceManagementUrl,attr"`
	ManagementCertificate string `xml:"ManagementCertificate,attr"`
}

// ImportPublishSettings adds the subscriptions of a publish settings
// file to the store. Each subscription's management certificate is
// converted to PEM and written under CertificatesDir. Existing
// subscriptions of the same name are replaced.
func ImportPublishSettings(store SubscriptionUpdater, path string) ([]Subscription, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("publish settings file %q", path)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	var settings publishData
	if err := xml.Unmarshal(data, &settings); err != nil {
		return nil, errors.Annotatef(err, "parsing publish settings %q", path)
	}

	var imported []Subscription
	for _, profile := range settings.Profiles {
		for _, ps := range profile.Subscriptions {
			sub, err := importSubscription(profile, ps)
			if err != nil {
				return imported, errors.Annotatef(err, "importing subscription %q", ps.Name)
			}
			if err := store.UpdateSubscription(sub); err != nil {
				return imported, errors.Annotatef(err, "importing subscription %q", ps.Name)
			}
			logger.Infof("imported subscription %q (%s)", sub.Name, sub.ID)
			imported = append(imported, sub)
		}
	}
	if len(imported) == 0 {
		return nil, errors.NotFoundf("subscriptions in %q", path)
	}
	return imported, nil
}

func importSubscription(profile publishProfile, ps publishSubscription) (Subscription, error) {
	endpoint := ps.ServiceManagementURL
	if endpoint == "" {
		endpoint = profile.URL
	}
	encoded := ps.ManagementCertificate
	if encoded == "" {
		encoded = profile.ManagementCertificate
	}
	if encoded == "" {
		return Subscription{}, errors.NotValidf("missing management certificate")
	}
	certPEM, err := pfxToPEM(encoded)
	if err != nil {
		return Subscription{}, errors.Trace(err)
	}
	sub := Subscription{
		Name:                  ps.Name,
		ID:                    ps.ID,
		ManagementEndpoint:    strings.TrimSuffix(endpoint, "/"),
		ManagementCertificate: filepath.Join(CertificatesDir(), ps.ID+".pem"),
	}
	if err := sub.Validate(); err != nil {
		return Subscription{}, errors.Trace(err)
	}
	if err := os.MkdirAll(CertificatesDir(), 0700); err != nil {
		return Subscription{}, errors.Trace(err)
	}
	if err := utils.AtomicWriteFile(sub.ManagementCertificate, certPEM, 0600); err != nil {
		return Subscription{}, errors.Annotate(err, "writing management certificate")
	}
	return sub, nil
}

// pfxToPEM converts a base64 PKCS#12 archive with an empty password
// into a PEM certificate and key.
func pfxToPEM(encoded string) ([]byte, error) {
	pfx, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Annotate(err, "decoding management certificate")
	}
	blocks, err := pkcs12.ToPEM(pfx, "")
	if err != nil {
		return nil, errors.Annotate(err, "decoding management certificate")
	}
	var buf bytes.Buffer
	for _, b := range blocks {
		if err := pem.Encode(&buf, b); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if _, err := tls.X509KeyPair(buf.Bytes(), buf.Bytes()); err != nil {
		return nil, errors.Annotate(err, "management certificate")
	}
	return buf.Bytes(), nil
}
