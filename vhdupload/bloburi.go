// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhdupload

import (
	"net/url"
	"strings"

	"github.com/juju/errors"
)

// BlobURI is a parsed page blob location of the form
// https://<account>.blob.<suffix>/<container>/<blob>[?<sas>].
type BlobURI struct {
	URI                *url.URL
	StorageAccountName string
	BlobContainerName  string
	BlobName           string

	// BaseURI is the scheme and host of the blob endpoint.
	BaseURI string

	// QueryString is the raw query, normally a shared access signature.
	QueryString string
}

// ParseBlobURI parses and validates a blob location.
func ParseBlobURI(uri string) (BlobURI, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return BlobURI{}, errors.NewNotValid(err, "blob URI "+uri)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return BlobURI{}, errors.NotValidf("blob URI %q scheme", uri)
	}
	host := u.Hostname()
	account, rest, ok := strings.Cut(host, ".")
	if !ok || account == "" || !strings.HasPrefix(rest, "blob.") {
		return BlobURI{}, errors.NotValidf("blob URI %q host", uri)
	}
	container, blob, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || container == "" || blob == "" {
		return BlobURI{}, errors.NotValidf("blob URI %q path", uri)
	}
	return BlobURI{
		URI:                u,
		StorageAccountName: account,
		BlobContainerName:  container,
		BlobName:           blob,
		BaseURI:            u.Scheme + "://" + u.Host,
		QueryString:        u.RawQuery,
	}, nil
}

// String returns the full URI, query included.
func (b BlobURI) String() string {
	if b.URI == nil {
		return ""
	}
	return b.URI.String()
}

// WithoutQuery returns the URI with any shared access signature removed.
func (b BlobURI) WithoutQuery() string {
	if b.URI == nil {
		return ""
	}
	u := *b.URI
	u.RawQuery = ""
	return u.String()
}

// HasSAS reports whether the URI carries a shared access signature.
func (b BlobURI) HasSAS() bool {
	return b.QueryString != ""
}
