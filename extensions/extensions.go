// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package extensions interprets the extension configuration of cloud
// service deployments and virtual machine roles.
package extensions

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"io"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/azsm/servicemanagement"
)

const (
	// DiagnosticsNamespace and DiagnosticsType identify the
	// diagnostics extension of a cloud service.
	DiagnosticsNamespace = "Microsoft.Windows.Azure.Extensions"
	DiagnosticsType      = "Diagnostics"

	// StorageAccountElement and WadCfgElement are elements of the
	// diagnostics extension's public configuration.
	StorageAccountElement = "StorageAccount"
	WadCfgElement         = "WadCfg"
)

// CheckNameSpaceType reports whether ext has the given provider
// namespace and type. Case is ignored.
func CheckNameSpaceType(ext servicemanagement.HostedServiceExtension, namespace, extensionType string) bool {
	return strings.EqualFold(ext.ProviderNameSpace, namespace) &&
		strings.EqualFold(ext.Type, extensionType)
}

// ConfigurationBuilder answers which extensions a deployment enables
// for each of its roles.
type ConfigurationBuilder struct {
	allRoles   set.Strings
	namedRoles map[string]set.Strings
}

// NewConfigurationBuilder returns a builder over the given extension
// configuration, which may be nil.
func NewConfigurationBuilder(config *servicemanagement.ExtensionConfiguration) *ConfigurationBuilder {
	b := &ConfigurationBuilder{
		allRoles:   set.NewStrings(),
		namedRoles: make(map[string]set.Strings),
	}
	if config == nil {
		return b
	}
	for _, ext := range config.AllRoles {
		b.allRoles.Add(ext.ID)
	}
	for _, role := range config.NamedRoles {
		ids, ok := b.namedRoles[role.RoleName]
		if !ok {
			ids = set.NewStrings()
			b.namedRoles[role.RoleName] = ids
		}
		for _, ext := range role.Extensions {
			ids.Add(ext.ID)
		}
	}
	return b
}

// Exist reports whether the extension with the given id is enabled
// for role. The default role matches extensions enabled for all roles.
func (b *ConfigurationBuilder) Exist(role ExtensionRole, id string) bool {
	if role.Default() {
		return b.allRoles.Contains(id)
	}
	ids, ok := b.namedRoles[role.RoleName]
	return ok && ids.Contains(id)
}

// PublicConfigValue returns the contents of the named element of ext's
// public configuration, or "" if the configuration has no such element.
func PublicConfigValue(ext servicemanagement.HostedServiceExtension, element string) (string, error) {
	if ext.PublicConfiguration == "" {
		return "", nil
	}
	doc, err := base64.StdEncoding.DecodeString(ext.PublicConfiguration)
	if err != nil {
		// The configuration is sometimes returned already decoded.
		doc = []byte(ext.PublicConfiguration)
	}
	d := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return "", nil
		} else if err != nil {
			return "", errors.Annotatef(err, "parsing public configuration of extension %q", ext.ID)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != element {
			continue
		}
		var value struct {
			Inner string `xml:",innerxml"`
		}
		if err := d.DecodeElement(&value, &start); err != nil {
			return "", errors.Annotatef(err, "parsing %s of extension %q", element, ext.ID)
		}
		return strings.TrimSpace(value.Inner), nil
	}
}
