// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package servicemanagement

import (
	"encoding/xml"
)

const xmlSchemaInstance = "http://www.w3.org/2001/XMLSchema-instance"

// RawXML holds an element whose contents are passed through unchanged.
type RawXML struct {
	Inner string `xml:",innerxml"`
}

// Location is a data centre region.
type Location struct {
	Name              string   `xml:"Name"`
	DisplayName       string   `xml:"DisplayName"`
	AvailableServices []string `xml:"AvailableServices>AvailableService"`
}

type locationList struct {
	Locations []Location `xml:"Location"`
}

// HostedService is a cloud service.
type HostedService struct {
	ServiceName string `xml:"ServiceName"`
	URL         string `xml:"Url"`
	Location    string `xml:"HostedServiceProperties>Location"`
	Label       string `xml:"HostedServiceProperties>Label"`
	Status      string `xml:"HostedServiceProperties>Status"`
}

// HostedServiceExtension is an extension added to a cloud service.
type HostedServiceExtension struct {
	ProviderNameSpace   string `xml:"ProviderNameSpace"`
	Type                string `xml:"Type"`
	ID                  string `xml:"Id"`
	Version             string `xml:"Version"`
	Thumbprint          string `xml:"Thumbprint"`
	ThumbprintAlgorithm string `xml:"ThumbprintAlgorithm"`

	// PublicConfiguration is base64 encoded.
	PublicConfiguration string `xml:"PublicConfiguration"`
}

// ExtensionList is the response to ListHostedServiceExtensions.
type ExtensionList struct {
	Operation  Operation                `xml:"-"`
	Extensions []HostedServiceExtension `xml:"Extension"`
}

// Deployment is a deployment in a cloud service slot.
type Deployment struct {
	Name                   string                  `xml:"Name"`
	DeploymentSlot         string                  `xml:"DeploymentSlot"`
	PrivateID              string                  `xml:"PrivateID"`
	Status                 string                  `xml:"Status"`
	Label                  string                  `xml:"Label"`
	URL                    string                  `xml:"Url"`
	Roles                  []DeploymentRole        `xml:"RoleList>Role"`
	ExtensionConfiguration *ExtensionConfiguration `xml:"ExtensionConfiguration"`
}

// DeploymentRole is a role summary within a deployment.
type DeploymentRole struct {
	RoleName  string `xml:"RoleName"`
	OsVersion string `xml:"OsVersion"`
	RoleType  string `xml:"RoleType"`
}

// ExtensionConfiguration lists the extensions enabled for all roles
// of a deployment and for individual named roles.
type ExtensionConfiguration struct {
	AllRoles   []ExtensionReference `xml:"AllRoles>Extension"`
	NamedRoles []RoleExtensions     `xml:"NamedRoles>Role"`
}

// ExtensionReference refers to a hosted service extension by id.
type ExtensionReference struct {
	ID string `xml:"Id"`
}

// RoleExtensions lists the extensions of a single role.
type RoleExtensions struct {
	RoleName   string               `xml:"RoleName"`
	Extensions []ExtensionReference `xml:"Extensions>Extension"`
}

// Role is a persistent virtual machine role. Elements not needed by
// this client are carried through an update unchanged.
type Role struct {
	XMLName                     xml.Name                     `xml:"http://schemas.microsoft.com/windowsazure PersistentVMRole"`
	XmlnsI                      string                       `xml:"xmlns:i,attr,omitempty"`
	RoleName                    string                       `xml:"RoleName"`
	RoleType                    string                       `xml:"RoleType,omitempty"`
	ConfigurationSets           *RawXML                      `xml:"ConfigurationSets,omitempty"`
	ResourceExtensionReferences *ResourceExtensionReferences `xml:"ResourceExtensionReferences"`
	VMImageName                 string                       `xml:"VMImageName,omitempty"`
	MediaLocation               string                       `xml:"MediaLocation,omitempty"`
	AvailabilitySetName         string                       `xml:"AvailabilitySetName,omitempty"`
	DataVirtualHardDisks        *RawXML                      `xml:"DataVirtualHardDisks,omitempty"`
	Label                       string                       `xml:"Label,omitempty"`
	OSVirtualHardDisk           *RawXML                      `xml:"OSVirtualHardDisk,omitempty"`
	RoleSize                    string                       `xml:"RoleSize,omitempty"`
	ProvisionGuestAgent         *bool                        `xml:"ProvisionGuestAgent,omitempty"`
}

// ResourceExtensionReferences wraps the extension list of a role so
// an empty list is still sent, clearing the role's extensions.
type ResourceExtensionReferences struct {
	References []ResourceExtensionReference `xml:"ResourceExtensionReference"`
}

// ResourceExtensionReference is an extension installed on a virtual
// machine role.
type ResourceExtensionReference struct {
	ReferenceName   string  `xml:"ReferenceName"`
	Publisher       string  `xml:"Publisher"`
	Name            string  `xml:"Name"`
	Version         string  `xml:"Version"`
	ParameterValues *RawXML `xml:"ResourceExtensionParameterValues,omitempty"`
	State           string  `xml:"State,omitempty"`
}

// Extensions returns the role's extension references.
func (r *Role) Extensions() []ResourceExtensionReference {
	if r.ResourceExtensionReferences == nil {
		return nil
	}
	return r.ResourceExtensionReferences.References
}

// SetExtensions replaces the role's extension references.
func (r *Role) SetExtensions(refs []ResourceExtensionReference) {
	if refs == nil {
		refs = []ResourceExtensionReference{}
	}
	r.ResourceExtensionReferences = &ResourceExtensionReferences{References: refs}
}

// StorageServiceKeys are the access keys of a storage account.
type StorageServiceKeys struct {
	URL       string `xml:"Url"`
	Primary   string `xml:"StorageServiceKeys>Primary"`
	Secondary string `xml:"StorageServiceKeys>Secondary"`
}

// CloudService is a container of store add-on resources.
type CloudService struct {
	Name        string     `xml:"Name"`
	Label       string     `xml:"Label"`
	Description string     `xml:"Description"`
	GeoRegion   string     `xml:"GeoRegion"`
	Resources   []Resource `xml:"Resources>Resource"`
}

type cloudServiceList struct {
	CloudServices []CloudService `xml:"CloudService"`
}

// Resource is an add-on resource purchased from the store.
type Resource struct {
	ResourceProviderNamespace string       `xml:"ResourceProviderNamespace"`
	Type                      string       `xml:"Type"`
	Name                      string       `xml:"Name"`
	Plan                      string       `xml:"Plan"`
	SchemaVersion             string       `xml:"SchemaVersion"`
	ETag                      string       `xml:"ETag"`
	State                     string       `xml:"State"`
	OutputItems               []OutputItem `xml:"OutputItems>OutputItem"`
}

// OutputItem is a key/value produced by an add-on resource.
type OutputItem struct {
	Key   string `xml:"Key"`
	Value string `xml:"Value"`
}
