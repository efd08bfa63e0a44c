// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package extensions

import (
	"strings"

	"github.com/juju/azsm/servicemanagement"
)

// RoleType distinguishes extensions applied to every role of a
// deployment from those applied to a single named role.
type RoleType string

const (
	RoleTypeDefault RoleType = "Default"
	RoleTypeNamed   RoleType = "NamedRoles"
)

// DefaultRoleName is the name shown for the default role.
const DefaultRoleName = "Default"

// ExtensionRole is a role an extension may be enabled for.
type ExtensionRole struct {
	RoleName string   `yaml:"role-name" json:"role-name"`
	RoleType RoleType `yaml:"role-type" json:"role-type"`
}

// NewExtensionRole returns the role with the given name. An empty name
// or "Default" is the default role.
func NewExtensionRole(name string) ExtensionRole {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, DefaultRoleName) {
		return ExtensionRole{RoleName: DefaultRoleName, RoleType: RoleTypeDefault}
	}
	return ExtensionRole{RoleName: name, RoleType: RoleTypeNamed}
}

// Default reports whether r is the default role.
func (r ExtensionRole) Default() bool {
	return r.RoleType == RoleTypeDefault
}

func (r ExtensionRole) String() string {
	return r.RoleName
}

// DeploymentRoles returns the named roles of the deployment followed
// by the default role.
func DeploymentRoles(d servicemanagement.Deployment) []ExtensionRole {
	roles := make([]ExtensionRole, 0, len(d.Roles)+1)
	seen := make(map[string]bool)
	for _, r := range d.Roles {
		role := NewExtensionRole(r.RoleName)
		if role.Default() || seen[role.RoleName] {
			continue
		}
		seen[role.RoleName] = true
		roles = append(roles, role)
	}
	return append(roles, NewExtensionRole(""))
}
