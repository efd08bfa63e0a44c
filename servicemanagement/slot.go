// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package servicemanagement

import (
	"strings"

	"github.com/juju/errors"
)

// DeploymentSlot is one of the two deployment environments of a
// cloud service.
type DeploymentSlot string

const (
	SlotProduction DeploymentSlot = "Production"
	SlotStaging    DeploymentSlot = "Staging"
)

// ParseDeploymentSlot accepts a slot name in any case. An empty name
// selects the production slot.
func ParseDeploymentSlot(s string) (DeploymentSlot, error) {
	switch {
	case s == "", strings.EqualFold(s, string(SlotProduction)):
		return SlotProduction, nil
	case strings.EqualFold(s, string(SlotStaging)):
		return SlotStaging, nil
	}
	return "", errors.NotValidf("deployment slot %q (expected %s or %s)", s, SlotProduction, SlotStaging)
}
