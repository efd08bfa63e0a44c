// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package extensions

import (
	"strings"

	"github.com/juju/errors"

	"github.com/juju/azsm/servicemanagement"
)

// ReferenceFilter selects resource extension references of a virtual
// machine, either by reference name or by extension name and publisher.
type ReferenceFilter struct {
	ReferenceName string
	Name          string
	Publisher     string
	Version       string
}

// Validate checks the filter selects by exactly one of the two forms.
func (f ReferenceFilter) Validate() error {
	byExtension := f.Name != "" || f.Publisher != "" || f.Version != ""
	if !byExtension {
		if f.ReferenceName == "" {
			return errors.NotValidf("empty reference name")
		}
		return nil
	}
	if f.Name == "" {
		return errors.NotValidf("empty extension name")
	}
	if f.Publisher == "" {
		return errors.NotValidf("empty extension publisher")
	}
	if f.Version == "" {
		return errors.NotValidf("empty extension version")
	}
	return nil
}

// Matches reports whether ref is selected by the filter. A reference
// name, when given, takes precedence over name and publisher. Versions
// are not compared since references may carry version wildcards.
func (f ReferenceFilter) Matches(ref servicemanagement.ResourceExtensionReference) bool {
	if f.ReferenceName != "" {
		return strings.EqualFold(ref.ReferenceName, f.ReferenceName)
	}
	return strings.EqualFold(ref.Name, f.Name) && strings.EqualFold(ref.Publisher, f.Publisher)
}

func (f ReferenceFilter) String() string {
	if f.ReferenceName != "" {
		return "reference " + f.ReferenceName
	}
	return f.Publisher + "." + f.Name + " " + f.Version
}

// RemoveReferences returns refs without those matching f, and the
// number removed.
func RemoveReferences(refs []servicemanagement.ResourceExtensionReference, f ReferenceFilter) ([]servicemanagement.ResourceExtensionReference, int) {
	kept := make([]servicemanagement.ResourceExtensionReference, 0, len(refs))
	for _, ref := range refs {
		if !f.Matches(ref) {
			kept = append(kept, ref)
		}
	}
	return kept, len(refs) - len(kept)
}
