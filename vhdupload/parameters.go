// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhdupload

import (
	"github.com/juju/errors"
)

const (
	MinUploaderThreads     = 1
	MaxUploaderThreads     = 64
	DefaultUploaderThreads = 8
)

// UploadParameters describes a single upload.
type UploadParameters struct {
	// Destination is the page blob to write.
	Destination BlobURI

	// BaseImage, when set, selects patch mode: the base blob is
	// copied to the destination and only the local data is uploaded
	// on top of it.
	BaseImage *BlobURI

	LocalFilePath string

	// OverWrite deletes an existing destination blob first.
	OverWrite bool

	NumberOfUploaderThreads int

	// MaxBandwidth caps the upload rate in bytes per second.
	// Zero means no limit.
	MaxBandwidth int64
}

// PatchMode reports whether the upload patches a base image.
func (p UploadParameters) PatchMode() bool {
	return p.BaseImage != nil
}

// Validate checks the parameters are consistent.
func (p UploadParameters) Validate() error {
	if p.Destination.URI == nil {
		return errors.NotValidf("missing destination")
	}
	if p.LocalFilePath == "" {
		return errors.NotValidf("empty local file path")
	}
	if n := p.NumberOfUploaderThreads; n < MinUploaderThreads || n > MaxUploaderThreads {
		return errors.NotValidf("number of uploader threads %d (must be between %d and %d)",
			n, MinUploaderThreads, MaxUploaderThreads)
	}
	if p.MaxBandwidth < 0 {
		return errors.NotValidf("negative bandwidth limit")
	}
	if p.PatchMode() {
		if p.BaseImage.URI == nil {
			return errors.NotValidf("missing base image")
		}
		if p.Destination.HasSAS() {
			return errors.NotSupportedf("SAS Uri for the destination blob in patch mode: %s", p.Destination)
		}
	}
	return nil
}
