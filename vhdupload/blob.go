// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhdupload

import (
	"context"

	"github.com/juju/azsm/vhd"
)

// CopyStatus is the state of a server side blob copy.
type CopyStatus string

const (
	CopyNone    CopyStatus = ""
	CopyPending CopyStatus = "pending"
	CopySuccess CopyStatus = "success"
	CopyFailed  CopyStatus = "failed"
	CopyAborted CopyStatus = "aborted"
)

// BlobProperties holds the properties of a page blob used to decide
// whether an upload starts, resumes or is refused.
type BlobProperties struct {
	Size                  int64
	Metadata              map[string]string
	ContentMD5            []byte
	CopyStatus            CopyStatus
	CopyStatusDescription string
}

// PageBlob is the set of page blob operations used by the uploader.
type PageBlob interface {
	// Properties returns the blob properties, or an error satisfying
	// errors.IsNotFound when the blob does not exist.
	Properties(ctx context.Context) (BlobProperties, error)

	// Create creates an empty page blob of the given size.
	Create(ctx context.Context, size int64, metadata map[string]string) error

	// Delete removes the blob.
	Delete(ctx context.Context) error

	// StartCopy starts a server side copy from source into the blob.
	StartCopy(ctx context.Context, source string) error

	// PageRanges returns the ranges of the blob holding data.
	PageRanges(ctx context.Context) ([]vhd.Range, error)

	// UploadPages writes data at offset. Both must be sector aligned.
	UploadPages(ctx context.Context, offset int64, data []byte) error

	SetMetadata(ctx context.Context, metadata map[string]string) error

	// SetContentMD5 sets the Content-MD5 property. A nil md5 clears it.
	SetContentMD5(ctx context.Context, md5 []byte) error
}

// BlobFactory returns page blob clients for blob locations.
type BlobFactory interface {
	PageBlob(ctx context.Context, uri BlobURI) (PageBlob, error)
}
