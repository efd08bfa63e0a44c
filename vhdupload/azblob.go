// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhdupload

import (
	"bytes"
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/pageblob"
	"github.com/juju/errors"

	"github.com/juju/azsm/vhd"
)

// DefaultKeyTimeout bounds the storage key lookup made for blobs
// addressed without a shared access signature.
const DefaultKeyTimeout = time.Minute

// StorageKeyFunc returns the primary access key of a storage account.
type StorageKeyFunc func(ctx context.Context, account string) (string, error)

// AzureBlobFactory creates page blob clients backed by the blob service.
type AzureBlobFactory struct {
	// StorageKey looks up account keys for URIs without a SAS.
	StorageKey StorageKeyFunc

	// KeyTimeout bounds each storage key lookup.
	KeyTimeout time.Duration

	// ClientOptions configures the blob service pipeline.
	ClientOptions policy.ClientOptions
}

// PageBlob is part of the BlobFactory interface.
func (f *AzureBlobFactory) PageBlob(ctx context.Context, uri BlobURI) (PageBlob, error) {
	opts := &pageblob.ClientOptions{ClientOptions: f.ClientOptions}
	if uri.HasSAS() {
		client, err := pageblob.NewClientWithNoCredential(uri.String(), opts)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return &azurePageBlob{client: client}, nil
	}
	if f.StorageKey == nil {
		return nil, errors.NotValidf("blob URI %q without a shared access signature", uri)
	}
	timeout := f.KeyTimeout
	if timeout == 0 {
		timeout = DefaultKeyTimeout
	}
	keyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	key, err := f.StorageKey(keyCtx, uri.StorageAccountName)
	if err != nil {
		return nil, errors.Annotatef(err, "getting keys for storage account %q", uri.StorageAccountName)
	}
	cred, err := blob.NewSharedKeyCredential(uri.StorageAccountName, key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	client, err := pageblob.NewClientWithSharedKeyCredential(uri.WithoutQuery(), cred, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &azurePageBlob{client: client}, nil
}

type azurePageBlob struct {
	client *pageblob.Client
}

func (b *azurePageBlob) Properties(ctx context.Context) (BlobProperties, error) {
	resp, err := b.client.GetProperties(ctx, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return BlobProperties{}, errors.NotFoundf("blob %q", b.client.URL())
	} else if err != nil {
		return BlobProperties{}, errors.Trace(err)
	}
	props := BlobProperties{
		ContentMD5: resp.ContentMD5,
		Metadata:   make(map[string]string),
	}
	if resp.ContentLength != nil {
		props.Size = *resp.ContentLength
	}
	if resp.CopyStatus != nil {
		props.CopyStatus = CopyStatus(*resp.CopyStatus)
	}
	if resp.CopyStatusDescription != nil {
		props.CopyStatusDescription = *resp.CopyStatusDescription
	}
	for k, v := range resp.Metadata {
		if v != nil {
			props.Metadata[normaliseMetadataKey(k)] = *v
		}
	}
	return props, nil
}

func (b *azurePageBlob) Create(ctx context.Context, size int64, metadata map[string]string) error {
	_, err := b.client.Create(ctx, size, &pageblob.CreateOptions{
		Metadata: toMetadata(metadata),
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: toPtr("application/octet-stream"),
		},
	})
	return errors.Trace(err)
}

func (b *azurePageBlob) Delete(ctx context.Context) error {
	snapshots := blob.DeleteSnapshotsOptionTypeInclude
	_, err := b.client.Delete(ctx, &blob.DeleteOptions{DeleteSnapshots: &snapshots})
	return errors.Trace(err)
}

func (b *azurePageBlob) StartCopy(ctx context.Context, source string) error {
	_, err := b.client.StartCopyFromURL(ctx, source, nil)
	return errors.Trace(err)
}

func (b *azurePageBlob) PageRanges(ctx context.Context) ([]vhd.Range, error) {
	var ranges []vhd.Range
	pager := b.client.NewGetPageRangesPager(nil)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		for _, pr := range resp.PageRange {
			if pr == nil || pr.Start == nil || pr.End == nil {
				continue
			}
			ranges = append(ranges, vhd.Range{Offset: *pr.Start, Length: *pr.End - *pr.Start + 1})
		}
	}
	return ranges, nil
}

func (b *azurePageBlob) UploadPages(ctx context.Context, offset int64, data []byte) error {
	body := streaming.NopCloser(bytes.NewReader(data))
	_, err := b.client.UploadPages(ctx, body, blob.HTTPRange{Offset: offset, Count: int64(len(data))}, nil)
	return errors.Trace(err)
}

func (b *azurePageBlob) SetMetadata(ctx context.Context, metadata map[string]string) error {
	_, err := b.client.SetMetadata(ctx, toMetadata(metadata), nil)
	return errors.Trace(err)
}

func (b *azurePageBlob) SetContentMD5(ctx context.Context, md5 []byte) error {
	_, err := b.client.SetHTTPHeaders(ctx, blob.HTTPHeaders{
		BlobContentMD5:  md5,
		BlobContentType: toPtr("application/octet-stream"),
	}, nil)
	return errors.Trace(err)
}

func toMetadata(m map[string]string) map[string]*string {
	out := make(map[string]*string, len(m))
	for k, v := range m {
		out[k] = toPtr(v)
	}
	return out
}

func toPtr[T any](v T) *T {
	return &v
}
