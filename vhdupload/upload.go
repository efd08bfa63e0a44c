// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package vhdupload uploads virtual hard disk images into page blobs.
package vhdupload

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/ratelimit"
	"github.com/juju/retry"
	"golang.org/x/sync/errgroup"

	"github.com/juju/azsm/vhd"
)

var logger = loggo.GetLogger("azsm.vhdupload")

const (
	// MetadataMD5Key holds the base64 MD5 of the local image.
	MetadataMD5Key = "azsmlocalmd5"

	// MetadataInProgressKey is present until every page is written.
	MetadataInProgressKey = "azsmuploadinprogress"

	// DefaultProgressInterval is how often progress is reported.
	DefaultProgressInterval = 5 * time.Second

	chunkAttempts = 5
	copyTimeout   = 2 * time.Hour
)

// UploadContext describes a completed upload.
type UploadContext struct {
	LocalFilePath  string `yaml:"local-file-path" json:"local-file-path"`
	DestinationURI string `yaml:"destination-uri" json:"destination-uri"`
}

// Config holds the dependencies of an Uploader.
type Config struct {
	Factory BlobFactory
	Clock   clock.Clock

	// Progress, if set, is called periodically while pages are written
	// and once when they are all done.
	Progress         func(Progress)
	ProgressInterval time.Duration

	// RetryDelay is the initial delay between attempts to write a chunk.
	RetryDelay time.Duration
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Factory == nil {
		return errors.NotValidf("nil Factory")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.ProgressInterval < 0 {
		return errors.NotValidf("negative ProgressInterval")
	}
	return nil
}

// Uploader writes local images to page blobs.
type Uploader struct {
	config Config
}

// NewUploader returns an Uploader using the supplied configuration.
func NewUploader(config Config) (*Uploader, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.ProgressInterval == 0 {
		config.ProgressInterval = DefaultProgressInterval
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	return &Uploader{config: config}, nil
}

// Upload copies the image at params.LocalFilePath to params.Destination.
// An interrupted upload of the same image is resumed, writing only the
// pages missing from the blob.
func (u *Uploader) Upload(ctx context.Context, params UploadParameters) (*UploadContext, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	f, err := os.Open(params.LocalFilePath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Trace(err)
	}
	disk, err := vhd.Open(f, info.Size())
	if err != nil {
		return nil, errors.Annotatef(err, "reading %q", params.LocalFilePath)
	}
	if disk.Type() == vhd.DiskTypeDifferencing && !params.PatchMode() {
		return nil, errors.NotSupportedf("differencing disk without a base image")
	}

	logger.Infof("calculating MD5 hash of %q", params.LocalFilePath)
	sum, err := imageMD5(ctx, disk)
	if err != nil {
		return nil, errors.Annotate(err, "calculating MD5 hash")
	}

	dest, err := u.config.Factory.PageBlob(ctx, params.Destination)
	if err != nil {
		return nil, errors.Trace(err)
	}
	resume, err := u.prepare(ctx, dest, disk, sum, params)
	if err != nil {
		return nil, errors.Trace(err)
	}

	ranges, err := disk.DataRanges(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if resume {
		existing, err := dest.PageRanges(ctx)
		if err != nil {
			return nil, errors.Annotate(err, "listing uploaded pages")
		}
		ranges = subtractRanges(ranges, existing)
		logger.Infof("resuming upload of %q", params.Destination)
	}
	if err := u.uploadRanges(ctx, dest, disk, ranges, params); err != nil {
		return nil, errors.Trace(err)
	}

	// A patched blob holds the base image merged with the local
	// differences, so the local digest does not describe it and the
	// one copied from the base is stale.
	contentMD5 := sum
	if params.PatchMode() {
		contentMD5 = nil
	}
	if err := dest.SetContentMD5(ctx, contentMD5); err != nil {
		return nil, errors.Annotate(err, "setting content MD5")
	}
	if err := dest.SetMetadata(ctx, map[string]string{MetadataMD5Key: encodeMD5(sum)}); err != nil {
		return nil, errors.Annotate(err, "clearing upload metadata")
	}
	return &UploadContext{
		LocalFilePath:  params.LocalFilePath,
		DestinationURI: params.Destination.String(),
	}, nil
}

// prepare makes the destination ready for pages to be written and
// reports whether an earlier upload is being resumed.
func (u *Uploader) prepare(ctx context.Context, dest PageBlob, disk *vhd.Disk, sum []byte, params UploadParameters) (bool, error) {
	props, err := dest.Properties(ctx)
	exists := err == nil
	if err != nil && !errors.IsNotFound(err) {
		return false, errors.Trace(err)
	}
	if exists {
		switch {
		case params.OverWrite:
			logger.Infof("deleting existing blob %q", params.Destination)
			if err := dest.Delete(ctx); err != nil {
				return false, errors.Annotate(err, "deleting existing blob")
			}
		case !params.PatchMode() && canResume(props, disk, sum):
			return true, nil
		default:
			return false, errors.AlreadyExistsf("blob %q (use overwrite to replace it)", params.Destination)
		}
	}

	metadata := map[string]string{
		MetadataMD5Key:        encodeMD5(sum),
		MetadataInProgressKey: "true",
	}
	if !params.PatchMode() {
		if err := dest.Create(ctx, disk.Size(), metadata); err != nil {
			return false, errors.Annotate(err, "creating page blob")
		}
		return false, nil
	}
	if err := u.copyBase(ctx, dest, disk, *params.BaseImage); err != nil {
		return false, errors.Trace(err)
	}
	if err := dest.SetMetadata(ctx, metadata); err != nil {
		return false, errors.Trace(err)
	}
	return false, nil
}

func canResume(props BlobProperties, disk *vhd.Disk, sum []byte) bool {
	_, inProgress := props.Metadata[MetadataInProgressKey]
	return inProgress && props.Size == disk.Size() && props.Metadata[MetadataMD5Key] == encodeMD5(sum)
}

var errCopyPending = errors.New("copy pending")

// copyBase copies the base image into dest and waits for the copy to
// complete.
func (u *Uploader) copyBase(ctx context.Context, dest PageBlob, disk *vhd.Disk, baseURI BlobURI) error {
	base, err := u.config.Factory.PageBlob(ctx, baseURI)
	if err != nil {
		return errors.Trace(err)
	}
	baseProps, err := base.Properties(ctx)
	if err != nil {
		return errors.Annotatef(err, "reading base image %q", baseURI)
	}
	if baseProps.Size != disk.Size() {
		return errors.NotValidf("base image of %d bytes for a disk of %d bytes", baseProps.Size, disk.Size())
	}
	logger.Infof("copying base image %q", baseURI)
	if err := dest.StartCopy(ctx, baseURI.String()); err != nil {
		return errors.Annotate(err, "starting copy of base image")
	}
	err = retry.Call(retry.CallArgs{
		Func: func() error {
			props, err := dest.Properties(ctx)
			if err != nil {
				return errors.Trace(err)
			}
			switch props.CopyStatus {
			case CopySuccess, CopyNone:
				return nil
			case CopyPending:
				return errCopyPending
			}
			return errors.Errorf("copy of base image %s: %s", props.CopyStatus, props.CopyStatusDescription)
		},
		IsFatalError: func(err error) bool {
			return err != errCopyPending
		},
		Attempts:    -1,
		Delay:       2 * time.Second,
		MaxDelay:    30 * time.Second,
		MaxDuration: copyTimeout,
		BackoffFunc: retry.DoubleDelay,
		Clock:       u.config.Clock,
		Stop:        ctx.Done(),
	})
	if retry.IsDurationExceeded(err) || retry.IsRetryStopped(err) {
		return errors.Annotate(retry.LastError(err), "waiting for copy of base image")
	}
	return errors.Trace(err)
}

// uploadRanges writes the data in ranges with a bounded pool of workers.
func (u *Uploader) uploadRanges(ctx context.Context, dest PageBlob, disk *vhd.Disk, ranges []vhd.Range, params UploadParameters) error {
	chunks := splitRanges(ranges, MaxChunkSize)
	total := totalLength(chunks)
	logger.Infof("uploading %d bytes in %d chunks with %d threads", total, len(chunks), params.NumberOfUploaderThreads)

	var bucket *ratelimit.Bucket
	if params.MaxBandwidth > 0 {
		bucket = ratelimit.NewBucketWithRate(float64(params.MaxBandwidth), max(params.MaxBandwidth, MaxChunkSize))
	}

	var uploaded atomic.Int64
	stopProgress := u.reportProgress(&uploaded, total)
	defer stopProgress()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(params.NumberOfUploaderThreads)
	for _, chunk := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			buf := make([]byte, chunk.Length)
			if _, err := disk.ReadAt(buf, chunk.Offset); err != nil && err != io.EOF {
				return errors.Annotatef(err, "reading image at %d", chunk.Offset)
			}
			if bucket != nil {
				if err := u.throttle(gctx, bucket, chunk.Length); err != nil {
					return errors.Trace(err)
				}
			}
			if err := u.uploadChunk(gctx, dest, chunk.Offset, buf); err != nil {
				return errors.Trace(err)
			}
			uploaded.Add(chunk.Length)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Trace(err)
	}
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// throttle takes n bytes from the bucket, waiting until they are
// available or ctx is done.
func (u *Uploader) throttle(ctx context.Context, bucket *ratelimit.Bucket, n int64) error {
	d := bucket.Take(n)
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-u.config.Clock.After(d):
		return nil
	}
}

func (u *Uploader) uploadChunk(ctx context.Context, dest PageBlob, offset int64, data []byte) error {
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			return dest.UploadPages(ctx, offset, data)
		},
		IsFatalError: func(error) bool {
			return ctx.Err() != nil
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debugf("writing %d bytes at %d (attempt %d): %v", len(data), offset, attempt, err)
		},
		Attempts:    chunkAttempts,
		Delay:       u.config.RetryDelay,
		MaxDelay:    30 * time.Second,
		BackoffFunc: retry.DoubleDelay,
		Clock:       u.config.Clock,
		Stop:        ctx.Done(),
	})
	if retry.IsAttemptsExceeded(err) || retry.IsRetryStopped(err) {
		err = retry.LastError(err)
	}
	return errors.Annotatef(err, "writing %d bytes at offset %d", len(data), offset)
}

// reportProgress calls the progress callback until the returned
// function is called, which reports once more and stops.
func (u *Uploader) reportProgress(uploaded *atomic.Int64, total int64) func() {
	if u.config.Progress == nil {
		return func() {}
	}
	start := u.config.Clock.Now()
	report := func() {
		u.config.Progress(Progress{
			Uploaded: uploaded.Load(),
			Total:    total,
			Elapsed:  u.config.Clock.Now().Sub(start),
		})
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case <-u.config.Clock.After(u.config.ProgressInterval):
				report()
			}
		}
	}()
	return func() {
		close(stop)
		<-done
		report()
	}
}

func imageMD5(ctx context.Context, disk *vhd.Disk) ([]byte, error) {
	h := md5.New()
	r := io.NewSectionReader(disk, 0, disk.Size())
	buf := make([]byte, MaxChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		n, err := r.Read(buf)
		h.Write(buf[:n])
		if err == io.EOF {
			return h.Sum(nil), nil
		} else if err != nil {
			return nil, errors.Trace(err)
		}
	}
}

func encodeMD5(sum []byte) string {
	return base64.StdEncoding.EncodeToString(sum)
}

// normaliseMetadataKey undoes the header canonicalisation applied to
// metadata names returned by the blob service.
func normaliseMetadataKey(k string) string {
	return strings.ToLower(k)
}
