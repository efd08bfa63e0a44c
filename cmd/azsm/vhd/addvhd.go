// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package vhd holds the command uploading virtual hard disks.
package vhd

import (
	"context"
	"fmt"
	"os"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
	"github.com/mattn/go-isatty"

	azsmcmd "github.com/juju/azsm/cmd"
	"github.com/juju/azsm/cmd/output"
	"github.com/juju/azsm/cmd/subscriptioncmd"
	"github.com/juju/azsm/vhdupload"
)

var logger = loggo.GetLogger("azsm.cmd.vhd")

const addVHDDoc = `
Uploads a virtual hard disk image to a page blob in blob storage.

Only the parts of the image holding data are uploaded. Dynamic and
differencing images are converted to fixed images as they are uploaded.

If the destination blob exists and was left by an interrupted upload of
the same image, the upload resumes. Otherwise the upload fails unless
--overwrite is given.

With --base-image, the destination is first copied from the base image
blob and the local image, typically a differencing image of the base,
is uploaded on top of it. The destination may not carry a shared access
signature in this mode.
`

const addVHDExamples = `
    azsm add-vhd https://myaccount.blob.core.windows.net/vhds/disk.vhd ./disk.vhd
    azsm add-vhd --threads 16 --overwrite \
        https://myaccount.blob.core.windows.net/vhds/disk.vhd ./disk.vhd
    azsm add-vhd --base-image https://myaccount.blob.core.windows.net/vhds/base.vhd \
        https://myaccount.blob.core.windows.net/vhds/child.vhd ./child.vhd
`

// Uploader uploads virtual hard disks.
type Uploader interface {
	Upload(ctx context.Context, params vhdupload.UploadParameters) (*vhdupload.UploadContext, error)
}

// NewAddVHDCommand returns a command that uploads a virtual hard disk.
func NewAddVHDCommand() cmd.Command {
	c := &addVHDCommand{}
	c.newUploaderFunc = c.newUploader
	return c
}

type addVHDCommand struct {
	subscriptioncmd.SubscriptionCommandBase
	out cmd.Output

	newUploaderFunc func(*cmd.Context) (Uploader, error)

	destination  string
	localFile    string
	baseImage    string
	threads      int
	overwrite    bool
	maxBandwidth int64

	params vhdupload.UploadParameters
}

// Info implements cmd.Command.
func (c *addVHDCommand) Info() *cmd.Info {
	return azsmcmd.Info(&cmd.Info{
		Name:     "add-vhd",
		Args:     "<destination-uri> <local-file>",
		Purpose:  "Uploads a virtual hard disk image to blob storage.",
		Doc:      addVHDDoc,
		Examples: addVHDExamples,
	})
}

// SetFlags implements cmd.Command.
func (c *addVHDCommand) SetFlags(f *gnuflag.FlagSet) {
	c.SubscriptionCommandBase.SetFlags(f)
	c.out.AddFlags(f, "tabular", output.DefaultFormatters(output.Tabular(formatUploadContextTabular)))
	f.StringVar(&c.destination, "destination", "", "Blob URI to upload to")
	f.StringVar(&c.destination, "dst", "", "")
	f.StringVar(&c.localFile, "local-file", "", "Path of the image to upload")
	f.StringVar(&c.localFile, "lf", "", "")
	f.StringVar(&c.baseImage, "base-image", "", "Blob URI of the base image to patch")
	f.StringVar(&c.baseImage, "bs", "", "")
	f.IntVar(&c.threads, "threads", vhdupload.DefaultUploaderThreads, "Number of pages uploaded in parallel")
	f.IntVar(&c.threads, "th", vhdupload.DefaultUploaderThreads, "")
	f.BoolVar(&c.overwrite, "overwrite", false, "Replace an existing destination blob")
	f.Int64Var(&c.maxBandwidth, "max-bandwidth", 0, "Upload rate limit in bytes per second (0 for none)")
}

// Init implements cmd.Command.
func (c *addVHDCommand) Init(args []string) error {
	if c.destination == "" && len(args) > 0 {
		c.destination, args = args[0], args[1:]
	}
	if c.localFile == "" && len(args) > 0 {
		c.localFile, args = args[0], args[1:]
	}
	if err := cmd.CheckEmpty(args); err != nil {
		return errors.Trace(err)
	}
	if c.destination == "" {
		return errors.New("no destination specified")
	}
	if c.localFile == "" {
		return errors.New("no local file specified")
	}
	destination, err := vhdupload.ParseBlobURI(c.destination)
	if err != nil {
		return errors.Trace(err)
	}
	c.params = vhdupload.UploadParameters{
		Destination:             destination,
		LocalFilePath:           c.localFile,
		OverWrite:               c.overwrite,
		NumberOfUploaderThreads: c.threads,
		MaxBandwidth:            c.maxBandwidth,
	}
	if c.baseImage != "" {
		base, err := vhdupload.ParseBlobURI(c.baseImage)
		if err != nil {
			return errors.Annotate(err, "base image")
		}
		c.params.BaseImage = &base
	}
	return errors.Trace(c.params.Validate())
}

// Run implements cmd.Command.
func (c *addVHDCommand) Run(ctx *cmd.Context) error {
	stdCtx, cancel := c.StdContext(ctx)
	defer cancel()

	uploader, err := c.newUploaderFunc(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	params := c.params
	params.LocalFilePath = ctx.AbsPath(params.LocalFilePath)
	if params.PatchMode() {
		ctx.Infof("patching %s from %s", params.Destination.WithoutQuery(), params.BaseImage.WithoutQuery())
	}
	result, err := uploader.Upload(stdCtx, params)
	if err != nil {
		return errors.Annotatef(err, "uploading %s", c.localFile)
	}
	return c.out.Write(ctx, *result)
}

func (c *addVHDCommand) newUploader(ctx *cmd.Context) (Uploader, error) {
	client, err := c.NewServiceManagementClient()
	if err != nil {
		return nil, errors.Trace(err)
	}
	factory := &vhdupload.AzureBlobFactory{
		StorageKey: func(ctx context.Context, account string) (string, error) {
			keys, err := client.GetStorageServiceKeys(ctx, account)
			if err != nil {
				return "", errors.Trace(err)
			}
			return keys.Primary, nil
		},
	}
	uploader, err := vhdupload.NewUploader(vhdupload.Config{
		Factory:  factory,
		Clock:    c.Clock(),
		Progress: progressReporter(ctx),
	})
	return uploader, errors.Trace(err)
}

// progressReporter returns a progress callback that redraws a status
// line on a terminal and logs otherwise.
func progressReporter(ctx *cmd.Context) func(vhdupload.Progress) {
	if f, ok := ctx.Stderr.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return func(p vhdupload.Progress) {
			fmt.Fprintf(f, "\r%s", p)
			if p.Uploaded == p.Total {
				fmt.Fprintln(f)
			}
		}
	}
	return func(p vhdupload.Progress) {
		logger.Infof("%s", p)
	}
}

func formatUploadContextTabular(w *output.Wrapper, result vhdupload.UploadContext) {
	w.Println("Local file", "Destination")
	w.Println(result.LocalFilePath, result.DestinationURI)
}
