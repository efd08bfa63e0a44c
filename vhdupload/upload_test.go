// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhdupload_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/azsm/vhd"
	"github.com/juju/azsm/vhd/vhdtesting"
	"github.com/juju/azsm/vhdupload"
)

const (
	destURI   = "https://account.blob.core.windows.net/vhds/disk.vhd"
	baseURI   = "https://account.blob.core.windows.net/vhds/base.vhd"
	blockSize = 4096
)

type uploadSuite struct {
	testing.IsolationSuite

	factory  *fakeFactory
	uploader *vhdupload.Uploader
	progress []vhdupload.Progress
	mu       sync.Mutex
}

var _ = gc.Suite(&uploadSuite{})

func (s *uploadSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.factory = newFakeFactory()
	s.progress = nil
	var err error
	s.uploader, err = vhdupload.NewUploader(vhdupload.Config{
		Factory: s.factory,
		Clock:   clock.WallClock,
		Progress: func(p vhdupload.Progress) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.progress = append(s.progress, p)
		},
		ProgressInterval: time.Millisecond,
		RetryDelay:       time.Millisecond,
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *uploadSuite) writeImage(c *gc.C, image []byte) string {
	path := filepath.Join(c.MkDir(), "disk.vhd")
	err := os.WriteFile(path, image, 0644)
	c.Assert(err, jc.ErrorIsNil)
	return path
}

func (s *uploadSuite) params(c *gc.C, path string) vhdupload.UploadParameters {
	dest, err := vhdupload.ParseBlobURI(destURI)
	c.Assert(err, jc.ErrorIsNil)
	return vhdupload.UploadParameters{
		Destination:             dest,
		LocalFilePath:           path,
		NumberOfUploaderThreads: 4,
	}
}

func md5Of(data []byte) string {
	sum := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func sectorData(sectors int, fill func(i int) byte) []byte {
	data := make([]byte, sectors*vhd.SectorSize)
	for i := 0; i < sectors; i++ {
		b := fill(i)
		for j := 0; j < vhd.SectorSize; j++ {
			data[i*vhd.SectorSize+j] = b
		}
	}
	return data
}

func (s *uploadSuite) TestNewUploaderValidates(c *gc.C) {
	_, err := vhdupload.NewUploader(vhdupload.Config{Clock: clock.WallClock})
	c.Assert(err, gc.ErrorMatches, "nil Factory not valid")
	_, err = vhdupload.NewUploader(vhdupload.Config{Factory: s.factory})
	c.Assert(err, gc.ErrorMatches, "nil Clock not valid")
}

func (s *uploadSuite) TestUploadFixed(c *gc.C) {
	data := sectorData(6000, func(i int) byte {
		if i%3 == 0 {
			return 0
		}
		return byte(i)
	})
	image := vhdtesting.Fixed(data)
	path := s.writeImage(c, image)

	result, err := s.uploader.Upload(context.Background(), s.params(c, path))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(result, jc.DeepEquals, &vhdupload.UploadContext{
		LocalFilePath:  path,
		DestinationURI: destURI,
	})

	blob := s.factory.blob(destURI)
	c.Assert(blob.data, jc.DeepEquals, image)
	c.Assert(base64.StdEncoding.EncodeToString(blob.md5), gc.Equals, md5Of(image))
	c.Assert(blob.metadata, jc.DeepEquals, map[string]string{
		vhdupload.MetadataMD5Key: md5Of(image),
	})
	for _, w := range blob.writes {
		c.Check(w.Length <= vhdupload.MaxChunkSize, jc.IsTrue)
	}

	c.Assert(s.progress, gc.Not(gc.HasLen), 0)
	last := s.progress[len(s.progress)-1]
	c.Assert(last.Uploaded, gc.Equals, last.Total)
	c.Assert(last.Percent(), gc.Equals, float64(100))
}

func (s *uploadSuite) TestUploadSkipsEmptySectors(c *gc.C) {
	data := make([]byte, 64*vhd.SectorSize)
	copy(data[10*vhd.SectorSize:], bytes.Repeat([]byte{7}, vhd.SectorSize))
	path := s.writeImage(c, vhdtesting.Fixed(data))

	_, err := s.uploader.Upload(context.Background(), s.params(c, path))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.factory.blob(destURI).sortedWrites(), jc.DeepEquals, []vhd.Range{
		{Offset: 10 * vhd.SectorSize, Length: vhd.SectorSize},
		{Offset: 64 * vhd.SectorSize, Length: vhd.FooterSize},
	})
}

func (s *uploadSuite) TestUploadDynamic(c *gc.C) {
	block := bytes.Repeat([]byte("dynamic!"), blockSize/8)
	image := vhdtesting.Dynamic(4*blockSize, blockSize, map[int]vhdtesting.Block{
		2: {Data: block},
	})
	path := s.writeImage(c, image)

	_, err := s.uploader.Upload(context.Background(), s.params(c, path))
	c.Assert(err, jc.ErrorIsNil)

	expanded := make([]byte, 4*blockSize)
	copy(expanded[2*blockSize:], block)

	blob := s.factory.blob(destURI)
	c.Assert(blob.data[:len(expanded)], jc.DeepEquals, expanded)
	footer, err := vhd.ParseFooter(blob.data[len(expanded):])
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(footer.DiskType, gc.Equals, vhd.DiskTypeFixed)
}

func (s *uploadSuite) TestDifferencingNeedsBaseImage(c *gc.C) {
	image := vhdtesting.Differencing(blockSize, blockSize, nil)
	path := s.writeImage(c, image)
	_, err := s.uploader.Upload(context.Background(), s.params(c, path))
	c.Assert(err, jc.Satisfies, errors.IsNotSupported)
}

func (s *uploadSuite) TestExistingBlobRefused(c *gc.C) {
	blob := s.factory.blob(destURI)
	blob.exists = true
	blob.data = make([]byte, 1024)

	path := s.writeImage(c, vhdtesting.Fixed(make([]byte, 1024)))
	_, err := s.uploader.Upload(context.Background(), s.params(c, path))
	c.Assert(err, jc.Satisfies, errors.IsAlreadyExists)
	c.Assert(err, gc.ErrorMatches, `blob ".*disk.vhd" \(use overwrite to replace it\) already exists`)
}

func (s *uploadSuite) TestOverWrite(c *gc.C) {
	blob := s.factory.blob(destURI)
	blob.exists = true
	blob.data = bytes.Repeat([]byte{1}, 4096)

	image := vhdtesting.Fixed(sectorData(4, func(i int) byte { return 9 }))
	path := s.writeImage(c, image)
	params := s.params(c, path)
	params.OverWrite = true

	_, err := s.uploader.Upload(context.Background(), params)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(blob.deleted, jc.IsTrue)
	c.Assert(blob.data, jc.DeepEquals, image)
}

func (s *uploadSuite) TestResume(c *gc.C) {
	data := sectorData(8192, func(i int) byte { return byte(i%250 + 1) })
	image := vhdtesting.Fixed(data)
	path := s.writeImage(c, image)

	blob := s.factory.blob(destURI)
	blob.exists = true
	blob.data = make([]byte, len(image))
	copy(blob.data, image[:vhdupload.MaxChunkSize])
	blob.pages = []vhd.Range{{Offset: 0, Length: vhdupload.MaxChunkSize}}
	blob.metadata = map[string]string{
		vhdupload.MetadataMD5Key:        md5Of(image),
		vhdupload.MetadataInProgressKey: "true",
	}

	_, err := s.uploader.Upload(context.Background(), s.params(c, path))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(blob.data, jc.DeepEquals, image)
	for _, w := range blob.sortedWrites() {
		c.Check(w.Offset >= vhdupload.MaxChunkSize, jc.IsTrue)
	}
	_, inProgress := blob.metadata[vhdupload.MetadataInProgressKey]
	c.Assert(inProgress, jc.IsFalse)
}

func (s *uploadSuite) TestResumeNeedsMatchingImage(c *gc.C) {
	image := vhdtesting.Fixed(sectorData(4, func(int) byte { return 1 }))
	path := s.writeImage(c, image)

	blob := s.factory.blob(destURI)
	blob.exists = true
	blob.data = make([]byte, len(image))
	blob.metadata = map[string]string{
		vhdupload.MetadataMD5Key:        "different",
		vhdupload.MetadataInProgressKey: "true",
	}
	_, err := s.uploader.Upload(context.Background(), s.params(c, path))
	c.Assert(err, jc.Satisfies, errors.IsAlreadyExists)
}

func (s *uploadSuite) TestChunkRetried(c *gc.C) {
	image := vhdtesting.Fixed(sectorData(4, func(int) byte { return 3 }))
	path := s.writeImage(c, image)
	blob := s.factory.blob(destURI)
	blob.failWrites = 2

	_, err := s.uploader.Upload(context.Background(), s.params(c, path))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(blob.data, jc.DeepEquals, image)
}

func (s *uploadSuite) TestChunkFailure(c *gc.C) {
	image := vhdtesting.Fixed(sectorData(4, func(int) byte { return 3 }))
	path := s.writeImage(c, image)
	s.factory.blob(destURI).failWrites = 1000

	_, err := s.uploader.Upload(context.Background(), s.params(c, path))
	c.Assert(err, gc.ErrorMatches, `writing 2560 bytes at offset 0: server busy`)
}

func (s *uploadSuite) TestCancelled(c *gc.C) {
	path := s.writeImage(c, vhdtesting.Fixed(make([]byte, 1024)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.uploader.Upload(ctx, s.params(c, path))
	c.Assert(errors.Cause(err), gc.Equals, context.Canceled)
}

func (s *uploadSuite) TestBoundedConcurrency(c *gc.C) {
	// Alternate empty sectors so that every data sector is its own chunk.
	image := vhdtesting.Fixed(sectorData(64, func(i int) byte { return byte(i % 2) }))
	path := s.writeImage(c, image)
	blob := s.factory.blob(destURI)
	blob.writeDelay = 10 * time.Millisecond
	params := s.params(c, path)
	params.NumberOfUploaderThreads = 3

	_, err := s.uploader.Upload(context.Background(), params)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(blob.data, jc.DeepEquals, image)
	c.Assert(blob.sortedWrites(), gc.HasLen, 33)
	c.Assert(blob.peakWrites() <= 3, jc.IsTrue, gc.Commentf("peak %d", blob.peakWrites()))
	c.Assert(blob.peakWrites() > 1, jc.IsTrue, gc.Commentf("peak %d", blob.peakWrites()))
}

func (s *uploadSuite) TestMaxBandwidth(c *gc.C) {
	image := vhdtesting.Fixed(sectorData(64, func(i int) byte { return byte(i + 1) }))
	path := s.writeImage(c, image)
	params := s.params(c, path)
	params.MaxBandwidth = 1 << 20

	_, err := s.uploader.Upload(context.Background(), params)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.factory.blob(destURI).data, jc.DeepEquals, image)
}

func (s *uploadSuite) TestMaxBandwidthCancelled(c *gc.C) {
	// The first chunk drains the bucket; at one byte a second the
	// next one would wait for weeks.
	image := vhdtesting.Fixed(sectorData(2*vhdupload.MaxChunkSize/vhd.SectorSize+8, func(int) byte { return 1 }))
	path := s.writeImage(c, image)
	params := s.params(c, path)
	params.NumberOfUploaderThreads = 1
	params.MaxBandwidth = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := s.uploader.Upload(ctx, params)
		done <- err
	}()
	time.AfterFunc(testing.ShortWait, cancel)

	select {
	case err := <-done:
		c.Assert(errors.Cause(err), gc.Equals, context.Canceled)
	case <-time.After(testing.LongWait):
		c.Fatalf("upload did not stop when cancelled")
	}
	c.Assert(len(s.factory.blob(destURI).sortedWrites()) < 4, jc.IsTrue)
}

func (s *uploadSuite) TestPatchMode(c *gc.C) {
	size := int64(2 * blockSize)
	baseData := bytes.Repeat([]byte{'B'}, int(size))
	baseImage := vhdtesting.Fixed(baseData)
	base := s.factory.blob(baseURI)
	base.exists = true
	base.data = append([]byte{}, baseImage...)
	base.pages = []vhd.Range{{Offset: 0, Length: int64(len(baseImage))}}

	image := vhdtesting.Differencing(size, blockSize, map[int]vhdtesting.Block{
		1: {Data: bytes.Repeat([]byte{'D'}, blockSize), Sectors: []int{0}},
	})
	path := s.writeImage(c, image)
	params := s.params(c, path)
	baseBlob, err := vhdupload.ParseBlobURI(baseURI)
	c.Assert(err, jc.ErrorIsNil)
	params.BaseImage = &baseBlob

	_, err = s.uploader.Upload(context.Background(), params)
	c.Assert(err, jc.ErrorIsNil)

	dest := s.factory.blob(destURI)
	c.Assert(dest.copiedFrom, gc.Equals, baseURI)
	c.Assert(dest.data[:blockSize], jc.DeepEquals, baseData[:blockSize])
	c.Assert(dest.data[blockSize:blockSize+512], jc.DeepEquals, bytes.Repeat([]byte{'D'}, 512))
	c.Assert(dest.data[blockSize+512:size], jc.DeepEquals, baseData[blockSize+512:])
	c.Assert(dest.sortedWrites(), jc.DeepEquals, []vhd.Range{
		{Offset: blockSize, Length: 512},
		{Offset: size, Length: vhd.FooterSize},
	})
	c.Assert(dest.md5, gc.IsNil)
	c.Assert(dest.metadata, jc.DeepEquals, map[string]string{
		vhdupload.MetadataMD5Key: md5Of(image),
	})
}

func (s *uploadSuite) TestPatchModeSizeMismatch(c *gc.C) {
	base := s.factory.blob(baseURI)
	base.exists = true
	base.data = make([]byte, 1024)

	path := s.writeImage(c, vhdtesting.Differencing(blockSize, blockSize, nil))
	params := s.params(c, path)
	baseBlob, err := vhdupload.ParseBlobURI(baseURI)
	c.Assert(err, jc.ErrorIsNil)
	params.BaseImage = &baseBlob

	_, err = s.uploader.Upload(context.Background(), params)
	c.Assert(err, gc.ErrorMatches, `base image of 1024 bytes for a disk of 4608 bytes not valid`)
}
