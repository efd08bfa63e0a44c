// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhd_test

import (
	"bytes"
	"context"
	"io"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/azsm/vhd"
	"github.com/juju/azsm/vhd/vhdtesting"
)

const blockSize = 4096

type diskSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&diskSuite{})

func open(c *gc.C, image []byte) *vhd.Disk {
	d, err := vhd.Open(bytes.NewReader(image), int64(len(image)))
	c.Assert(err, jc.ErrorIsNil)
	return d
}

func filled(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func (s *diskSuite) TestOpenFixed(c *gc.C) {
	data := make([]byte, 8*vhd.SectorSize)
	copy(data[vhd.SectorSize:], filled(vhd.SectorSize, 'a'))
	image := vhdtesting.Fixed(data)

	d := open(c, image)
	c.Assert(d.Type(), gc.Equals, vhd.DiskTypeFixed)
	c.Assert(d.Size(), gc.Equals, int64(len(image)))

	got, err := io.ReadAll(io.NewSectionReader(d, 0, d.Size()))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(got, jc.DeepEquals, image)
}

func (s *diskSuite) TestOpenTooSmall(c *gc.C) {
	_, err := vhd.Open(bytes.NewReader([]byte("short")), 5)
	c.Assert(err, jc.Satisfies, errors.IsNotValid)
}

func (s *diskSuite) TestBadCookie(c *gc.C) {
	image := vhdtesting.Fixed(make([]byte, vhd.SectorSize))
	copy(image[vhd.SectorSize:], "notvhd!!")
	_, err := vhd.Open(bytes.NewReader(image), int64(len(image)))
	c.Assert(err, gc.ErrorMatches, `footer cookie "notvhd!!" not valid`)
}

func (s *diskSuite) TestBadChecksum(c *gc.C) {
	image := vhdtesting.Fixed(make([]byte, vhd.SectorSize))
	image[len(image)-1] ^= 0xFF
	_, err := vhd.Open(bytes.NewReader(image), int64(len(image)))
	c.Assert(err, gc.ErrorMatches, `footer checksum .* not valid`)
}

func (s *diskSuite) TestFixedSizeMismatch(c *gc.C) {
	image := vhdtesting.Fixed(make([]byte, 2*vhd.SectorSize))
	image = append(make([]byte, vhd.SectorSize), image...)
	_, err := vhd.Open(bytes.NewReader(image), int64(len(image)))
	c.Assert(err, gc.ErrorMatches, `fixed image of 2048 bytes \(expected 1536\) not valid`)
}

func (s *diskSuite) TestDynamicReadsAsFixed(c *gc.C) {
	size := int64(3 * blockSize)
	image := vhdtesting.Dynamic(size, blockSize, map[int]vhdtesting.Block{
		1: {Data: filled(blockSize, 'b')},
	})
	d := open(c, image)
	c.Assert(d.Type(), gc.Equals, vhd.DiskTypeDynamic)
	c.Assert(d.Size(), gc.Equals, size+vhd.FooterSize)

	got, err := io.ReadAll(io.NewSectionReader(d, 0, d.Size()))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(got[:blockSize], jc.DeepEquals, make([]byte, blockSize))
	c.Assert(got[blockSize:2*blockSize], jc.DeepEquals, filled(blockSize, 'b'))
	c.Assert(got[2*blockSize:size], jc.DeepEquals, make([]byte, blockSize))

	footer, err := vhd.ParseFooter(got[size:])
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(footer.DiskType, gc.Equals, vhd.DiskTypeFixed)
	c.Assert(footer.CurrentSize, gc.Equals, uint64(size))
}

func (s *diskSuite) TestReadAcrossBlocks(c *gc.C) {
	image := vhdtesting.Dynamic(2*blockSize, blockSize, map[int]vhdtesting.Block{
		0: {Data: filled(blockSize, 'x')},
		1: {Data: filled(blockSize, 'y')},
	})
	d := open(c, image)
	buf := make([]byte, 1024)
	n, err := d.ReadAt(buf, blockSize-512)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(n, gc.Equals, 1024)
	c.Assert(buf[:512], jc.DeepEquals, filled(512, 'x'))
	c.Assert(buf[512:], jc.DeepEquals, filled(512, 'y'))
}

func (s *diskSuite) TestReadPastEnd(c *gc.C) {
	image := vhdtesting.Dynamic(blockSize, blockSize, nil)
	d := open(c, image)
	buf := make([]byte, 1024)
	n, err := d.ReadAt(buf, d.Size()-512)
	c.Assert(err, gc.Equals, io.EOF)
	c.Assert(n, gc.Equals, 512)
}

func (s *diskSuite) TestUnmarkedSectorsReadAsZero(c *gc.C) {
	image := vhdtesting.Differencing(blockSize, blockSize, map[int]vhdtesting.Block{
		0: {Data: filled(blockSize, 'z'), Sectors: []int{2, 3}},
	})
	d := open(c, image)
	c.Assert(d.Type(), gc.Equals, vhd.DiskTypeDifferencing)
	buf := make([]byte, blockSize)
	_, err := d.ReadAt(buf, 0)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(buf[:1024], jc.DeepEquals, make([]byte, 1024))
	c.Assert(buf[1024:2048], jc.DeepEquals, filled(1024, 'z'))
	c.Assert(buf[2048:], jc.DeepEquals, make([]byte, 2048))
}

func (s *diskSuite) TestDataRangesFixed(c *gc.C) {
	data := make([]byte, 8*vhd.SectorSize)
	copy(data[vhd.SectorSize:], filled(2*vhd.SectorSize, 'a'))
	copy(data[5*vhd.SectorSize:], filled(10, 'b'))
	d := open(c, vhdtesting.Fixed(data))

	ranges, err := d.DataRanges(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(ranges, jc.DeepEquals, []vhd.Range{
		{Offset: 512, Length: 1024},
		{Offset: 2560, Length: 512},
		{Offset: 4096, Length: 512},
	})
}

func (s *diskSuite) TestDataRangesDynamic(c *gc.C) {
	image := vhdtesting.Dynamic(4*blockSize, blockSize, map[int]vhdtesting.Block{
		1: {},
		2: {Sectors: []int{0, 7}},
	})
	d := open(c, image)
	ranges, err := d.DataRanges(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(ranges, jc.DeepEquals, []vhd.Range{
		{Offset: blockSize, Length: blockSize + 512},
		{Offset: 2*blockSize + 7*512, Length: 512},
		{Offset: 4 * blockSize, Length: 512},
	})
}

func (s *diskSuite) TestDataRangesCancelled(c *gc.C) {
	d := open(c, vhdtesting.Fixed(make([]byte, vhd.SectorSize)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.DataRanges(ctx)
	c.Assert(errors.Cause(err), gc.Equals, context.Canceled)
}
