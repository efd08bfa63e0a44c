// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhd

import (
	"io"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("azsm.vhd")

// Range is a half-open byte range of the fixed image.
type Range struct {
	Offset int64
	Length int64
}

// End returns the offset one past the last byte of the range.
func (r Range) End() int64 {
	return r.Offset + r.Length
}

// Disk is an opened image. Reads address the fixed-format image of
// Size bytes, whatever the layout of the underlying file.
type Disk struct {
	r      io.ReaderAt
	size   int64
	footer Footer
	fixed  []byte

	header     DynamicHeader
	bat        []uint32
	bitmapSize int64

	mu      sync.Mutex
	bitmaps map[int64][]byte
}

// Open reads the footer of the image held in r, which is size bytes
// long, and for dynamic and differencing images its block table.
func Open(r io.ReaderAt, size int64) (*Disk, error) {
	if size < FooterSize {
		return nil, errors.NotValidf("image of %d bytes", size)
	}
	b := make([]byte, FooterSize)
	if _, err := r.ReadAt(b, size-FooterSize); err != nil {
		return nil, errors.Annotate(err, "reading footer")
	}
	footer, err := ParseFooter(b)
	if err != nil {
		return nil, errors.Trace(err)
	}
	d := &Disk{
		r:       r,
		size:    size,
		footer:  footer,
		fixed:   footer.AsFixed().Bytes(),
		bitmaps: make(map[int64][]byte),
	}
	if footer.DiskType == DiskTypeFixed {
		if want := int64(footer.CurrentSize) + FooterSize; size != want {
			return nil, errors.NotValidf("fixed image of %d bytes (expected %d)", size, want)
		}
		return d, nil
	}
	if d.header, err = readDynamicHeader(r, int64(footer.DataOffset)); err != nil {
		return nil, errors.Trace(err)
	}
	if d.bat, err = readBAT(r, d.header); err != nil {
		return nil, errors.Trace(err)
	}
	blocks := (int64(footer.CurrentSize) + int64(d.header.BlockSize) - 1) / int64(d.header.BlockSize)
	if int64(len(d.bat)) < blocks {
		return nil, errors.NotValidf("block table with %d entries for %d blocks", len(d.bat), blocks)
	}
	d.bitmapSize = bitmapSize(d.header.BlockSize)
	logger.Debugf("opened %s image: %d bytes, block size %d", footer.DiskType, footer.CurrentSize, d.header.BlockSize)
	return d, nil
}

// Footer returns the footer of the underlying file.
func (d *Disk) Footer() Footer {
	return d.footer
}

// Type returns the disk type of the underlying file.
func (d *Disk) Type() DiskType {
	return d.footer.DiskType
}

// Size returns the size of the fixed image, footer included.
func (d *Disk) Size() int64 {
	return int64(d.footer.CurrentSize) + FooterSize
}

// ReadAt implements io.ReaderAt over the fixed image. It is safe for
// concurrent use when the underlying reader is.
func (d *Disk) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.NotValidf("negative offset")
	}
	if d.footer.DiskType == DiskTypeFixed {
		return d.r.ReadAt(p, off)
	}
	dataSize := int64(d.footer.CurrentSize)
	n := 0
	for n < len(p) {
		pos := off + int64(n)
		if pos >= d.Size() {
			return n, io.EOF
		}
		if pos >= dataSize {
			n += copy(p[n:], d.fixed[pos-dataSize:])
			continue
		}
		blockSize := int64(d.header.BlockSize)
		block, inBlock := pos/blockSize, pos%blockSize
		chunk := min(int64(len(p)-n), blockSize-inBlock, dataSize-pos)
		if err := d.readBlock(p[n:n+int(chunk)], block, inBlock); err != nil {
			return n, errors.Trace(err)
		}
		n += int(chunk)
	}
	return n, nil
}

// readBlock fills p from block starting at offset inBlock, leaving
// sectors without data zeroed.
func (d *Disk) readBlock(p []byte, block, inBlock int64) error {
	clear(p)
	if d.bat[block] == unallocatedBlock {
		return nil
	}
	bitmap, err := d.bitmap(block)
	if err != nil {
		return errors.Trace(err)
	}
	base := int64(d.bat[block])*SectorSize + d.bitmapSize
	size := int64(len(p))
	for done := int64(0); done < size; {
		present := sectorPresent(bitmap, (inBlock+done)/SectorSize)
		end := done
		for end < size && sectorPresent(bitmap, (inBlock+end)/SectorSize) == present {
			end += SectorSize - (inBlock+end)%SectorSize
		}
		end = min(end, size)
		if present {
			if _, err := d.r.ReadAt(p[done:end], base+inBlock+done); err != nil {
				return errors.Annotatef(err, "reading block %d", block)
			}
		}
		done = end
	}
	return nil
}

func (d *Disk) bitmap(block int64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.bitmaps[block]; ok {
		return b, nil
	}
	b := make([]byte, d.bitmapSize)
	if _, err := d.r.ReadAt(b, int64(d.bat[block])*SectorSize); err != nil {
		return nil, errors.Annotatef(err, "reading sector bitmap of block %d", block)
	}
	d.bitmaps[block] = b
	return b, nil
}
