// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhd

import (
	"context"
	"io"

	"github.com/juju/errors"
)

const scanBufferSize = 4 << 20

// DataRanges returns the ranges of the fixed image that hold data,
// in ascending order. The footer is always included. For fixed images
// runs of zeroed sectors are left out; for dynamic and differencing
// images only sectors marked in the block bitmaps are returned.
func (d *Disk) DataRanges(ctx context.Context) ([]Range, error) {
	var (
		ranges []Range
		err    error
	)
	if d.footer.DiskType == DiskTypeFixed {
		ranges, err = d.scanFixed(ctx)
	} else {
		ranges, err = d.allocatedSectors(ctx)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return appendRange(ranges, Range{Offset: int64(d.footer.CurrentSize), Length: FooterSize}), nil
}

func (d *Disk) scanFixed(ctx context.Context) ([]Range, error) {
	var ranges []Range
	dataSize := int64(d.footer.CurrentSize)
	buf := make([]byte, scanBufferSize)
	for off := int64(0); off < dataSize; off += scanBufferSize {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		chunk := buf[:min(scanBufferSize, dataSize-off)]
		if _, err := d.r.ReadAt(chunk, off); err != nil && err != io.EOF {
			return nil, errors.Annotatef(err, "reading image at %d", off)
		}
		for i := 0; i < len(chunk); i += SectorSize {
			if !isZero(chunk[i : i+SectorSize]) {
				ranges = appendRange(ranges, Range{Offset: off + int64(i), Length: SectorSize})
			}
		}
	}
	return ranges, nil
}

func (d *Disk) allocatedSectors(ctx context.Context) ([]Range, error) {
	var ranges []Range
	dataSize := int64(d.footer.CurrentSize)
	blockSize := int64(d.header.BlockSize)
	sectors := blockSize / SectorSize
	for block, entry := range d.bat {
		start := int64(block) * blockSize
		if start >= dataSize {
			break
		}
		if entry == unallocatedBlock {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		bitmap, err := d.bitmap(int64(block))
		if err != nil {
			return nil, errors.Trace(err)
		}
		for i := int64(0); i < sectors; i++ {
			off := start + i*SectorSize
			if off >= dataSize {
				break
			}
			if sectorPresent(bitmap, i) {
				ranges = appendRange(ranges, Range{Offset: off, Length: SectorSize})
			}
		}
	}
	return ranges, nil
}

// appendRange adds r to the sorted ranges, merging it with the last
// range when they touch.
func appendRange(ranges []Range, r Range) []Range {
	if n := len(ranges); n > 0 && ranges[n-1].End() >= r.Offset {
		last := &ranges[n-1]
		last.Length = max(last.End(), r.End()) - last.Offset
		return ranges
	}
	return append(ranges, r)
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
