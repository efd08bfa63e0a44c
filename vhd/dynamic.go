// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhd

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/juju/errors"
)

const (
	dynamicHeaderSize           = 1024
	dynamicHeaderCookie         = "cxsparse"
	dynamicHeaderChecksumOffset = 36

	// unallocatedBlock marks a BAT entry with no backing data.
	unallocatedBlock = 0xFFFFFFFF
)

// DynamicHeader follows the footer copy at the start of dynamic and
// differencing images.
type DynamicHeader struct {
	Cookie               [8]byte
	DataOffset           uint64
	TableOffset          uint64
	HeaderVersion        uint32
	MaxTableEntries      uint32
	BlockSize            uint32
	Checksum             uint32
	ParentUniqueID       [16]byte
	ParentTimeStamp      uint32
	Reserved             uint32
	ParentUnicodeName    [512]byte
	ParentLocatorEntries [8][24]byte
	Reserved2            [256]byte
}

func readDynamicHeader(r io.ReaderAt, offset int64) (DynamicHeader, error) {
	var h DynamicHeader
	b := make([]byte, dynamicHeaderSize)
	if _, err := r.ReadAt(b, offset); err != nil {
		return h, errors.Annotate(err, "reading dynamic disk header")
	}
	if err := binary.Read(bytes.NewReader(b), binary.BigEndian, &h); err != nil {
		return h, errors.Trace(err)
	}
	if string(h.Cookie[:]) != dynamicHeaderCookie {
		return h, errors.NotValidf("dynamic header cookie %q", h.Cookie[:])
	}
	if sum := checksum(b, dynamicHeaderChecksumOffset); sum != h.Checksum {
		return h, errors.NotValidf("dynamic header checksum %#x (expected %#x)", h.Checksum, sum)
	}
	if h.BlockSize == 0 || h.BlockSize%SectorSize != 0 {
		return h, errors.NotValidf("block size %d", h.BlockSize)
	}
	return h, nil
}

// readBAT reads the block allocation table. Entries hold the sector
// offset of each block, or unallocatedBlock.
func readBAT(r io.ReaderAt, h DynamicHeader) ([]uint32, error) {
	b := make([]byte, int64(h.MaxTableEntries)*4)
	if _, err := r.ReadAt(b, int64(h.TableOffset)); err != nil {
		return nil, errors.Annotate(err, "reading block allocation table")
	}
	bat := make([]uint32, h.MaxTableEntries)
	for i := range bat {
		bat[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return bat, nil
}

// bitmapSize is the size of the sector bitmap preceding each block,
// padded to a sector boundary.
func bitmapSize(blockSize uint32) int64 {
	sectors := int64(blockSize) / SectorSize
	n := (sectors + 7) / 8
	return (n + SectorSize - 1) / SectorSize * SectorSize
}

// sectorPresent reports whether sector i of a block holds data.
func sectorPresent(bitmap []byte, i int64) bool {
	return bitmap[i/8]&(0x80>>uint(i%8)) != 0
}
