// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package vhdtesting builds small in-memory images for tests.
package vhdtesting

import (
	"bytes"
	"encoding/binary"

	"github.com/juju/azsm/vhd"
)

// Block is the content of one allocated block of a dynamic image.
type Block struct {
	// Data is copied to the start of the block.
	Data []byte

	// Sectors lists the sectors marked in the block bitmap.
	// All sectors are marked when it is nil.
	Sectors []int
}

// Footer returns a footer for a disk of the given type and size.
func Footer(diskType vhd.DiskType, size int64, dataOffset uint64) vhd.Footer {
	var f vhd.Footer
	copy(f.Cookie[:], "conectix")
	f.Features = 2
	f.FileFormatVersion = 0x00010000
	f.DataOffset = dataOffset
	copy(f.CreatorApplication[:], "azsm")
	f.CreatorVersion = 0x00010000
	copy(f.CreatorHostOS[:], "Wi2k")
	f.OriginalSize = uint64(size)
	f.CurrentSize = uint64(size)
	f.DiskType = diskType
	f.UniqueID = [16]byte{1, 2, 3, 4}
	return f
}

// Fixed returns a fixed image holding data, which must be a multiple
// of the sector size.
func Fixed(data []byte) []byte {
	footer := Footer(vhd.DiskTypeFixed, int64(len(data)), 0xFFFFFFFFFFFFFFFF)
	return append(append([]byte{}, data...), footer.Bytes()...)
}

// Dynamic returns a dynamic image of size bytes with the given blocks
// allocated.
func Dynamic(size int64, blockSize uint32, blocks map[int]Block) []byte {
	return sparse(vhd.DiskTypeDynamic, size, blockSize, blocks)
}

// Differencing returns a differencing image of size bytes with the
// given blocks allocated.
func Differencing(size int64, blockSize uint32, blocks map[int]Block) []byte {
	return sparse(vhd.DiskTypeDifferencing, size, blockSize, blocks)
}

func sparse(diskType vhd.DiskType, size int64, blockSize uint32, blocks map[int]Block) []byte {
	const headerOffset = vhd.FooterSize
	const tableOffset = headerOffset + 1024
	entries := uint32((size + int64(blockSize) - 1) / int64(blockSize))
	tableSize := roundUp(int64(entries) * 4)
	bitmapSize := roundUp((int64(blockSize)/vhd.SectorSize + 7) / 8)

	footer := Footer(diskType, size, headerOffset).Bytes()

	var buf bytes.Buffer
	buf.Write(footer)
	buf.Write(dynamicHeader(tableOffset, entries, blockSize))

	table := make([]byte, tableSize)
	for i := range table {
		table[i] = 0xFF
	}
	next := int64(tableOffset) + tableSize
	var data bytes.Buffer
	for i := 0; i < int(entries); i++ {
		block, ok := blocks[i]
		if !ok {
			continue
		}
		binary.BigEndian.PutUint32(table[i*4:], uint32(next/vhd.SectorSize))
		bitmap := make([]byte, bitmapSize)
		if block.Sectors == nil {
			for s := 0; s < int(blockSize)/vhd.SectorSize; s++ {
				bitmap[s/8] |= 0x80 >> uint(s%8)
			}
		}
		for _, s := range block.Sectors {
			bitmap[s/8] |= 0x80 >> uint(s%8)
		}
		content := make([]byte, blockSize)
		copy(content, block.Data)
		data.Write(bitmap)
		data.Write(content)
		next += bitmapSize + int64(blockSize)
	}
	buf.Write(table)
	buf.Write(data.Bytes())
	buf.Write(footer)
	return buf.Bytes()
}

func dynamicHeader(tableOffset int64, entries, blockSize uint32) []byte {
	var h vhd.DynamicHeader
	copy(h.Cookie[:], "cxsparse")
	h.DataOffset = 0xFFFFFFFFFFFFFFFF
	h.TableOffset = uint64(tableOffset)
	h.HeaderVersion = 0x00010000
	h.MaxTableEntries = entries
	h.BlockSize = blockSize
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, &h)
	b := buf.Bytes()
	var sum uint32
	for _, c := range b {
		sum += uint32(c)
	}
	binary.BigEndian.PutUint32(b[36:], ^sum)
	return b
}

func roundUp(n int64) int64 {
	return (n + vhd.SectorSize - 1) / vhd.SectorSize * vhd.SectorSize
}
