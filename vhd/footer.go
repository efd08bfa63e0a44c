// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package vhd reads Virtual Hard Disk images and exposes any of the
// supported disk types as the equivalent fixed-format image.
package vhd

import (
	"bytes"
	"encoding/binary"

	"github.com/juju/errors"
)

const (
	// SectorSize is the VHD sector size. Page blob writes must also be
	// aligned to it.
	SectorSize = 512

	// FooterSize is the size of the footer at the end of every image.
	FooterSize = 512

	footerCookie = "conectix"

	// fixedDataOffset is the data offset stored in fixed disk footers.
	fixedDataOffset = 0xFFFFFFFFFFFFFFFF

	footerChecksumOffset = 64
)

// DiskType identifies the layout of the image.
type DiskType uint32

const (
	DiskTypeNone         DiskType = 0
	DiskTypeFixed        DiskType = 2
	DiskTypeDynamic      DiskType = 3
	DiskTypeDifferencing DiskType = 4
)

func (t DiskType) String() string {
	switch t {
	case DiskTypeFixed:
		return "fixed"
	case DiskTypeDynamic:
		return "dynamic"
	case DiskTypeDifferencing:
		return "differencing"
	}
	return "unknown"
}

// Footer is the hard disk footer, stored big-endian in the last
// 512 bytes of the image.
type Footer struct {
	Cookie             [8]byte
	Features           uint32
	FileFormatVersion  uint32
	DataOffset         uint64
	TimeStamp          uint32
	CreatorApplication [4]byte
	CreatorVersion     uint32
	CreatorHostOS      [4]byte
	OriginalSize       uint64
	CurrentSize        uint64
	DiskGeometry       uint32
	DiskType           DiskType
	Checksum           uint32
	UniqueID           [16]byte
	SavedState         byte
	Reserved           [427]byte
}

// ParseFooter decodes and validates a footer.
func ParseFooter(b []byte) (Footer, error) {
	var f Footer
	if len(b) != FooterSize {
		return f, errors.NotValidf("footer of %d bytes", len(b))
	}
	if err := binary.Read(bytes.NewReader(b), binary.BigEndian, &f); err != nil {
		return f, errors.Trace(err)
	}
	if string(f.Cookie[:]) != footerCookie {
		return f, errors.NotValidf("footer cookie %q", f.Cookie[:])
	}
	if sum := checksum(b, footerChecksumOffset); sum != f.Checksum {
		return f, errors.NotValidf("footer checksum %#x (expected %#x)", f.Checksum, sum)
	}
	switch f.DiskType {
	case DiskTypeFixed, DiskTypeDynamic, DiskTypeDifferencing:
	default:
		return f, errors.NotSupportedf("disk type %d", f.DiskType)
	}
	if f.CurrentSize%SectorSize != 0 {
		return f, errors.NotValidf("disk size %d", f.CurrentSize)
	}
	return f, nil
}

// Bytes encodes the footer, recomputing its checksum.
func (f Footer) Bytes() []byte {
	f.Checksum = 0
	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = binary.Write(&buf, binary.BigEndian, &f)
	b := buf.Bytes()
	binary.BigEndian.PutUint32(b[footerChecksumOffset:], checksum(b, footerChecksumOffset))
	return b
}

// AsFixed returns the footer of the fixed image with the same contents.
func (f Footer) AsFixed() Footer {
	f.DiskType = DiskTypeFixed
	f.DataOffset = fixedDataOffset
	return f
}

// checksum is the one's complement of the byte sum of b, skipping the
// four checksum bytes at skip.
func checksum(b []byte, skip int) uint32 {
	var sum uint32
	for i, c := range b {
		if i >= skip && i < skip+4 {
			continue
		}
		sum += uint32(c)
	}
	return ^sum
}
