// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhdupload

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Progress is a snapshot of a running upload.
type Progress struct {
	// Uploaded is the number of bytes written so far.
	Uploaded int64

	// Total is the number of bytes the upload will write.
	Total int64

	Elapsed time.Duration
}

// Percent returns the completed fraction as a percentage.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Uploaded) * 100 / float64(p.Total)
}

// Rate returns the average upload rate in bytes per second.
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Uploaded) / p.Elapsed.Seconds()
}

// Remaining estimates the time left at the average rate.
func (p Progress) Remaining() time.Duration {
	rate := p.Rate()
	if rate == 0 {
		return 0
	}
	return time.Duration(float64(p.Total-p.Uploaded) / rate * float64(time.Second))
}

func (p Progress) String() string {
	return fmt.Sprintf("%5.1f%% complete; %s of %s; %s/s; elapsed %s; remaining %s",
		p.Percent(),
		humanize.IBytes(uint64(p.Uploaded)),
		humanize.IBytes(uint64(p.Total)),
		humanize.IBytes(uint64(p.Rate())),
		p.Elapsed.Round(time.Second),
		p.Remaining().Round(time.Second),
	)
}
