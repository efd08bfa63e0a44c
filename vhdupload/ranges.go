// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vhdupload

import (
	"github.com/juju/azsm/vhd"
)

// MaxChunkSize is the largest single page write.
const MaxChunkSize = 2 << 20

// subtractRanges returns the parts of want not covered by have. Both
// inputs must be sorted and non-overlapping.
func subtractRanges(want, have []vhd.Range) []vhd.Range {
	var result []vhd.Range
	j := 0
	for _, r := range want {
		start, end := r.Offset, r.End()
		for j < len(have) && have[j].End() <= start {
			j++
		}
		for k := j; k < len(have) && have[k].Offset < end; k++ {
			if have[k].Offset > start {
				result = append(result, vhd.Range{Offset: start, Length: have[k].Offset - start})
			}
			start = max(start, have[k].End())
			if start >= end {
				break
			}
		}
		if start < end {
			result = append(result, vhd.Range{Offset: start, Length: end - start})
		}
	}
	return result
}

// splitRanges cuts ranges into chunks of at most size bytes. Chunk
// boundaries fall on multiples of size so chunks stay sector aligned.
func splitRanges(ranges []vhd.Range, size int64) []vhd.Range {
	var chunks []vhd.Range
	for _, r := range ranges {
		for off := r.Offset; off < r.End(); {
			next := min((off/size+1)*size, r.End())
			chunks = append(chunks, vhd.Range{Offset: off, Length: next - off})
			off = next
		}
	}
	return chunks
}

func totalLength(ranges []vhd.Range) int64 {
	var n int64
	for _, r := range ranges {
		n += r.Length
	}
	return n
}
