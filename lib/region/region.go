//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package region

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
	"github.com/biogo/store/interval"

	"git.sr.ht/~vejnar/TrackAbacus/lib/esam"
)

// Region is a genomic interval. Coordinates are 0-based, end excluded.
type Region struct {
	Chrom string
	Start int
	End   int
}

// IntInterval is an integer-specific interval with an ID.
type IntInterval struct {
	Start, End int
	UID        uintptr
}

// Overlap returns true if both intervals overlap, using half-open interval indexing.
func (i IntInterval) Overlap(b interval.IntRange) bool {
	return i.End > b.Start && i.Start < b.End
}

// ID returns ID
func (i IntInterval) ID() uintptr {
	return i.UID
}

// Range returns Range
func (i IntInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.Start, End: i.End}
}

// ReadRegions parses a tabulated file with chromosome, start and end
// columns into regions.
func ReadRegions(path string) ([]Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var regions []Region
	var iline int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		iline++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, found %d", iline, len(fields))
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid start %q", iline, fields[1])
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid end %q", iline, fields[2])
		}
		regions = append(regions, Region{Chrom: fields[0], Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return regions, nil
}

// Filter reports whether records overlap a set of genomic regions by at
// least MinOverlap base(s).
type Filter struct {
	MinOverlap int

	trees map[string]*interval.IntTree
}

// NewFilter builds per-chromosome interval trees from regions.
func NewFilter(regions []Region, minOverlap int) (*Filter, error) {
	flt := Filter{MinOverlap: minOverlap, trees: make(map[string]*interval.IntTree)}
	for ir, region := range regions {
		tree, ok := flt.trees[region.Chrom]
		if !ok {
			tree = &interval.IntTree{}
			flt.trees[region.Chrom] = tree
		}
		err := tree.Insert(IntInterval{Start: region.Start, End: region.End, UID: uintptr(ir)}, false)
		if err != nil {
			return nil, err
		}
	}
	for _, tree := range flt.trees {
		tree.AdjustRanges()
	}
	return &flt, nil
}

// OverlapInterval reports whether the interval defined by start and end on
// chrom passes the filter.
func (flt *Filter) OverlapInterval(chrom string, start, end int) bool {
	tree, ok := flt.trees[chrom]
	if !ok {
		return false
	}
	for _, iv := range tree.Get(IntInterval{Start: start, End: end}) {
		r := iv.Range()
		if min(end, r.End)-max(start, r.Start) >= flt.MinOverlap {
			return true
		}
	}
	return false
}

// OverlapRecord reports whether the aligned part of the SAM record passes
// the filter. Only alignment blocks count toward the overlap, skipped
// regions and deletions do not.
func (flt *Filter) OverlapRecord(record *sam.Record) bool {
	tree, ok := flt.trees[record.Ref.Name()]
	if !ok {
		return false
	}
	for _, iv := range tree.Get(IntInterval{Start: record.Start(), End: record.End()}) {
		r := iv.Range()
		if esam.Overlap(record, r.Start, r.End) >= flt.MinOverlap {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a > b {
		return b
	}
	return a
}

func max(a, b int) int {
	if a < b {
		return b
	}
	return a
}
