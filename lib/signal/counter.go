//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package signal

import (
	"fmt"
	"sort"

	set "gopkg.in/fatih/set.v0"

	"git.sr.ht/~vejnar/TrackAbacus/lib/genome"
)

// Strand buckets.
const (
	StrandPos = 0
	StrandNeg = 1
)

// Config stores the counting parameters. It is set once and never modified
// during a run.
type Config struct {
	Unstranded  bool
	Fragments   bool
	PosShift    int
	NegShift    int
	ScaleFactor float64
	ReadDepth   bool
	Verbose     bool
}

// Counts maps 0-based genomic positions to counts. Only positions receiving
// at least one count are stored.
type Counts map[int]int64

// Stats accumulates per-run record accounting.
type Stats struct {
	Records      uint64
	Counted      uint64
	Unmapped     uint64
	Filtered     uint64
	UnknownChrom uint64
}

// Counter accumulates per-base counts over the chromosomes of a genome, per
// strand. In unstranded mode both strand buckets share the same storage.
type Counter struct {
	Chroms  []genome.Chrom
	Config  Config
	Missing set.Interface
	Stats   Stats

	buckets [2][]Counts
	index   map[string]int
}

// NewCounter returns a counter over chroms. The chromosome order is kept
// for output.
func NewCounter(chroms []genome.Chrom, config Config) *Counter {
	c := Counter{
		Chroms:  chroms,
		Config:  config,
		Missing: set.New(set.NonThreadSafe),
		index:   make(map[string]int, len(chroms)),
	}
	c.buckets[StrandPos] = make([]Counts, len(chroms))
	c.buckets[StrandNeg] = make([]Counts, len(chroms))
	for ic, chrom := range chroms {
		c.index[chrom.Name] = ic
		c.buckets[StrandPos][ic] = make(Counts)
		if config.Unstranded {
			c.buckets[StrandNeg][ic] = c.buckets[StrandPos][ic]
		} else {
			c.buckets[StrandNeg][ic] = make(Counts)
		}
	}
	return &c
}

// NumBucket returns the number of active strand buckets.
func (c *Counter) NumBucket() int {
	if c.Config.Unstranded {
		return 1
	}
	return 2
}

// Add counts one record aligned to chrom on the interval defined by start
// and end (0-based, end excluded). Forward records count at their shifted
// start, reverse records at their shifted last base, and in fragments mode
// both ends count. Records on chromosomes absent from the counter are
// skipped and the chromosome is reported once.
func (c *Counter) Add(chrom string, start, end int, reverse bool) {
	ic, ok := c.index[chrom]
	if !ok {
		c.Stats.UnknownChrom++
		if !c.Missing.Has(chrom) {
			c.Missing.Add(chrom)
			if c.Config.Verbose {
				fmt.Println("Skipping unknown chromosome", chrom)
			}
		}
		return
	}
	s := start + c.Config.PosShift
	e := end + c.Config.NegShift
	if reverse {
		c.buckets[StrandNeg][ic][e-1]++
		if c.Config.Fragments {
			c.buckets[StrandNeg][ic][s]++
		}
	} else {
		c.buckets[StrandPos][ic][s]++
		if c.Config.Fragments {
			c.buckets[StrandPos][ic][e-1]++
		}
	}
	c.Stats.Counted++
}

// Total returns the sum of raw counts over all chromosomes and active
// buckets.
func (c *Counter) Total() float64 {
	var total int64
	for ib := 0; ib < c.NumBucket(); ib++ {
		for _, counts := range c.buckets[ib] {
			for _, n := range counts {
				total += n
			}
		}
	}
	return float64(total)
}

// Series is the sparse signal of one chromosome: positions in strictly
// increasing order with their values.
type Series struct {
	Pos []int
	Val []float64
}

// Finalize converts the sparse counts of the chromosome at index ic in
// bucket strand into a sorted series, applying the scale factor and, with
// ReadDepth, dividing by total.
func (c *Counter) Finalize(ic int, strand int, total float64) Series {
	counts := c.buckets[strand][ic]
	if len(counts) == 0 {
		return Series{}
	}
	factor := c.Config.ScaleFactor
	if c.Config.ReadDepth {
		factor /= total
	}
	series := Series{Pos: make([]int, 0, len(counts)), Val: make([]float64, len(counts))}
	for pos := range counts {
		series.Pos = append(series.Pos, pos)
	}
	sort.Ints(series.Pos)
	for i, pos := range series.Pos {
		series.Val[i] = float64(counts[pos]) * factor
	}
	return series
}
