//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package signal

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"git.sr.ht/~vejnar/TrackAbacus/lib/region"
)

func TestCountTab(t *testing.T) {
	c := qt.New(t)
	counter := NewCounter(testChroms, Config{ScaleFactor: 1.})
	text := "chr1\t10\t20\nchr1\t10.9\t20.9\tdensity\t0.5\nchr2\t5\t8\n"
	n, err := CountTab(strings.NewReader(text), nil, counter)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, uint64(3))
	c.Assert(counter.Stats.Records, qt.Equals, uint64(3))
	// Coordinates are truncated, both records start at 10
	series := counter.Finalize(0, StrandPos, 0)
	c.Assert(series.Pos, qt.DeepEquals, []int{10})
	c.Assert(series.Val, qt.DeepEquals, []float64{2.})
	// Tabulated records count with the forward rule
	c.Assert(counter.Finalize(0, StrandNeg, 0).Pos, qt.HasLen, 0)
	c.Assert(counter.Finalize(1, StrandPos, 0).Pos, qt.DeepEquals, []int{5})
}

func TestCountTabFragments(t *testing.T) {
	c := qt.New(t)
	counter := NewCounter(testChroms, Config{Fragments: true, ScaleFactor: 1.})
	n, err := CountTab(strings.NewReader("chr1\t10\t20\n"), nil, counter)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, uint64(1))
	c.Assert(counter.Finalize(0, StrandPos, 0).Pos, qt.DeepEquals, []int{10, 19})
}

func TestCountTabErrors(t *testing.T) {
	c := qt.New(t)
	for _, text := range []string{"chr1\t10\n", "chr1\tstart\t20\n", "chr1\t10\tend\n"} {
		counter := NewCounter(testChroms, Config{ScaleFactor: 1.})
		_, err := CountTab(strings.NewReader(text), nil, counter)
		c.Assert(err, qt.IsNotNil, qt.Commentf("%q", text))
	}
}

func TestCountTabFilter(t *testing.T) {
	c := qt.New(t)
	flt, err := region.NewFilter([]region.Region{{Chrom: "chr1", Start: 0, End: 15}}, 1)
	c.Assert(err, qt.IsNil)
	counter := NewCounter(testChroms, Config{ScaleFactor: 1.})
	n, err := CountTab(strings.NewReader("chr1\t10\t20\nchr1\t100\t120\n"), flt, counter)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, uint64(2))
	c.Assert(counter.Stats.Filtered, qt.Equals, uint64(1))
	c.Assert(counter.Finalize(0, StrandPos, 0).Pos, qt.DeepEquals, []int{10})
}
