//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package signal

// TrackSink receives the sorted series of each chromosome of one output
// track, in chromosome order, and is closed once after the last series.
type TrackSink interface {
	WriteSeries(chrom string, pos []int, val []float64) error
	Close() error
}

// Emit finalizes and writes all chromosomes in order. Stranded counters
// write the positive and negative buckets to their respective sinks,
// unstranded counters write the collapsed bucket to sinkPos only. Empty
// chromosomes are skipped.
func Emit(c *Counter, total float64, sinkPos, sinkNeg TrackSink) error {
	sinks := [2]TrackSink{sinkPos, sinkNeg}
	for ib := 0; ib < c.NumBucket(); ib++ {
		for ic := range c.Chroms {
			series := c.Finalize(ic, ib, total)
			if len(series.Pos) == 0 {
				continue
			}
			if err := sinks[ib].WriteSeries(c.Chroms[ic].Name, series.Pos, series.Val); err != nil {
				return err
			}
		}
	}
	return nil
}
