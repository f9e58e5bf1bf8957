//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"git.sr.ht/~vejnar/TrackAbacus/lib/bedgraph"
	"git.sr.ht/~vejnar/TrackAbacus/lib/bigwig"
	"git.sr.ht/~vejnar/TrackAbacus/lib/genome"
	"git.sr.ht/~vejnar/TrackAbacus/lib/signal"
)

// Strand tags in output file names of stranded tracks.
var strandTags = [2]string{"+", "-"}

// CheckTrackFormat validates a track format.
func CheckTrackFormat(format string) error {
	switch format {
	case "bigwig", "bedgraph", "bedgraph+lz4", "bedgraph+lz4hc":
		return nil
	}
	return fmt.Errorf("unknown track format %q (expected 'bigwig', 'bedgraph', 'bedgraph+lz4' or 'bedgraph+lz4hc')", format)
}

// TrackPath builds the output file name of one track.
func TrackPath(name, format string, strand int, unstranded bool) string {
	base := name
	if !unstranded {
		base = name + "." + strandTags[strand]
	}
	switch format {
	case "bedgraph":
		return base + ".bedgraph"
	case "bedgraph+lz4", "bedgraph+lz4hc":
		return base + ".bedgraph.lz4"
	}
	return base + ".bw"
}

// multiSink fans series out to the sinks of every requested format.
type multiSink []signal.TrackSink

func (m multiSink) WriteSeries(chrom string, pos []int, val []float64) error {
	for _, sink := range m {
		if err := sink.WriteSeries(chrom, pos, val); err != nil {
			return err
		}
	}
	return nil
}

func (m multiSink) Close() error {
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			return err
		}
	}
	return nil
}

// bigWigSink couples a bigWig writer with its file.
type bigWigSink struct {
	f *os.File
	w *bigwig.Writer
}

func (s *bigWigSink) WriteSeries(chrom string, pos []int, val []float64) error {
	return s.w.WriteSeries(chrom, pos, val)
}

func (s *bigWigSink) Close() error {
	if err := s.w.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// openSink opens the output track of one format and strand.
func openSink(format, path string, chroms []genome.Chrom, zooms int) (signal.TrackSink, error) {
	if format == "bigwig" {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		w, err := bigwig.NewWriter(f, chroms, zooms)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &bigWigSink{f: f, w: w}, nil
	}
	var compression string
	if strings.Contains(format, "+") {
		compression = strings.Split(format, "+")[1]
	}
	return bedgraph.NewWriter(path, compression)
}

// WriteTracks finalizes the counter and writes every requested track
// format. Stranded counting writes one track per strand, unstranded
// counting a single track.
func WriteTracks(formats []string, name string, chroms []genome.Chrom, counter *signal.Counter, total float64, zooms int, timeStart time.Time, verbose bool) error {
	var sinkPos, sinkNeg multiSink
	for _, format := range formats {
		for strand := 0; strand < counter.NumBucket(); strand++ {
			path := TrackPath(name, format, strand, counter.Config.Unstranded)
			if verbose {
				timeNow := time.Now()
				fmt.Printf("%.1fmin - Writing %s track to %s\n", timeNow.Sub(timeStart).Minutes(), format, path)
			}
			sink, err := openSink(format, path, chroms, zooms)
			if err != nil {
				sinkPos.Close()
				sinkNeg.Close()
				return err
			}
			if strand == signal.StrandPos {
				sinkPos = append(sinkPos, sink)
			} else {
				sinkNeg = append(sinkNeg, sink)
			}
		}
	}
	if err := signal.Emit(counter, total, sinkPos, sinkNeg); err != nil {
		sinkPos.Close()
		sinkNeg.Close()
		return err
	}
	if err := sinkPos.Close(); err != nil {
		sinkNeg.Close()
		return err
	}
	return sinkNeg.Close()
}
