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
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"git.sr.ht/~vejnar/TrackAbacus/lib/esam"
	"git.sr.ht/~vejnar/TrackAbacus/lib/region"
	"git.sr.ht/~vejnar/TrackAbacus/lib/signal"
)

// Input kinds.
const (
	KindSAM = iota
	KindBAM
	KindTab
	KindTabGz
)

// Input stores the path and record kind of one input file.
type Input struct {
	Path string
	Kind int
}

// InputKind determines the record kind of an input file from its extension.
func InputKind(path string) (int, error) {
	switch {
	case strings.HasSuffix(path, ".sam"):
		return KindSAM, nil
	case strings.HasSuffix(path, ".bam"):
		return KindBAM, nil
	case strings.HasSuffix(path, ".tsv.gz"):
		return KindTabGz, nil
	case strings.HasSuffix(path, ".tsv"):
		return KindTab, nil
	}
	return 0, fmt.Errorf("unknown input format for %s (expected .sam, .bam, .tsv or .tsv.gz)", path)
}

// Count ingests all inputs into the counter, one after the other, and
// returns the number of records read.
func Count(inputs []Input, flt *region.Filter, counter *signal.Counter, nWorker int, timeStart time.Time, verbose bool) (uint64, error) {
	var nRecord uint64
	for _, input := range inputs {
		if verbose {
			timeNow := time.Now()
			fmt.Printf("%.1fmin - Counting %s\n", timeNow.Sub(timeStart).Minutes(), input.Path)
		}
		n, err := countOne(input, flt, counter, nWorker)
		if err != nil {
			return nRecord, fmt.Errorf("%s: %w", input.Path, err)
		}
		nRecord += n
	}
	return nRecord, nil
}

func countOne(input Input, flt *region.Filter, counter *signal.Counter, nWorker int) (uint64, error) {
	switch input.Kind {
	case KindSAM, KindBAM:
		f, reader, err := esam.Open(esam.PathSAM{Path: input.Path, Binary: input.Kind == KindBAM}, nWorker)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		return signal.CountSAM(reader, flt, counter)
	default:
		f, err := os.Open(input.Path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		var r io.Reader = f
		if input.Kind == KindTabGz {
			gz, err := gzip.NewReader(f)
			if err != nil {
				return 0, err
			}
			defer gz.Close()
			r = gz
		}
		return signal.CountTab(r, flt, counter)
	}
}
