//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"git.sr.ht/~vejnar/TrackAbacus/lib/genome"
	"git.sr.ht/~vejnar/TrackAbacus/lib/region"
	"git.sr.ht/~vejnar/TrackAbacus/lib/signal"
)

var version = "DEV"

func main() {
	// Arguments: General
	var pathGenome, outName, pathReport string
	var nWorker int
	var verbose, printVersion bool
	flag.StringVar(&pathGenome, "path_genome", "", "Path to chromosome lengths (tabulated or FASTA file)")
	flag.StringVar(&outName, "name", "", "Output track name (without extension)")
	flag.StringVar(&pathReport, "path_report", "", "Write report to path (stdout with -)")
	flag.IntVar(&nWorker, "num_worker", 1, "Number of BAM decompression worker(s)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose")
	flag.BoolVar(&printVersion, "version", false, "Print version and quit")
	// Arguments: Input
	var pathFilter string
	var filterMinOverlap int
	flag.StringVar(&pathFilter, "path_filter", "", "Path to regions restricting counting (tabulated chrom, start and end)")
	flag.IntVar(&filterMinOverlap, "filter_min_overlap", 1, "Minimum overlap of the record with the filter region(s)")
	// Arguments: Counting
	var posShift, negShift int
	var unstranded, fragments bool
	flag.BoolVar(&unstranded, "unstranded", false, "Merge strands into a single track")
	flag.BoolVar(&fragments, "fragments", false, "Count both ends of each record instead of its 5' end")
	flag.IntVar(&posShift, "pos_shift", 0, "Shift added to record starts")
	flag.IntVar(&negShift, "neg_shift", 0, "Shift added to record ends")
	// Arguments: Output
	var trackFormatsRaw string
	var scaleFactor float64
	var readDepth bool
	var zooms int
	flag.StringVar(&trackFormatsRaw, "track_formats", "bigwig", "Track format(s): 'bigwig', 'bedgraph', 'bedgraph+lz4' or 'bedgraph+lz4hc' (comma separated)")
	flag.Float64Var(&scaleFactor, "scale_factor", 1., "Multiply track values by factor")
	flag.BoolVar(&readDepth, "read_depth", false, "Normalize track values with total read depth")
	flag.IntVar(&zooms, "zooms", 0, "Maximum number of zoom level(s) in bigWig output")
	// Arguments: Parse
	flag.Parse()

	// Version
	if printVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Max CPU
	runtime.GOMAXPROCS(nWorker * 2)

	// Time start
	var timeStart time.Time
	if verbose {
		timeStart = time.Now()
	}

	// Check arguments
	if len(pathGenome) == 0 {
		log.Fatal("No genome input (see path_genome option)")
	} else if _, err := os.Stat(pathGenome); os.IsNotExist(err) {
		log.Fatalln(pathGenome, "not found")
	}
	if len(outName) == 0 {
		log.Fatal("No output track name (see name option)")
	}
	if flag.NArg() == 0 {
		log.Fatal("No input file")
	}

	// Parse raw arguments
	// inputs
	inputs := make([]Input, 0, flag.NArg())
	for _, p := range flag.Args() {
		kind, err := InputKind(p)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			log.Fatalln(p, "not found")
		}
		inputs = append(inputs, Input{Path: p, Kind: kind})
	}
	// trackFormats
	trackFormats := strings.Split(trackFormatsRaw, ",")
	for _, format := range trackFormats {
		if err := CheckTrackFormat(format); err != nil {
			log.Fatal(err)
		}
	}

	// Open genome
	chroms, err := genome.Read(pathGenome)
	if err != nil {
		log.Fatal(err)
	}
	if len(chroms) == 0 {
		log.Fatalln("No chromosome found in", pathGenome)
	}
	if verbose {
		timeNow := time.Now()
		fmt.Printf("%.1fmin - %d chromosome(s) from %s\n", timeNow.Sub(timeStart).Minutes(), len(chroms), pathGenome)
	}

	// Open region filter
	var flt *region.Filter
	if pathFilter != "" {
		regions, err := region.ReadRegions(pathFilter)
		if err != nil {
			log.Fatal(err)
		}
		flt, err = region.NewFilter(regions, filterMinOverlap)
		if err != nil {
			log.Fatal(err)
		}
		if verbose {
			timeNow := time.Now()
			fmt.Printf("%.1fmin - %d filter region(s) from %s\n", timeNow.Sub(timeStart).Minutes(), len(regions), pathFilter)
		}
	}

	// Count records
	counter := signal.NewCounter(chroms, signal.Config{
		Unstranded:  unstranded,
		Fragments:   fragments,
		PosShift:    posShift,
		NegShift:    negShift,
		ScaleFactor: scaleFactor,
		ReadDepth:   readDepth,
		Verbose:     verbose,
	})
	nRecord, err := Count(inputs, flt, counter, nWorker, timeStart, verbose)
	if err != nil {
		log.Fatal(err)
	}
	total := counter.Total()
	if verbose {
		timeNow := time.Now()
		fmt.Printf("%.1fmin - Total depth of %.0f from %d record(s)\n", timeNow.Sub(timeStart).Minutes(), total, nRecord)
	}

	// Write tracks
	if err := WriteTracks(trackFormats, outName, chroms, counter, total, zooms, timeStart, verbose); err != nil {
		log.Fatal(err)
	}

	// Report
	if pathReport != "" {
		if err := WriteReport(pathReport, counter, total); err != nil {
			log.Fatal(err)
		}
	}

	// Verbose
	if verbose {
		timeEnd := time.Now()
		fmt.Printf("%.1fmin - Done %d record(s)\n", timeEnd.Sub(timeStart).Minutes(), nRecord)
	}
}
