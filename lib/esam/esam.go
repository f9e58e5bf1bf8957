//
// Copyright © 2015 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// PathSAM stores Path to SAM (Binary=false) or BAM (Binary=true) file.
type PathSAM struct {
	Path   string
	Binary bool
}

// Open opens a SAM or BAM file and returns a reader delivering its records.
// nWorker sets the number of BGZF decompression worker(s) used for BAM
// input; it does not parallelize record delivery.
func Open(pathSAM PathSAM, nWorker int) (*os.File, sam.RecordReader, error) {
	f, err := os.Open(pathSAM.Path)
	if err != nil {
		return nil, nil, err
	}
	var reader sam.RecordReader
	if pathSAM.Binary {
		reader, err = bam.NewReader(f, nWorker)
	} else {
		reader, err = sam.NewReader(f)
	}
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, reader, nil
}

// Overlap returns the length of the overlap between the alignment of the SAM record and the interval specified with start and end.
func Overlap(r *sam.Record, start, end int) int {
	var overlap int
	pos := r.Pos
	for _, co := range r.Cigar {
		t := co.Type()
		con := t.Consumes()
		lr := co.Len() * con.Reference
		if con.Query == con.Reference {
			o := min(pos+lr, end) - max(pos, start)
			if o > 0 {
				overlap += o
			}
		}
		pos += lr
	}
	return overlap
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
