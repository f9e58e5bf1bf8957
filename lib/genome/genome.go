//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/klauspost/compress/gzip"
)

// Chrom stores the name and length of one chromosome. The order of a
// []Chrom follows the source file and defines the output track order.
type Chrom struct {
	Name   string
	Length int
}

// Read opens the chromosome list from path. FASTA input (.fa or .fasta,
// optionally gzipped) derives lengths from the sequences; any other file is
// parsed as a two-column name/length table.
func Read(path string) ([]Chrom, error) {
	if isFasta(path) {
		return ReadFasta(path)
	}
	return ReadSizes(path)
}

func isFasta(path string) bool {
	p := strings.TrimSuffix(path, ".gz")
	return strings.HasSuffix(p, ".fa") || strings.HasSuffix(p, ".fasta")
}

// ReadSizes parses a two-column whitespace-separated table with name and
// length of chromosome and returns the chromosomes in file order.
func ReadSizes(path string) ([]Chrom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseSizes(f, path)
}

func parseSizes(r io.Reader, path string) ([]Chrom, error) {
	var chroms []Chrom
	seen := make(map[string]bool)
	var iline int
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		iline++
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected 2 columns, found %d", path, iline, len(fields))
		}
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid length %q", path, iline, fields[1])
		}
		if length < 0 {
			return nil, fmt.Errorf("%s:%d: negative length for %s", path, iline, fields[0])
		}
		if seen[fields[0]] {
			return nil, fmt.Errorf("%s:%d: duplicate chromosome %s", path, iline, fields[0])
		}
		seen[fields[0]] = true
		chroms = append(chroms, Chrom{Name: fields[0], Length: length})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return chroms, nil
}

// ReadFasta derives the chromosome list from the sequences of a FASTA file.
func ReadFasta(path string) ([]Chrom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	var chroms []Chrom
	seen := make(map[string]bool)
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for sc.Next() {
		s := sc.Seq()
		if seen[s.Name()] {
			return nil, fmt.Errorf("%s: duplicate sequence %s", path, s.Name())
		}
		seen[s.Name()] = true
		chroms = append(chroms, Chrom{Name: s.Name(), Length: s.Len()})
	}
	if err := sc.Error(); err != nil {
		return nil, err
	}
	return chroms, nil
}
