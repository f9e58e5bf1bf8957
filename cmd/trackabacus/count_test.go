//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/klauspost/compress/gzip"

	"git.sr.ht/~vejnar/TrackAbacus/lib/genome"
	"git.sr.ht/~vejnar/TrackAbacus/lib/signal"
)

const samText = `@HD	VN:1.6	SO:coordinate
@SQ	SN:chr1	LN:1000
@SQ	SN:chr2	LN:500
r1	0	chr1	11	255	10M	*	0	0	ACGTACGTAC	*
r2	0	chr1	11	255	10M	*	0	0	ACGTACGTAC	*
r3	16	chr1	21	255	5M	*	0	0	ACGTA	*
`

var testChroms = []genome.Chrom{{Name: "chr1", Length: 1000}, {Name: "chr2", Length: 500}}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFileGz(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInputKind(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		path string
		kind int
	}{
		{"reads.sam", KindSAM},
		{"reads.bam", KindBAM},
		{"frags.tsv", KindTab},
		{"frags.tsv.gz", KindTabGz},
	}
	for _, test := range tests {
		kind, err := InputKind(test.path)
		c.Assert(err, qt.IsNil, qt.Commentf("input %s", test.path))
		c.Assert(kind, qt.Equals, test.kind, qt.Commentf("input %s", test.path))
	}
	_, err := InputKind("reads.cram")
	c.Assert(err, qt.ErrorMatches, "unknown input format for reads.cram.*")
	_, err = InputKind("frags.bed")
	c.Assert(err, qt.ErrorMatches, "unknown input format.*")
}

func TestCount(t *testing.T) {
	c := qt.New(t)
	inputs := []Input{
		{Path: writeFile(t, "reads.sam", samText), Kind: KindSAM},
		{Path: writeFile(t, "frags.tsv", "chr2\t100\t110\n"), Kind: KindTab},
		{Path: writeFileGz(t, "frags.tsv.gz", "chr2\t200\t210\n"), Kind: KindTabGz},
	}
	counter := signal.NewCounter(testChroms, signal.Config{ScaleFactor: 1.})
	n, err := Count(inputs, nil, counter, 1, time.Now(), false)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, uint64(5))
	c.Assert(counter.Stats.Counted, qt.Equals, uint64(5))
	c.Assert(counter.Total(), qt.Equals, 5.)

	series := counter.Finalize(0, signal.StrandPos, 5.)
	c.Assert(series.Pos, qt.DeepEquals, []int{10})
	c.Assert(series.Val, qt.DeepEquals, []float64{2.})
	series = counter.Finalize(0, signal.StrandNeg, 5.)
	c.Assert(series.Pos, qt.DeepEquals, []int{24})
	series = counter.Finalize(1, signal.StrandPos, 5.)
	c.Assert(series.Pos, qt.DeepEquals, []int{100, 200})
}

func TestCountMissingFile(t *testing.T) {
	c := qt.New(t)
	counter := signal.NewCounter(testChroms, signal.Config{ScaleFactor: 1.})
	_, err := Count([]Input{{Path: "/nonexistent/reads.sam", Kind: KindSAM}}, nil, counter, 1, time.Now(), false)
	c.Assert(err, qt.ErrorMatches, "/nonexistent/reads.sam:.*")
}
