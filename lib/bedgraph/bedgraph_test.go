//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package bedgraph

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/pierrec/lz4"
)

func TestWriteSeries(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "track.bedgraph")
	w, err := NewWriter(path, "")
	c.Assert(err, qt.IsNil)
	c.Assert(w.WriteSeries("chr1", []int{10, 11, 12, 13, 20, 21}, []float64{1., 1., 2., 2., 2., 0.5}), qt.IsNil)
	c.Assert(w.WriteSeries("chr2", []int{5}, []float64{3.}), qt.IsNil)
	c.Assert(w.Close(), qt.IsNil)

	content, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(content), qt.Equals, "chr1\t10\t12\t1\n"+
		"chr1\t12\t14\t2\n"+
		"chr1\t20\t21\t2\n"+
		"chr1\t21\t22\t0.5\n"+
		"chr2\t5\t6\t3\n")
}

func TestWriteSeriesSmallValue(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "track.bedgraph")
	w, err := NewWriter(path, "")
	c.Assert(err, qt.IsNil)
	c.Assert(w.WriteSeries("chr1", []int{10}, []float64{2.5e-08}), qt.IsNil)
	c.Assert(w.Close(), qt.IsNil)

	content, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(content), qt.Equals, "chr1\t10\t11\t2.5e-08\n")
}

func TestWriteSeriesLz4(t *testing.T) {
	for _, compression := range []string{"lz4", "lz4hc"} {
		compression := compression
		t.Run(compression, func(t *testing.T) {
			c := qt.New(t)
			path := filepath.Join(t.TempDir(), "track.bedgraph.lz4")
			w, err := NewWriter(path, compression)
			c.Assert(err, qt.IsNil)
			c.Assert(w.WriteSeries("chr1", []int{10, 11}, []float64{1., 1.}), qt.IsNil)
			c.Assert(w.Close(), qt.IsNil)

			f, err := os.Open(path)
			c.Assert(err, qt.IsNil)
			defer f.Close()
			content, err := io.ReadAll(lz4.NewReader(f))
			c.Assert(err, qt.IsNil)
			c.Assert(string(content), qt.Equals, "chr1\t10\t12\t1\n")
		})
	}
}

func TestNewWriterUnknownCompression(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "track.bedgraph")
	_, err := NewWriter(path, "gzip")
	c.Assert(err, qt.ErrorMatches, `unknown compression "gzip"`)
}
