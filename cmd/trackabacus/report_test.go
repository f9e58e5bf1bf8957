//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"git.sr.ht/~vejnar/TrackAbacus/lib/signal"
)

func TestWriteReport(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "report.json")
	counter := signal.NewCounter(testChroms, signal.Config{ScaleFactor: 1.})
	counter.Stats.Records = 10
	counter.Stats.Counted = 7
	counter.Stats.Unmapped = 1
	counter.Stats.Filtered = 1
	counter.Stats.UnknownChrom = 1
	counter.Missing.Add("chrX")
	counter.Missing.Add("chrA")

	c.Assert(WriteReport(path, counter, 7.), qt.IsNil)

	content, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	var report map[string]interface{}
	c.Assert(json.Unmarshal(content, &report), qt.IsNil)
	c.Assert(report, qt.DeepEquals, map[string]interface{}{
		"records":               10.,
		"counted":               7.,
		"skipped_unmapped":      1.,
		"skipped_filtered":      1.,
		"skipped_unknown_chrom": 1.,
		"unknown_chromosomes":   []interface{}{"chrA", "chrX"},
		"total_depth":           7.,
	})
}

func TestWriteReportEmpty(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "report.json")
	counter := signal.NewCounter(testChroms, signal.Config{ScaleFactor: 1.})
	c.Assert(WriteReport(path, counter, 0.), qt.IsNil)

	var report map[string]interface{}
	content, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(json.Unmarshal(content, &report), qt.IsNil)
	c.Assert(report["unknown_chromosomes"], qt.DeepEquals, []interface{}{})
	c.Assert(report["records"], qt.Equals, 0.)
}
