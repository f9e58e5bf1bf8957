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
	"fmt"
	"os"
	"sort"

	"git.sr.ht/~vejnar/TrackAbacus/lib/signal"
)

// WriteReport writes a JSON summary of the run to pathReport, or to stdout
// with -.
func WriteReport(pathReport string, counter *signal.Counter, total float64) error {
	missing := make([]string, 0, counter.Missing.Size())
	for _, chrom := range counter.Missing.List() {
		missing = append(missing, chrom.(string))
	}
	sort.Strings(missing)
	countReport := map[string]interface{}{
		"records":               counter.Stats.Records,
		"counted":               counter.Stats.Counted,
		"skipped_unmapped":      counter.Stats.Unmapped,
		"skipped_filtered":      counter.Stats.Filtered,
		"skipped_unknown_chrom": counter.Stats.UnknownChrom,
		"unknown_chromosomes":   missing,
		"total_depth":           total,
	}
	report, _ := json.MarshalIndent(countReport, "", "  ")
	if pathReport != "-" {
		if f, err := os.Create(pathReport); err != nil {
			return err
		} else {
			f.Write(report)
			f.Close()
		}
	} else {
		fmt.Println(string(report))
	}
	return nil
}
