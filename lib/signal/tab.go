//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package signal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"git.sr.ht/~vejnar/TrackAbacus/lib/region"
)

// CountTab adds every record of a tabulated chromosome, start, end input to
// the counter. Lines must have at least 3 columns; extra columns are
// ignored. Coordinates are parsed as floats and truncated toward zero to
// tolerate fractional input. Tabulated records carry no strand and count
// with the forward rule. It returns the number of records read.
func CountTab(r io.Reader, flt *region.Filter, c *Counter) (uint64, error) {
	var nRecord uint64
	var iline int
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		iline++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			return nRecord, fmt.Errorf("line %d: expected at least 3 columns, found %d", iline, len(fields))
		}
		start, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nRecord, fmt.Errorf("line %d: invalid start %q", iline, fields[1])
		}
		end, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nRecord, fmt.Errorf("line %d: invalid end %q", iline, fields[2])
		}
		nRecord++
		c.Stats.Records++
		if flt != nil && !flt.OverlapInterval(fields[0], int(start), int(end)) {
			c.Stats.Filtered++
			continue
		}
		c.Add(fields[0], int(start), int(end), false)
	}
	if err := scanner.Err(); err != nil {
		return nRecord, err
	}
	return nRecord, nil
}
