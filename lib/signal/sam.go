//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package signal

import (
	"io"

	"github.com/biogo/hts/sam"

	"git.sr.ht/~vejnar/TrackAbacus/lib/region"
)

// CountSAM adds every record delivered by reader to the counter. Unmapped
// records are skipped, as are records excluded by the filter when one is
// set. It returns the number of records read.
func CountSAM(reader sam.RecordReader, flt *region.Filter, c *Counter) (uint64, error) {
	var nRecord uint64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nRecord, err
		}
		nRecord++
		c.Stats.Records++
		if record.Flags&sam.Unmapped != 0 {
			c.Stats.Unmapped++
			continue
		}
		if flt != nil && !flt.OverlapRecord(record) {
			c.Stats.Filtered++
			continue
		}
		c.Add(record.Ref.Name(), record.Start(), record.End(), record.Strand() == -1)
	}
	return nRecord, nil
}
