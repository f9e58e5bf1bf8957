//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package bedgraph

import (
	"fmt"
	"os"

	"github.com/pierrec/lz4"
)

type GenericWriter interface {
	Write(buf []byte) (n int, err error)
	Close() error
}

// Writer emits sorted series as bedGraph intervals. Adjacent bases with
// equal value are fused into one interval.
type Writer struct {
	f        *os.File
	writer   GenericWriter
	compress bool
}

// NewWriter creates path and returns a bedGraph writer. compression selects
// the output compression: "lz4", "lz4hc" or empty for plain text.
func NewWriter(path string, compression string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := Writer{f: f}
	switch compression {
	case "lz4":
		w.writer = lz4.NewWriter(f)
		w.compress = true
	case "lz4hc":
		lzWriter := lz4.NewWriter(f)
		lzWriter.Header = lz4.Header{CompressionLevel: 9}
		w.writer = lzWriter
		w.compress = true
	case "":
		w.writer = f
	default:
		f.Close()
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
	return &w, nil
}

// WriteSeries writes the series of one chromosome. Coordinates are 0-based,
// end excluded.
func (w *Writer) WriteSeries(chrom string, pos []int, val []float64) error {
	for i := 0; i < len(pos); {
		j := i + 1
		for j < len(pos) && pos[j] == pos[j-1]+1 && val[j] == val[i] {
			j++
		}
		if _, err := fmt.Fprintf(w.writer, "%s\t%d\t%d\t%g\n", chrom, pos[i], pos[j-1]+1, val[i]); err != nil {
			return err
		}
		i = j
	}
	return nil
}

// Close closes the compression writer, if any, and the underlying file.
func (w *Writer) Close() error {
	if w.compress {
		if err := w.writer.Close(); err != nil {
			return err
		}
	}
	return w.f.Close()
}
