//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package bigwig writes sparse per-base signal into the binary bigWig
// format: zlib-compressed variable-step sections of span 1, indexed by a
// chromosome B+ tree and an R-tree, with optional multi-resolution zoom
// summaries.
package bigwig

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"

	"git.sr.ht/~vejnar/TrackAbacus/lib/genome"
)

const (
	bigWigMagic    = 0x888FFC26
	chromTreeMagic = 0x78CA4B3C
	rTreeMagic     = 0x2468ACE0

	bigWigVersion = 4

	// Variable-step section type.
	sectionVarStep = 2

	// First zoom reduction in bases and multiplier between zoom levels.
	zoomBaseReduction = 10
	zoomStep          = 4
)

type fileHeader struct {
	Magic              uint32
	Version            uint16
	ZoomLevels         uint16
	ChromTreeOffset    uint64
	FullDataOffset     uint64
	FullIndexOffset    uint64
	FieldCount         uint16
	DefinedFieldCount  uint16
	AutoSQLOffset      uint64
	TotalSummaryOffset uint64
	UncompressBufSize  uint32
	Reserved           uint64
}

type zoomHeader struct {
	ReductionLevel uint32
	Reserved       uint32
	DataOffset     uint64
	IndexOffset    uint64
}

type totalSummary struct {
	ValidCount uint64
	Min        float64
	Max        float64
	Sum        float64
	SumSquares float64
}

type sectionHeader struct {
	ChromID   uint32
	Start     uint32
	End       uint32
	ItemStep  uint32
	ItemSpan  uint32
	Type      uint8
	Reserved  uint8
	ItemCount uint16
}

type zoomRecord struct {
	ChromID    uint32
	Start      uint32
	End        uint32
	ValidCount uint32
	Min        float32
	Max        float32
	Sum        float32
	SumSquares float32
}

// block stores the genomic bounds and file location of one written block.
type block struct {
	startChrom uint32
	start      uint32
	endChrom   uint32
	end        uint32
	offset     uint64
	size       uint64
}

// Writer encodes sorted per-chromosome series into a bigWig file. Series
// must be written in chromosome order, one series per chromosome, with
// strictly increasing positions. BlockSize and ItemsPerSlot may be changed
// before the first WriteSeries.
type Writer struct {
	// BlockSize is the number of children per B+ tree and R-tree node.
	BlockSize int
	// ItemsPerSlot is the number of items per data block.
	ItemsPerSlot int

	ws     io.WriteSeeker
	chroms []genome.Chrom
	ids    map[string]int

	started   bool
	lastChrom int
	offData   int64
	blocks    []block
	summary   totalSummary
	bufSize   uint32

	zoomReds []uint32
	zoomRecs [][]zoomRecord
	zoomCur  []zoomRecord
	zoomBin  []uint32

	zbuf bytes.Buffer
	zw   *zlib.Writer
}

// NewWriter returns a writer encoding signal over chroms into ws, with at
// most zooms zoom levels. Zoom reductions start at 10 bases and quadruple
// per level; levels coarser than the longest chromosome are dropped.
func NewWriter(ws io.WriteSeeker, chroms []genome.Chrom, zooms int) (*Writer, error) {
	if len(chroms) == 0 {
		return nil, fmt.Errorf("bigwig: empty chromosome list")
	}
	var maxLength int
	ids := make(map[string]int, len(chroms))
	for ic, chrom := range chroms {
		if _, ok := ids[chrom.Name]; ok {
			return nil, fmt.Errorf("bigwig: duplicate chromosome %s", chrom.Name)
		}
		if chrom.Name == "" {
			return nil, fmt.Errorf("bigwig: empty chromosome name")
		}
		if int64(chrom.Length) > math.MaxUint32 {
			return nil, fmt.Errorf("bigwig: %s length %d exceeds 32 bits", chrom.Name, chrom.Length)
		}
		ids[chrom.Name] = ic
		if chrom.Length > maxLength {
			maxLength = chrom.Length
		}
	}
	w := Writer{
		BlockSize:    256,
		ItemsPerSlot: 1024,
		ws:           ws,
		chroms:       chroms,
		ids:          ids,
		lastChrom:    -1,
	}
	reduction := zoomBaseReduction
	for iz := 0; iz < zooms && reduction <= maxLength; iz++ {
		w.zoomReds = append(w.zoomReds, uint32(reduction))
		reduction *= zoomStep
	}
	w.zoomRecs = make([][]zoomRecord, len(w.zoomReds))
	w.zoomCur = make([]zoomRecord, len(w.zoomReds))
	w.zoomBin = make([]uint32, len(w.zoomReds))
	return &w, nil
}

// begin reserves the file header, the zoom headers and the total summary,
// all patched on Close, and writes the chromosome B+ tree.
func (w *Writer) begin() error {
	w.started = true
	if _, err := w.ws.Write(make([]byte, 64+24*len(w.zoomReds)+40)); err != nil {
		return err
	}
	if err := writeChromTree(w.ws, w.chroms, w.BlockSize); err != nil {
		return err
	}
	pos, err := w.ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	w.offData = pos
	// Section count, patched on Close.
	if err := binary.Write(w.ws, binary.LittleEndian, uint64(0)); err != nil {
		return err
	}
	w.zw = zlib.NewWriter(&w.zbuf)
	return nil
}

// compress returns raw compressed with zlib, reusing the writer buffer. The
// returned slice is only valid until the next call.
func (w *Writer) compress(raw []byte) ([]byte, error) {
	if uint32(len(raw)) > w.bufSize {
		w.bufSize = uint32(len(raw))
	}
	w.zbuf.Reset()
	w.zw.Reset(&w.zbuf)
	if _, err := w.zw.Write(raw); err != nil {
		return nil, err
	}
	if err := w.zw.Close(); err != nil {
		return nil, err
	}
	return w.zbuf.Bytes(), nil
}

// WriteSeries writes the series of one chromosome: 0-based positions in
// strictly increasing order, one value per base.
func (w *Writer) WriteSeries(chrom string, pos []int, val []float64) error {
	if len(pos) != len(val) {
		return fmt.Errorf("bigwig: %d position(s) for %d value(s)", len(pos), len(val))
	}
	if len(pos) == 0 {
		return nil
	}
	ic, ok := w.ids[chrom]
	if !ok {
		return fmt.Errorf("bigwig: unknown chromosome %s", chrom)
	}
	if ic <= w.lastChrom {
		return fmt.Errorf("bigwig: series for %s out of chromosome order", chrom)
	}
	for i, p := range pos {
		if p < 0 {
			return fmt.Errorf("bigwig: negative position %d on %s", p, chrom)
		}
		if p >= math.MaxUint32 {
			return fmt.Errorf("bigwig: position %d on %s exceeds 32 bits", p, chrom)
		}
		if i > 0 && p <= pos[i-1] {
			return fmt.Errorf("bigwig: positions on %s not strictly increasing", chrom)
		}
	}
	w.lastChrom = ic
	if !w.started {
		if err := w.begin(); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	for is := 0; is < len(pos); is += w.ItemsPerSlot {
		ie := min(is+w.ItemsPerSlot, len(pos))
		buf.Reset()
		section := sectionHeader{
			ChromID:   uint32(ic),
			Start:     uint32(pos[is]),
			End:       uint32(pos[ie-1]) + 1,
			ItemSpan:  1,
			Type:      sectionVarStep,
			ItemCount: uint16(ie - is),
		}
		binary.Write(&buf, binary.LittleEndian, section)
		for i := is; i < ie; i++ {
			binary.Write(&buf, binary.LittleEndian, uint32(pos[i]))
			binary.Write(&buf, binary.LittleEndian, float32(val[i]))
		}
		compressed, err := w.compress(buf.Bytes())
		if err != nil {
			return err
		}
		offset, err := w.ws.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if _, err := w.ws.Write(compressed); err != nil {
			return err
		}
		w.blocks = append(w.blocks, block{
			startChrom: section.ChromID,
			start:      section.Start,
			endChrom:   section.ChromID,
			end:        section.End,
			offset:     uint64(offset),
			size:       uint64(len(compressed)),
		})
	}
	for i, p := range pos {
		w.addSummary(val[i])
		for iz := range w.zoomReds {
			w.addZoom(iz, uint32(ic), uint32(p), float32(val[i]))
		}
	}
	return nil
}

func (w *Writer) addSummary(v float64) {
	if w.summary.ValidCount == 0 {
		w.summary.Min = v
		w.summary.Max = v
	} else {
		if v < w.summary.Min {
			w.summary.Min = v
		}
		if v > w.summary.Max {
			w.summary.Max = v
		}
	}
	w.summary.ValidCount++
	w.summary.Sum += v
	w.summary.SumSquares += v * v
}

// addZoom aggregates one base into the open bin of zoom level iz, flushing
// the previous bin when the position leaves it.
func (w *Writer) addZoom(iz int, chromID, p uint32, v float32) {
	reduction := w.zoomReds[iz]
	binStart := p - p%reduction
	cur := &w.zoomCur[iz]
	if cur.ValidCount > 0 && cur.ChromID == chromID && w.zoomBin[iz] == binStart {
		cur.End = p + 1
		cur.ValidCount++
		if v < cur.Min {
			cur.Min = v
		}
		if v > cur.Max {
			cur.Max = v
		}
		cur.Sum += v
		cur.SumSquares += v * v
		return
	}
	if cur.ValidCount > 0 {
		w.zoomRecs[iz] = append(w.zoomRecs[iz], *cur)
	}
	w.zoomBin[iz] = binStart
	*cur = zoomRecord{ChromID: chromID, Start: p, End: p + 1, ValidCount: 1, Min: v, Max: v, Sum: v, SumSquares: v * v}
}

// writeZoom writes the record blocks of one zoom level followed by their
// R-tree, returning the offsets of both.
func (w *Writer) writeZoom(recs []zoomRecord) (dataOffset, indexOffset uint64, err error) {
	pos, err := w.ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	dataOffset = uint64(pos)
	if err = binary.Write(w.ws, binary.LittleEndian, uint32(len(recs))); err != nil {
		return 0, 0, err
	}
	var blocks []block
	var buf bytes.Buffer
	for is := 0; is < len(recs); is += w.ItemsPerSlot {
		ie := min(is+w.ItemsPerSlot, len(recs))
		buf.Reset()
		for _, rec := range recs[is:ie] {
			binary.Write(&buf, binary.LittleEndian, rec)
		}
		compressed, err := w.compress(buf.Bytes())
		if err != nil {
			return 0, 0, err
		}
		offset, err := w.ws.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, 0, err
		}
		if _, err := w.ws.Write(compressed); err != nil {
			return 0, 0, err
		}
		blocks = append(blocks, block{
			startChrom: recs[is].ChromID,
			start:      recs[is].Start,
			endChrom:   recs[ie-1].ChromID,
			end:        recs[ie-1].End,
			offset:     uint64(offset),
			size:       uint64(len(compressed)),
		})
	}
	pos, err = w.ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	indexOffset = uint64(pos)
	err = writeRTree(w.ws, blocks, w.BlockSize, w.ItemsPerSlot, indexOffset)
	return dataOffset, indexOffset, err
}

// Close writes the R-tree index and the zoom levels, then patches the file
// header, the zoom headers, the total summary and the section count. It
// does not close the underlying file.
func (w *Writer) Close() error {
	if !w.started {
		if err := w.begin(); err != nil {
			return err
		}
	}
	for iz := range w.zoomCur {
		if w.zoomCur[iz].ValidCount > 0 {
			w.zoomRecs[iz] = append(w.zoomRecs[iz], w.zoomCur[iz])
			w.zoomCur[iz].ValidCount = 0
		}
	}
	offIndex, err := w.ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := writeRTree(w.ws, w.blocks, w.BlockSize, w.ItemsPerSlot, uint64(offIndex)); err != nil {
		return err
	}
	// A file without data gets no zoom levels, the reserved zoom headers
	// stay zeroed.
	zheaders := make([]zoomHeader, 0, len(w.zoomReds))
	if len(w.blocks) > 0 {
		for iz := range w.zoomReds {
			zh := zoomHeader{ReductionLevel: w.zoomReds[iz]}
			zh.DataOffset, zh.IndexOffset, err = w.writeZoom(w.zoomRecs[iz])
			if err != nil {
				return err
			}
			zheaders = append(zheaders, zh)
		}
	}
	if _, err := w.ws.Seek(w.offData, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(w.ws, binary.LittleEndian, uint64(len(w.blocks))); err != nil {
		return err
	}
	header := fileHeader{
		Magic:             bigWigMagic,
		Version:           bigWigVersion,
		ZoomLevels:        uint16(len(zheaders)),
		ChromTreeOffset:   uint64(64 + 24*len(w.zoomReds) + 40),
		FullDataOffset:    uint64(w.offData),
		FullIndexOffset:   uint64(offIndex),
		UncompressBufSize: w.bufSize,
	}
	if w.summary.ValidCount > 0 {
		header.TotalSummaryOffset = uint64(64 + 24*len(w.zoomReds))
	}
	if _, err := w.ws.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(w.ws, binary.LittleEndian, header); err != nil {
		return err
	}
	for _, zh := range zheaders {
		if err := binary.Write(w.ws, binary.LittleEndian, zh); err != nil {
			return err
		}
	}
	if w.summary.ValidCount > 0 {
		if _, err := w.ws.Seek(int64(64+24*len(w.zoomReds)), io.SeekStart); err != nil {
			return err
		}
		if err := binary.Write(w.ws, binary.LittleEndian, w.summary); err != nil {
			return err
		}
	}
	_, err = w.ws.Seek(0, io.SeekEnd)
	return err
}

func min(a, b int) int {
	if a > b {
		return b
	}
	return a
}
