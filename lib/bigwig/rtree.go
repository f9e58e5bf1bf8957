//
// Copyright (C) 2023-2024 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package bigwig

import (
	"encoding/binary"
	"io"
)

type rTreeHeader struct {
	Magic         uint32
	BlockSize     uint32
	ItemCount     uint64
	StartChromIx  uint32
	StartBase     uint32
	EndChromIx    uint32
	EndBase       uint32
	EndFileOffset uint64
	ItemsPerSlot  uint32
	Reserved      uint32
}

type rTreeLeafItem struct {
	StartChrom uint32
	StartBase  uint32
	EndChrom   uint32
	EndBase    uint32
	Offset     uint64
	Size       uint64
}

type rTreeIndexItem struct {
	StartChrom uint32
	StartBase  uint32
	EndChrom   uint32
	EndBase    uint32
	Offset     uint64
}

const (
	rTreeLeafItemSize  = 32
	rTreeIndexItemSize = 24
)

// rNode covers a run of blocks (leaf) or of nodes one level down.
type rNode struct {
	startChrom uint32
	start      uint32
	endChrom   uint32
	end        uint32
	iChild     int
	nChild     int
}

// writeRTree writes the R-tree indexing the written blocks. Blocks arrive
// sorted by chromosome ID and start, so node bounds are taken from their
// first and last child. Nodes have a fixed size and unused slots are
// zero-padded.
func writeRTree(ws io.WriteSeeker, blocks []block, blockSize, itemsPerSlot int, endFileOffset uint64) error {
	if blockSize < 2 {
		blockSize = 2
	}
	header := rTreeHeader{
		Magic:         rTreeMagic,
		BlockSize:     uint32(blockSize),
		ItemCount:     uint64(len(blocks)),
		EndFileOffset: endFileOffset,
		ItemsPerSlot:  uint32(itemsPerSlot),
	}
	if len(blocks) > 0 {
		header.StartChromIx = blocks[0].startChrom
		header.StartBase = blocks[0].start
		header.EndChromIx = blocks[len(blocks)-1].endChrom
		header.EndBase = blocks[len(blocks)-1].end
	}
	if err := binary.Write(ws, binary.LittleEndian, header); err != nil {
		return err
	}
	var leaves []rNode
	if len(blocks) == 0 {
		// Empty index keeps a single empty leaf for readers walking the
		// root.
		leaves = []rNode{{}}
	} else {
		for is := 0; is < len(blocks); is += blockSize {
			ie := min(is+blockSize, len(blocks))
			leaves = append(leaves, rNode{
				startChrom: blocks[is].startChrom,
				start:      blocks[is].start,
				endChrom:   blocks[ie-1].endChrom,
				end:        blocks[ie-1].end,
				iChild:     is,
				nChild:     ie - is,
			})
		}
	}
	levels := [][]rNode{leaves}
	for len(levels[0]) > 1 {
		children := levels[0]
		var upper []rNode
		for is := 0; is < len(children); is += blockSize {
			ie := min(is+blockSize, len(children))
			upper = append(upper, rNode{
				startChrom: children[is].startChrom,
				start:      children[is].start,
				endChrom:   children[ie-1].endChrom,
				end:        children[ie-1].end,
				iChild:     is,
				nChild:     ie - is,
			})
		}
		levels = append([][]rNode{upper}, levels...)
	}
	base, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	nodeSize := func(il int) int {
		if il == len(levels)-1 {
			return 4 + blockSize*rTreeLeafItemSize
		}
		return 4 + blockSize*rTreeIndexItemSize
	}
	offsets := make([]int64, len(levels))
	offsets[0] = base
	for il := 1; il < len(levels); il++ {
		offsets[il] = offsets[il-1] + int64(len(levels[il-1])*nodeSize(il-1))
	}
	pad := make([]byte, blockSize*rTreeLeafItemSize)
	for il, level := range levels {
		isLeaf := il == len(levels)-1
		for _, nd := range level {
			nodeHeader := treeNodeHeader{Count: uint16(nd.nChild)}
			if isLeaf {
				nodeHeader.IsLeaf = 1
			}
			if err := binary.Write(ws, binary.LittleEndian, nodeHeader); err != nil {
				return err
			}
			for k := 0; k < nd.nChild; k++ {
				if isLeaf {
					b := blocks[nd.iChild+k]
					item := rTreeLeafItem{
						StartChrom: b.startChrom,
						StartBase:  b.start,
						EndChrom:   b.endChrom,
						EndBase:    b.end,
						Offset:     b.offset,
						Size:       b.size,
					}
					if err := binary.Write(ws, binary.LittleEndian, item); err != nil {
						return err
					}
				} else {
					child := levels[il+1][nd.iChild+k]
					item := rTreeIndexItem{
						StartChrom: child.startChrom,
						StartBase:  child.start,
						EndChrom:   child.endChrom,
						EndBase:    child.end,
						Offset:     uint64(offsets[il+1] + int64((nd.iChild+k)*nodeSize(il+1))),
					}
					if err := binary.Write(ws, binary.LittleEndian, item); err != nil {
						return err
					}
				}
			}
			itemSize := rTreeIndexItemSize
			if isLeaf {
				itemSize = rTreeLeafItemSize
			}
			if _, err := ws.Write(pad[:(blockSize-nd.nChild)*itemSize]); err != nil {
				return err
			}
		}
	}
	return nil
}
