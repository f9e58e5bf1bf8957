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
	"sort"

	"git.sr.ht/~vejnar/TrackAbacus/lib/genome"
)

type chromTreeHeader struct {
	Magic     uint32
	BlockSize uint32
	KeySize   uint32
	ValSize   uint32
	ItemCount uint64
	Reserved  uint64
}

type treeNodeHeader struct {
	IsLeaf   uint8
	Reserved uint8
	Count    uint16
}

// writeChromTree writes the chromosome B+ tree. Chromosome IDs follow the
// input order, which is the order data sections are written in, while keys
// are sorted lexicographically as the lookup requires. Nodes have a fixed
// size and unused slots are zero-padded.
func writeChromTree(ws io.WriteSeeker, chroms []genome.Chrom, blockSize int) error {
	type chromItem struct {
		key  string
		id   uint32
		size uint32
	}
	items := make([]chromItem, len(chroms))
	keySize := 1
	for ic, chrom := range chroms {
		items[ic] = chromItem{key: chrom.Name, id: uint32(ic), size: uint32(chrom.Length)}
		if len(chrom.Name) > keySize {
			keySize = len(chrom.Name)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].key < items[j].key })
	if blockSize > len(items) {
		blockSize = len(items)
	}
	if blockSize < 2 {
		blockSize = 2
	}
	header := chromTreeHeader{
		Magic:     chromTreeMagic,
		BlockSize: uint32(blockSize),
		KeySize:   uint32(keySize),
		ValSize:   8,
		ItemCount: uint64(len(items)),
	}
	if err := binary.Write(ws, binary.LittleEndian, header); err != nil {
		return err
	}
	// node covers a run of items (leaf) or of nodes one level down.
	type node struct {
		key    string
		iChild int
		nChild int
	}
	var leaves []node
	for is := 0; is < len(items); is += blockSize {
		ie := min(is+blockSize, len(items))
		leaves = append(leaves, node{key: items[is].key, iChild: is, nChild: ie - is})
	}
	levels := [][]node{leaves}
	for len(levels[0]) > 1 {
		children := levels[0]
		var upper []node
		for is := 0; is < len(children); is += blockSize {
			ie := min(is+blockSize, len(children))
			upper = append(upper, node{key: children[is].key, iChild: is, nChild: ie - is})
		}
		levels = append([][]node{upper}, levels...)
	}
	base, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	// Leaf and index items have the same size, keys plus 8 bytes of
	// payload, so all nodes share one size.
	nodeSize := 4 + blockSize*(keySize+8)
	offsets := make([]int64, len(levels))
	offsets[0] = base
	for il := 1; il < len(levels); il++ {
		offsets[il] = offsets[il-1] + int64(len(levels[il-1])*nodeSize)
	}
	key := make([]byte, keySize)
	pad := make([]byte, blockSize*(keySize+8))
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
				for i := range key {
					key[i] = 0
				}
				if isLeaf {
					item := items[nd.iChild+k]
					copy(key, item.key)
					if _, err := ws.Write(key); err != nil {
						return err
					}
					if err := binary.Write(ws, binary.LittleEndian, item.id); err != nil {
						return err
					}
					if err := binary.Write(ws, binary.LittleEndian, item.size); err != nil {
						return err
					}
				} else {
					copy(key, levels[il+1][nd.iChild+k].key)
					if _, err := ws.Write(key); err != nil {
						return err
					}
					childOffset := offsets[il+1] + int64((nd.iChild+k)*nodeSize)
					if err := binary.Write(ws, binary.LittleEndian, uint64(childOffset)); err != nil {
						return err
					}
				}
			}
			if _, err := ws.Write(pad[:(blockSize-nd.nChild)*(keySize+8)]); err != nil {
				return err
			}
		}
	}
	return nil
}
