package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"errors"
	"fmt"
	"io"
)

const topLevelSentinel = "Top Level Object"
const endOfFileSentinel = "End Of File"

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// asCorrupt turns a short stream into a corruption error; everything
// past the probe is framed by the header's own counts.
func asCorrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: unexpected end of stream", ErrCorrupt)
	}
	return err
}

// Read decodes a block graph from r, which must be positioned at the
// start of the file. The version pair comes from a prior GetVersion
// probe. The returned slice holds the root blocks.
func (f *Format) Read(version, userVersion uint32, r io.Reader) ([]*Block, error) {
	c := &Context{
		Version:     version,
		UserVersion: userVersion,
		links:       &linkStack{},
	}
	cr := &countingReader{r: r}

	hdr, err := f.NewBlock("Header")
	if err != nil {
		return nil, err
	}
	if err := hdr.Read(c, cr); err != nil {
		return nil, fmt.Errorf("header: %w", asCorrupt(err))
	}

	if v, ok := hdr.TryGet("Endian Type"); ok {
		if version >= 0x14000004 && v.(*Int).Get() != endianLittle {
			return nil, ErrUnsupportedEndian
		}
	}

	var numBlocks int
	if version >= 0x0303000D {
		numBlocks = int(hdr.Int("Num Blocks"))
	}
	var blockTypes []string
	var blockTypeIndex *Array
	if version >= 0x05000001 {
		types := hdr.ArrayField("Block Types")
		for i := 0; i < types.Len(); i++ {
			blockTypes = append(blockTypes, types.StrAt(i))
		}
		blockTypeIndex = hdr.ArrayField("Block Type Index")
	}
	if version >= 0x14010003 {
		tbl := hdr.ArrayField("Strings")
		for i := 0; i < tbl.Len(); i++ {
			c.strings = append(c.strings, tbl.StrAt(i))
		}
	}
	var blockSizes *Array
	if version >= 0x14020007 {
		blockSizes = hdr.ArrayField("Block Size")
	}

	if version < 0x0303000D {
		sentinel := &SizedString{}
		if err := sentinel.Read(c, cr); err != nil {
			return nil, err
		}
		if sentinel.Get() != topLevelSentinel {
			return nil, fmt.Errorf("%w: expected %q but got %q", ErrCorrupt, topLevelSentinel, sentinel.Get())
		}
	}

	blocks := make(map[int32]*Block)
	var blockList []*Block

	for blockNum := 0; version < 0x0303000D || blockNum < numBlocks; blockNum++ {
		var blockType string
		if version >= 0x05000001 {
			if version <= 0x0A01006A {
				sep, err := readUint(cr, 4)
				if err != nil {
					return nil, err
				}
				if sep != 0 {
					return nil, fmt.Errorf("%w: non-zero block separator 0x%08X", ErrCorrupt, sep)
				}
			}
			if blockNum >= blockTypeIndex.Len() {
				return nil, fmt.Errorf("%w: block %d has no type index", ErrCorrupt, blockNum)
			}
			idx := blockTypeIndex.IntAt(blockNum)
			if idx < 0 || int(idx) >= len(blockTypes) {
				return nil, fmt.Errorf("%w: block type index %d outside table of %d", ErrCorrupt, idx, len(blockTypes))
			}
			blockType = blockTypes[idx]
		} else {
			name := &SizedString{}
			if err := name.Read(c, cr); err != nil {
				return nil, asCorrupt(err)
			}
			blockType = name.Get()
		}

		var blockIndex int32
		if version >= 0x0303000D {
			blockIndex = int32(blockNum)
		} else {
			if blockType == endOfFileSentinel {
				break
			}
			// the stored index is the object's address when the file
			// was written; it only serves to pair up references
			tok, err := readUint(cr, 4)
			if err != nil {
				return nil, err
			}
			blockIndex = int32(tok)
			if _, dup := blocks[blockIndex]; dup {
				return nil, fmt.Errorf("%w: duplicate block index 0x%08X", ErrCorrupt, tok)
			}
		}

		blk, err := f.NewBlock(blockType)
		if err != nil {
			return nil, err
		}
		start := cr.n
		if err := blk.Read(c, cr); err != nil {
			return nil, asCorrupt(err)
		}
		if blockSizes != nil {
			want := blockSizes.IntAt(blockNum)
			if got := cr.n - start; got != want {
				return nil, fmt.Errorf("%w: block %d consumed %d bytes, header declares %d", ErrCorrupt, blockNum, got, want)
			}
		}
		blocks[blockIndex] = blk
		blockList = append(blockList, blk)
	}

	ftr, err := f.NewBlock("Footer")
	if err != nil {
		return nil, err
	}
	if err := ftr.Read(c, cr); err != nil {
		return nil, fmt.Errorf("footer: %w", asCorrupt(err))
	}

	var tail [1]byte
	if n, _ := io.ReadFull(cr, tail[:]); n != 0 {
		return nil, fmt.Errorf("%w: trailing bytes after footer", ErrCorrupt)
	}

	for _, blk := range blockList {
		if err := blk.fixLinks(c, blocks); err != nil {
			return nil, err
		}
	}
	if err := ftr.fixLinks(c, blocks); err != nil {
		return nil, err
	}
	if !c.links.empty() {
		return nil, fmt.Errorf("%w: unresolved links remain on the stack", ErrCorrupt)
	}

	var roots []*Block
	if version >= 0x0303000D {
		rootRefs := ftr.ArrayField("Roots")
		for i := 0; i < rootRefs.Len(); i++ {
			if b := rootRefs.BlockAt(i); b != nil {
				roots = append(roots, b)
			}
		}
	} else if len(blockList) > 0 {
		roots = append(roots, blockList[0])
	}
	return roots, nil
}
