package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"io"
)

// endianLittle is the EndianType value every supported file carries.
const endianLittle = 1

// physicsClass marks blocks that are emitted after their children in
// the block list.
const physicsClass = "bhkRefObject"

// Write encodes the graph reachable from roots to w at the given
// version pair. Blocks are enumerated depth first over strong
// references; physics blocks land after their children, everything
// else before.
func (f *Format) Write(version, userVersion uint32, w io.Writer, roots []*Block) error {
	c := &Context{
		Version:     version,
		UserVersion: userVersion,
		blockIndex:  make(map[*Block]int32),
	}

	var blockList []*Block
	var typeList []string
	typeIndex := make(map[*Block]int)
	seen := make(map[*Block]bool)
	for _, root := range roots {
		f.makeBlockList(c, root, &blockList, &typeList, typeIndex, seen)
	}

	// aggregate interned strings, stable in order of first appearance
	var stringList []string
	c.stringIndex = make(map[string]int32)
	for _, root := range roots {
		for _, blk := range root.Tree(c) {
			for _, s := range blk.StringValues(c) {
				if _, ok := c.stringIndex[s]; !ok {
					c.stringIndex[s] = int32(len(stringList))
					stringList = append(stringList, s)
				}
			}
		}
	}

	hdr, err := f.NewBlock("Header")
	if err != nil {
		return err
	}
	if _, ok := hdr.TryGet("User Version"); ok {
		hdr.SetInt("User Version", int64(userVersion))
	}
	hdr.SetInt("Num Blocks", int64(len(blockList)))
	hdr.SetInt("Num Block Types", int64(len(typeList)))
	types := hdr.ArrayField("Block Types")
	if err := types.UpdateSize(); err != nil {
		return err
	}
	for i, name := range typeList {
		types.SetStrAt(i, name)
	}
	typeIdx := hdr.ArrayField("Block Type Index")
	if err := typeIdx.UpdateSize(); err != nil {
		return err
	}
	for i, blk := range blockList {
		typeIdx.SetIntAt(i, int64(typeIndex[blk]))
	}
	hdr.SetInt("Num Strings", int64(len(stringList)))
	maxLen := 0
	for _, s := range stringList {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	hdr.SetInt("Max String Length", int64(maxLen))
	tbl := hdr.ArrayField("Strings")
	if err := tbl.UpdateSize(); err != nil {
		return err
	}
	for i, s := range stringList {
		tbl.SetStrAt(i, s)
	}
	sizes := hdr.ArrayField("Block Size")
	if err := sizes.UpdateSize(); err != nil {
		return err
	}
	for i, blk := range blockList {
		sizes.SetIntAt(i, blk.Size(c))
	}

	if err := hdr.Write(c, w); err != nil {
		return fmt.Errorf("header: %w", err)
	}

	if version < 0x0303000D {
		s := &SizedString{val: topLevelSentinel}
		if err := s.Write(c, w); err != nil {
			return err
		}
	}

	for _, blk := range blockList {
		if version >= 0x05000001 {
			if version <= 0x0A01006A {
				if err := writeUint(w, 4, 0); err != nil {
					return err
				}
			}
		} else {
			if typeList[typeIndex[blk]] != blk.ClassName() {
				return fmt.Errorf("%w: block type table does not match %s", ErrCorrupt, blk.ClassName())
			}
			s := &SizedString{val: blk.ClassName()}
			if err := s.Write(c, w); err != nil {
				return err
			}
		}
		if version < 0x0303000D {
			// only the low byte of the identity token is stored
			if err := writeUint(w, 1, uint64(uint32(c.blockIndex[blk]))); err != nil {
				return err
			}
		}
		if err := blk.Write(c, w); err != nil {
			return err
		}
	}

	if version < 0x0303000D {
		s := &SizedString{val: endOfFileSentinel}
		if err := s.Write(c, w); err != nil {
			return err
		}
	}

	ftr, err := f.NewBlock("Footer")
	if err != nil {
		return err
	}
	ftr.SetInt("Num Roots", int64(len(roots)))
	rootRefs := ftr.ArrayField("Roots")
	if err := rootRefs.UpdateSize(); err != nil {
		return err
	}
	for i, root := range roots {
		if err := rootRefs.SetBlockAt(i, root); err != nil {
			return err
		}
	}
	if err := ftr.Write(c, w); err != nil {
		return fmt.Errorf("footer: %w", err)
	}
	return nil
}

// makeBlockList enumerates root's strong reference tree depth first,
// assigning block indices and type table slots as it goes.
func (f *Format) makeBlockList(c *Context, root *Block, blockList *[]*Block, typeList *[]string, typeIndex map[*Block]int, seen map[*Block]bool) {
	if seen[root] {
		return
	}
	seen[root] = true

	name := root.ClassName()
	slot := -1
	for i, t := range *typeList {
		if t == name {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = len(*typeList)
		*typeList = append(*typeList, name)
	}
	typeIndex[root] = slot

	add := func() {
		if c.Version >= 0x0303000D {
			c.blockIndex[root] = int32(len(*blockList))
		} else {
			// identity tokens are nonzero so 0 can mean null
			c.blockIndex[root] = int32(len(*blockList) + 1)
		}
		*blockList = append(*blockList, root)
	}

	physics := root.InheritsFrom(physicsClass)
	if !physics {
		add()
	}
	for _, child := range root.Refs(c) {
		f.makeBlockList(c, child, blockList, typeList, typeIndex, seen)
	}
	if physics {
		add()
	}
}
