package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"

	"github.com/vorteil/vnif/pkg/nifmath"
)

// LocalTransform composes the block's scale, rotation and translation
// fields into a 4x4 transform. Valid for NiAVObject subclasses.
func (b *Block) LocalTransform() (nifmath.Matrix44, error) {
	if !b.InheritsFrom("NiAVObject") {
		return nifmath.Matrix44{}, fmt.Errorf("%w: %s has no transform", ErrWrongClass, b.ClassName())
	}
	return nifmath.Compose(
		float64(b.Float("Scale")),
		b.Matrix33("Rotation"),
		b.Vector3("Translation"),
	), nil
}

// SetLocalTransform decomposes m back into the scale, rotation and
// translation fields. The upper-left 3x3 of m must be a
// scale-rotation.
func (b *Block) SetLocalTransform(m nifmath.Matrix44) error {
	if !b.InheritsFrom("NiAVObject") {
		return fmt.Errorf("%w: %s has no transform", ErrWrongClass, b.ClassName())
	}
	s, r, t, err := m.ScaleRotationTranslation()
	if err != nil {
		return err
	}
	b.SetFloat("Scale", float32(s))
	b.SetMatrix33("Rotation", r)
	b.SetVector3("Translation", t)
	return nil
}

// WorldTransform returns the block's transform relative to ancestor,
// found by walking ancestor's child tree. ErrWrongClass is returned
// when no path of nodes leads from ancestor to b.
func (b *Block) WorldTransform(ancestor *Block) (nifmath.Matrix44, error) {
	if b == ancestor {
		return nifmath.Identity44(), nil
	}
	return b.worldTransform(ancestor, map[*Block]bool{ancestor: true})
}

func (b *Block) worldTransform(ancestor *Block, path map[*Block]bool) (nifmath.Matrix44, error) {
	local, err := b.LocalTransform()
	if err != nil {
		return nifmath.Matrix44{}, err
	}
	for _, child := range ancestor.Children() {
		if child == b {
			return local, nil
		}
		if !child.InheritsFrom("NiNode") || path[child] {
			continue
		}
		path[child] = true
		if m, err := b.worldTransform(child, path); err == nil {
			toAncestor, err := child.LocalTransform()
			if err != nil {
				return nifmath.Matrix44{}, err
			}
			return m.Mul(toAncestor), nil
		}
	}
	return nifmath.Matrix44{}, fmt.Errorf("%w: block is not beneath the given ancestor", ErrWrongClass)
}

// Children returns the node's child blocks, nil references skipped.
func (b *Block) Children() []*Block {
	if !b.InheritsFrom("NiNode") {
		return nil
	}
	arr := b.ArrayField("Children")
	var out []*Block
	for i := 0; i < arr.Len(); i++ {
		if c := arr.BlockAt(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// AddChild appends child to the node's child list, keeping the
// counter field in sync.
func (b *Block) AddChild(child *Block) error {
	return b.insertChild(child, false)
}

// PrependChild inserts child at the front of the child list.
func (b *Block) PrependChild(child *Block) error {
	return b.insertChild(child, true)
}

func (b *Block) insertChild(child *Block, front bool) error {
	if !b.InheritsFrom("NiNode") {
		return fmt.Errorf("%w: %s cannot have children", ErrWrongClass, b.ClassName())
	}
	if !child.InheritsFrom("NiAVObject") {
		return fmt.Errorf("%w: %s cannot be a child", ErrTypeMismatch, child.ClassName())
	}
	n := b.Int("Num Children")
	b.SetInt("Num Children", n+1)
	arr := b.ArrayField("Children")
	if err := arr.UpdateSize(); err != nil {
		return err
	}
	if front {
		for i := int(n); i > 0; i-- {
			if err := arr.SetBlockAt(i, arr.BlockAt(i-1)); err != nil {
				return err
			}
		}
		return arr.SetBlockAt(0, child)
	}
	return arr.SetBlockAt(int(n), child)
}

// RemoveChild drops every occurrence of child from the child list.
func (b *Block) RemoveChild(child *Block) error {
	if !b.InheritsFrom("NiNode") {
		return fmt.Errorf("%w: %s cannot have children", ErrWrongClass, b.ClassName())
	}
	arr := b.ArrayField("Children")
	var keep []*Block
	for i := 0; i < arr.Len(); i++ {
		if c := arr.BlockAt(i); c != child {
			keep = append(keep, c)
		}
	}
	b.SetInt("Num Children", int64(len(keep)))
	if err := arr.UpdateSize(); err != nil {
		return err
	}
	for i, c := range keep {
		if err := arr.SetBlockAt(i, c); err != nil {
			return err
		}
	}
	return nil
}

// FlattenTree reparents every transitively reachable node-typed
// descendant directly under b, composing local transforms so that
// each moved block's world transform is unchanged. A node that turns
// out to be its own ancestor is an error.
func (b *Block) FlattenTree() error {
	if !b.InheritsFrom("NiNode") {
		return fmt.Errorf("%w: %s cannot be flattened", ErrWrongClass, b.ClassName())
	}
	path := map[*Block]bool{b: true}
	for _, child := range b.Children() {
		if child.InheritsFrom("NiNode") {
			local, err := child.LocalTransform()
			if err != nil {
				return err
			}
			if err := child.flattenInto(b, local, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// flattenInto hoists n's contents into parent. toParent is n's
// accumulated transform relative to parent.
func (n *Block) flattenInto(parent *Block, toParent nifmath.Matrix44, path map[*Block]bool) error {
	if path[n] {
		return fmt.Errorf("%w: %q", ErrCycle, n.Str("Name"))
	}
	path[n] = true
	defer delete(path, n)

	for _, child := range n.Children() {
		if child.InheritsFrom("NiNode") {
			local, err := child.LocalTransform()
			if err != nil {
				return err
			}
			if err := child.flattenInto(parent, local.Mul(toParent), path); err != nil {
				return err
			}
		}
	}
	// reparent all remaining children, including the now-empty nodes
	for _, child := range n.Children() {
		local, err := child.LocalTransform()
		if err != nil {
			return err
		}
		if err := child.SetLocalTransform(local.Mul(toParent)); err != nil {
			return err
		}
		if err := parent.AddChild(child); err != nil {
			return err
		}
	}
	n.SetInt("Num Children", 0)
	return n.ArrayField("Children").UpdateSize()
}
