package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"io"

	"github.com/vorteil/vnif/pkg/nifxml"
)

// Array is a sized field: one or two dimensions, lengths given by
// expressions over the owning record's fields. Arrays never resize
// implicitly; UpdateSize applies the current length fields, and reads
// apply them because the controlling fields were decoded first.
type Array struct {
	owner *Block
	spec  *FieldSpec
	mk    func() (Value, error)
	inner bool // a row of a two-dimensional array
	elems []Value
}

// Len returns the current element count (rows, for two-dimensional
// arrays).
func (a *Array) Len() int { return len(a.elems) }

// At returns the i'th element. Rows of a two-dimensional array are
// themselves arrays.
func (a *Array) At(i int) Value { return a.elems[i] }

// Row returns the i'th row of a two-dimensional array.
func (a *Array) Row(i int) *Array { return a.elems[i].(*Array) }

// rowEnv resolves arr2 expressions for row i: identifiers naming an
// array field resolve to that array's i'th element, giving jagged
// rows their per-row lengths.
type rowEnv struct {
	owner *Block
	row   int
}

func (e rowEnv) Lookup(name string) (int64, bool) {
	v, ok := e.owner.TryGet(name)
	if !ok {
		return 0, false
	}
	if arr, ok := v.(*Array); ok {
		if e.row >= arr.Len() {
			return 0, false
		}
		if n, ok := arr.At(e.row).(*Int); ok {
			return n.Get(), true
		}
		return 0, false
	}
	return e.owner.Lookup(name)
}

func evalLen(x nifxml.Expr, env nifxml.Env) (int, error) {
	n, err := x.Eval(env)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative array length %d", ErrCorrupt, n)
	}
	return int(n), nil
}

// UpdateSize resizes the array to match the owning record's current
// length fields, keeping any existing prefix of elements.
func (a *Array) UpdateSize() error {
	n1, err := evalLen(a.spec.Arr1, a.owner)
	if err != nil {
		return err
	}
	if a.spec.Arr2 == nil {
		return a.resize(n1)
	}
	// two dimensions: rows are inner arrays sized individually
	for len(a.elems) > n1 {
		a.elems = a.elems[:len(a.elems)-1]
	}
	for len(a.elems) < n1 {
		a.elems = append(a.elems, &Array{owner: a.owner, spec: a.spec, mk: a.mk, inner: true})
	}
	for i := 0; i < n1; i++ {
		n2, err := evalLen(a.spec.Arr2, rowEnv{owner: a.owner, row: i})
		if err != nil {
			return err
		}
		if err := a.elems[i].(*Array).resize(n2); err != nil {
			return err
		}
	}
	return nil
}

func (a *Array) resize(n int) error {
	for len(a.elems) > n {
		a.elems = a.elems[:len(a.elems)-1]
	}
	for len(a.elems) < n {
		e, err := a.mk()
		if err != nil {
			return err
		}
		a.elems = append(a.elems, e)
	}
	return nil
}

func (a *Array) Size(c *Context) int64 {
	var total int64
	for _, e := range a.elems {
		total += e.Size(c)
	}
	return total
}

func (a *Array) Read(c *Context, r io.Reader) error {
	if !a.inner {
		if err := a.UpdateSize(); err != nil {
			return err
		}
	}
	for _, e := range a.elems {
		if err := e.Read(c, r); err != nil {
			return err
		}
	}
	return nil
}

func (a *Array) Write(c *Context, w io.Writer) error {
	for _, e := range a.elems {
		if err := e.Write(c, w); err != nil {
			return err
		}
	}
	return nil
}

// typed element helpers

// IntAt returns element i of an integral array.
func (a *Array) IntAt(i int) int64 { return a.elems[i].(*Int).Get() }

// SetIntAt assigns element i of an integral array.
func (a *Array) SetIntAt(i int, v int64) { a.elems[i].(*Int).Set(v) }

// StrAt returns element i of a string array.
func (a *Array) StrAt(i int) string {
	switch x := a.elems[i].(type) {
	case *SizedString:
		return x.Get()
	case *ShortString:
		return x.Get()
	case *StringRef:
		return x.Get()
	}
	panic("nif: not a string array")
}

// SetStrAt assigns element i of a string array.
func (a *Array) SetStrAt(i int, v string) {
	switch x := a.elems[i].(type) {
	case *SizedString:
		x.Set(v)
	case *ShortString:
		x.Set(v)
	case *StringRef:
		x.Set(v)
	default:
		panic("nif: not a string array")
	}
}

// RecordAt returns element i of a compound array.
func (a *Array) RecordAt(i int) *Block { return a.elems[i].(*Block) }

// RefAt returns element i of a reference array.
func (a *Array) RefAt(i int) *Ref { return a.elems[i].(*Ref) }

// BlockAt returns the target of element i of a reference array.
func (a *Array) BlockAt(i int) *Block { return a.RefAt(i).Get() }

// SetBlockAt assigns the target of element i of a reference array.
func (a *Array) SetBlockAt(i int, b *Block) error { return a.RefAt(i).Set(b) }
