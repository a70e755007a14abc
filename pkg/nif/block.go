package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"io"
	"strings"

	"github.com/vorteil/vnif/pkg/nifmath"
	"github.com/vorteil/vnif/pkg/nifxml"
)

// ClassKind distinguishes compounds (inline records) from block
// classes (serialized as units of the block list).
type ClassKind int

const (
	KindCompound ClassKind = iota
	KindBlock
)

// typeRef is a resolved field type: exactly one of basic, enum or
// class is set, or isT marks the template parameter.
type typeRef struct {
	basic *nifxml.Basic
	enum  *nifxml.Enum
	class *Class
	isT   bool
}

func (t typeRef) zero() bool {
	return t.basic == nil && t.enum == nil && t.class == nil && !t.isT
}

// FieldSpec is one compiled field of a class descriptor.
type FieldSpec struct {
	Name string // as spelled in the descriptor, e.g. "Num Children"
	Attr string // accessor key, e.g. "numChildren"

	Type     typeRef
	Template typeRef

	Arr1, Arr2, Cond nifxml.Expr
	Ver1, Ver2       uint32
	HasUserVer       bool
	UserVer          uint32
	Default          string
}

// active reports whether the field participates at the context's
// version pair. The condition expression is evaluated against env.
func (f *FieldSpec) active(c *Context, env nifxml.Env) (bool, error) {
	if f.Ver1 != 0 && c.Version < f.Ver1 {
		return false, nil
	}
	if f.Ver2 != 0 && c.Version > f.Ver2 {
		return false, nil
	}
	if f.HasUserVer && c.UserVersion != f.UserVer {
		return false, nil
	}
	if f.Cond != nil {
		v, err := f.Cond.Eval(env)
		if err != nil {
			return false, err
		}
		return v != 0, nil
	}
	return true, nil
}

// Class is a materialized descriptor for a compound or block class.
// Fields are flattened with ancestor fields first.
type Class struct {
	Name     string
	Kind     ClassKind
	Parent   *Class
	Abstract bool
	Fields   []*FieldSpec

	// enumeration shortcuts: whether any field (transitively) is a
	// reference, a weak or strong link, or an interned string
	HasRefs    bool
	HasLinks   bool
	HasStrings bool

	format *Format
}

// InheritsFrom reports whether the class is name or a descendant of
// it.
func (cl *Class) InheritsFrom(name string) bool {
	for c := cl; c != nil; c = c.Parent {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Block is a typed record instance: a block class or compound with
// named, typed, versioned fields.
type Block struct {
	class   *Class
	values  []Value
	index   map[string]int
	binding typeRef // bound template parameter, for parametric compounds
}

// ClassName returns the name of the block's class.
func (b *Block) ClassName() string { return b.class.Name }

// Class returns the block's class descriptor.
func (b *Block) Class() *Class { return b.class }

// InheritsFrom reports whether the block's class is name or inherits
// from it.
func (b *Block) InheritsFrom(name string) bool { return b.class.InheritsFrom(name) }

// TryGet returns the named field's value. Both the descriptor
// spelling ("Num Children") and the accessor spelling ("numChildren")
// resolve.
func (b *Block) TryGet(name string) (Value, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.values[i], true
}

// Get returns the named field's value and panics if the class has no
// such field; asking for an undeclared field is a programming error.
func (b *Block) Get(name string) Value {
	v, ok := b.TryGet(name)
	if !ok {
		panic(fmt.Sprintf("nif: class %s has no field %q", b.class.Name, name))
	}
	return v
}

// Lookup implements nifxml.Env: field expressions resolve identifiers
// against the record's current field values.
func (b *Block) Lookup(name string) (int64, bool) {
	v, ok := b.TryGet(name)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case *Int:
		return x.Get(), true
	case *Bool:
		if x.Get() {
			return 1, true
		}
		return 0, true
	case *Float:
		return int64(x.Get()), true
	}
	return 0, false
}

// visitActive applies fn to every field active at the context's
// version pair, in declaration order. Read, write, size, string and
// reference enumeration and link fixing all share this traversal so
// they agree on gating.
func (b *Block) visitActive(c *Context, fn func(f *FieldSpec, v Value) error) error {
	for i, f := range b.class.Fields {
		ok, err := f.active(c, b)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", b.class.Name, f.Name, err)
		}
		if !ok {
			continue
		}
		if err := fn(f, b.values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the on-wire byte count of the record at the context's
// version pair.
func (b *Block) Size(c *Context) int64 {
	var total int64
	b.visitActive(c, func(f *FieldSpec, v Value) error {
		total += v.Size(c)
		return nil
	})
	return total
}

// Read decodes the record field by field. Array lengths and
// conditions are evaluated against fields already decoded.
func (b *Block) Read(c *Context, r io.Reader) error {
	return b.visitActive(c, func(f *FieldSpec, v Value) error {
		if err := v.Read(c, r); err != nil {
			return fmt.Errorf("%s.%s: %w", b.class.Name, f.Name, err)
		}
		return nil
	})
}

// Write encodes the record field by field.
func (b *Block) Write(c *Context, w io.Writer) error {
	return b.visitActive(c, func(f *FieldSpec, v Value) error {
		if err := v.Write(c, w); err != nil {
			return fmt.Errorf("%s.%s: %w", b.class.Name, f.Name, err)
		}
		return nil
	})
}

// fixLinks resolves every reference placeholder in field order,
// drawing from the head of the link stack.
func (b *Block) fixLinks(c *Context, blocks map[int32]*Block) error {
	return b.visitActive(c, func(f *FieldSpec, v Value) error {
		return fixLinksValue(c, v, blocks)
	})
}

func fixLinksValue(c *Context, v Value, blocks map[int32]*Block) error {
	switch x := v.(type) {
	case *Ref:
		return x.fixLinks(c, blocks)
	case *Block:
		if x.class.HasLinks {
			return x.fixLinks(c, blocks)
		}
	case *Array:
		for _, e := range x.elems {
			if err := fixLinksValue(c, e, blocks); err != nil {
				return err
			}
		}
	}
	return nil
}

// Refs returns the blocks strongly referenced by this record, in
// field order. Weak references are excluded so reference walks
// terminate on cyclic graphs.
func (b *Block) Refs(c *Context) []*Block {
	var out []*Block
	b.collectRefs(c, false, &out)
	return out
}

// Links returns every referenced block, weak references included.
func (b *Block) Links(c *Context) []*Block {
	var out []*Block
	b.collectRefs(c, true, &out)
	return out
}

func (b *Block) collectRefs(c *Context, weak bool, out *[]*Block) {
	if !b.class.HasLinks {
		return
	}
	b.visitActive(c, func(f *FieldSpec, v Value) error {
		collectRefsValue(c, v, weak, out)
		return nil
	})
}

func collectRefsValue(c *Context, v Value, weak bool, out *[]*Block) {
	switch x := v.(type) {
	case *Ref:
		if x.target != nil && (weak || !x.weak) {
			*out = append(*out, x.target)
		}
	case *Block:
		x.collectRefs(c, weak, out)
	case *Array:
		for _, e := range x.elems {
			collectRefsValue(c, e, weak, out)
		}
	}
}

// StringValues returns every interned string carried by the record's
// active fields, in field order.
func (b *Block) StringValues(c *Context) []string {
	var out []string
	b.collectStrings(c, &out)
	return out
}

func (b *Block) collectStrings(c *Context, out *[]string) {
	if !b.class.HasStrings {
		return
	}
	b.visitActive(c, func(f *FieldSpec, v Value) error {
		collectStringsValue(c, v, out)
		return nil
	})
}

func collectStringsValue(c *Context, v Value, out *[]string) {
	switch x := v.(type) {
	case *StringRef:
		*out = append(*out, x.stringValues()...)
	case *Block:
		x.collectStrings(c, out)
	case *Array:
		for _, e := range x.elems {
			collectStringsValue(c, e, out)
		}
	}
}

// Tree yields the block and every block transitively reachable over
// strong references, depth first in field order. Blocks referenced
// more than once are yielded once.
func (b *Block) Tree(c *Context) []*Block {
	var out []*Block
	seen := make(map[*Block]bool)
	b.tree(c, seen, &out)
	return out
}

func (b *Block) tree(c *Context, seen map[*Block]bool, out *[]*Block) {
	if seen[b] {
		return
	}
	seen[b] = true
	*out = append(*out, b)
	for _, child := range b.Refs(c) {
		child.tree(c, seen, out)
	}
}

// convenience accessors; asking for a field of the wrong shape is a
// programming error and panics like Get does

// Int returns the named integral field (enums included).
func (b *Block) Int(name string) int64 {
	return b.Get(name).(*Int).Get()
}

func (b *Block) SetInt(name string, v int64) {
	b.Get(name).(*Int).Set(v)
}

// Float returns the named float field.
func (b *Block) Float(name string) float32 {
	return b.Get(name).(*Float).Get()
}

func (b *Block) SetFloat(name string, v float32) {
	b.Get(name).(*Float).Set(v)
}

// Bool returns the named boolean field.
func (b *Block) Bool(name string) bool {
	return b.Get(name).(*Bool).Get()
}

func (b *Block) SetBool(name string, v bool) {
	b.Get(name).(*Bool).Set(v)
}

// Str returns the named string field, whatever its wire flavor.
func (b *Block) Str(name string) string {
	switch x := b.Get(name).(type) {
	case *SizedString:
		return x.Get()
	case *ShortString:
		return x.Get()
	case *LineString:
		return x.Get()
	case *StringRef:
		return x.Get()
	}
	panic(fmt.Sprintf("nif: field %q of %s is not a string", name, b.class.Name))
}

func (b *Block) SetStr(name string, v string) {
	switch x := b.Get(name).(type) {
	case *SizedString:
		x.Set(v)
	case *ShortString:
		x.Set(v)
	case *LineString:
		x.Set(v)
	case *StringRef:
		x.Set(v)
	default:
		panic(fmt.Sprintf("nif: field %q of %s is not a string", name, b.class.Name))
	}
}

// RefField returns the named reference field itself.
func (b *Block) RefField(name string) *Ref {
	return b.Get(name).(*Ref)
}

// BlockRef returns the target of the named reference field.
func (b *Block) BlockRef(name string) *Block {
	return b.RefField(name).Get()
}

// SetBlockRef assigns the named reference field, enforcing its
// template class.
func (b *Block) SetBlockRef(name string, target *Block) error {
	return b.RefField(name).Set(target)
}

// ArrayField returns the named array field.
func (b *Block) ArrayField(name string) *Array {
	return b.Get(name).(*Array)
}

// Record returns the named compound field.
func (b *Block) Record(name string) *Block {
	return b.Get(name).(*Block)
}

// Vector3 reads the named Vector3 compound field.
func (b *Block) Vector3(name string) nifmath.Vector3 {
	r := b.Record(name)
	return nifmath.Vector3{X: r.Float("x"), Y: r.Float("y"), Z: r.Float("z")}
}

func (b *Block) SetVector3(name string, v nifmath.Vector3) {
	r := b.Record(name)
	r.SetFloat("x", v.X)
	r.SetFloat("y", v.Y)
	r.SetFloat("z", v.Z)
}

// Matrix33 reads the named Matrix33 compound field.
func (b *Block) Matrix33(name string) nifmath.Matrix33 {
	r := b.Record(name)
	var m nifmath.Matrix33
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.M[i][j] = r.Float(fmt.Sprintf("m%d%d", i+1, j+1))
		}
	}
	return m
}

func (b *Block) SetMatrix33(name string, m nifmath.Matrix33) {
	r := b.Record(name)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.SetFloat(fmt.Sprintf("m%d%d", i+1, j+1), m.M[i][j])
		}
	}
}

// NameAttribute converts a descriptor field name into its accessor
// spelling: split on whitespace, replace '?' with 'X', lowercase the
// first token and capitalize the first letter of the rest.
//
//	NameAttribute("tHis is A Silly naME") == "thisIsASillyName"
func NameAttribute(name string) string {
	parts := strings.Fields(strings.ReplaceAll(name, "?", "X"))
	if len(parts) == 0 {
		return ""
	}
	attr := strings.ToLower(parts[0])
	for _, part := range parts[1:] {
		attr += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return attr
}
