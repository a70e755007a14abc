package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/vorteil/vnif/pkg/nifxml"
)

// Format couples a loaded schema with the class table materialized
// from it. A Format is immutable after construction and may be shared
// across goroutines.
type Format struct {
	Schema  *nifxml.Schema
	classes map[string]*Class
}

// LoadFormat reads an XML format descriptor and materializes its
// classes.
func LoadFormat(r io.Reader) (*Format, error) {
	schema, err := nifxml.Load(r)
	if err != nil {
		return nil, err
	}
	return New(schema)
}

// New materializes the class table for an already-loaded schema.
func New(schema *nifxml.Schema) (*Format, error) {
	f := &Format{
		Schema:  schema,
		classes: make(map[string]*Class),
	}

	for name := range schema.Compounds {
		f.classes[name] = &Class{Name: name, Kind: KindCompound, format: f}
	}
	for name, o := range schema.NiObjects {
		f.classes[name] = &Class{Name: name, Kind: KindBlock, Abstract: o.Abstract, format: f}
	}
	for name, o := range schema.NiObjects {
		if o.Inherit != "" {
			f.classes[name].Parent = f.classes[o.Inherit]
		}
	}

	// compile fields; ancestors first for block classes
	for name, c := range schema.Compounds {
		fields, err := f.compileFields(name, c.Fields, c.Template)
		if err != nil {
			return nil, err
		}
		f.classes[name].Fields = fields
	}
	compiled := make(map[string]bool)
	var compileObject func(name string) error
	compileObject = func(name string) error {
		if compiled[name] {
			return nil
		}
		compiled[name] = true
		o := schema.NiObjects[name]
		cl := f.classes[name]
		if o.Inherit != "" {
			if err := compileObject(o.Inherit); err != nil {
				return err
			}
			cl.Fields = append(cl.Fields, f.classes[o.Inherit].Fields...)
		}
		own, err := f.compileFields(name, o.Fields, false)
		if err != nil {
			return err
		}
		cl.Fields = append(cl.Fields, own...)
		return nil
	}
	for name := range schema.NiObjects {
		if err := compileObject(name); err != nil {
			return nil, err
		}
	}

	f.computeFlags()
	return f, nil
}

func (f *Format) compileFields(owner string, fields []nifxml.Field, isTemplate bool) ([]*FieldSpec, error) {
	var out []*FieldSpec
	for i := range fields {
		src := &fields[i]
		spec := &FieldSpec{
			Name:       src.Name,
			Attr:       NameAttribute(src.Name),
			Arr1:       src.Arr1,
			Arr2:       src.Arr2,
			Cond:       src.Cond,
			Ver1:       src.Ver1,
			Ver2:       src.Ver2,
			HasUserVer: src.HasUserVer,
			UserVer:    src.UserVerValue,
			Default:    src.Default,
		}
		t, err := f.resolveType(src.Type, isTemplate)
		if err != nil {
			return nil, fmt.Errorf("field %q of %q: %w", src.Name, owner, err)
		}
		spec.Type = t
		if src.Template != "" {
			tmpl, err := f.resolveType(src.Template, true)
			if err != nil {
				return nil, fmt.Errorf("template of field %q of %q: %w", src.Name, owner, err)
			}
			spec.Template = tmpl
		}
		if t.class != nil && t.class.Kind == KindBlock {
			return nil, fmt.Errorf("%w: field %q of %q embeds block class %q", nifxml.ErrSchema, src.Name, owner, src.Type)
		}
		out = append(out, spec)
	}
	return out, nil
}

func (f *Format) resolveType(name string, allowT bool) (typeRef, error) {
	if name == "T" {
		if !allowT {
			return typeRef{}, fmt.Errorf("%w: template parameter outside a template", nifxml.ErrSchema)
		}
		return typeRef{isT: true}, nil
	}
	if b, ok := f.Schema.Basics[name]; ok {
		return typeRef{basic: b}, nil
	}
	if e, ok := f.Schema.Enums[name]; ok {
		return typeRef{enum: e}, nil
	}
	if c, ok := f.classes[name]; ok {
		return typeRef{class: c}, nil
	}
	return typeRef{}, fmt.Errorf("%w: unknown type %q", nifxml.ErrSchema, name)
}

// computeFlags derives the HasRefs/HasLinks/HasStrings enumeration
// shortcuts. Template-parameter fields count for everything, which is
// conservative but safe: the walkers dispatch on concrete values.
func (f *Format) computeFlags() {
	type state int
	const (
		unvisited state = iota
		visiting
		done
	)
	states := make(map[*Class]state)

	var visit func(cl *Class)
	visit = func(cl *Class) {
		if states[cl] != unvisited {
			return
		}
		states[cl] = visiting
		for _, spec := range cl.Fields {
			t := spec.Type
			switch {
			case t.isT:
				cl.HasRefs = true
				cl.HasLinks = true
				cl.HasStrings = true
			case t.basic != nil:
				switch t.basic.Special {
				case "ref":
					cl.HasRefs = true
					cl.HasLinks = true
				case "ptr":
					cl.HasLinks = true
				case "stringref":
					cl.HasStrings = true
				}
			case t.class != nil && t.class.Kind == KindCompound:
				if states[t.class] == unvisited {
					visit(t.class)
				}
				cl.HasRefs = cl.HasRefs || t.class.HasRefs
				cl.HasLinks = cl.HasLinks || t.class.HasLinks
				cl.HasStrings = cl.HasStrings || t.class.HasStrings
			}
		}
		states[cl] = done
	}
	for _, cl := range f.classes {
		visit(cl)
	}
	// inheritance already flattened fields, so block classes are
	// covered by the same pass
}

// Class returns the class descriptor for name, or nil.
func (f *Format) Class(name string) *Class {
	return f.classes[name]
}

// NewBlock instantiates a fresh record of the named class with every
// field defaulted. Compounds (Header, Footer) instantiate the same
// way.
func (f *Format) NewBlock(name string) (*Block, error) {
	cl, ok := f.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, name)
	}
	return f.newInstance(cl, typeRef{})
}

func (f *Format) newInstance(cl *Class, binding typeRef) (*Block, error) {
	b := &Block{
		class:   cl,
		values:  make([]Value, len(cl.Fields)),
		index:   make(map[string]int, 2*len(cl.Fields)),
		binding: binding,
	}
	for i, spec := range cl.Fields {
		v, err := f.newValue(spec, binding, b)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", cl.Name, spec.Name, err)
		}
		b.values[i] = v
		b.index[spec.Name] = i
		b.index[spec.Attr] = i
	}
	return b, nil
}

func (f *Format) newValue(spec *FieldSpec, binding typeRef, owner *Block) (Value, error) {
	t := spec.Type
	if t.isT {
		if binding.zero() {
			return nil, fmt.Errorf("%w: unbound template parameter", nifxml.ErrSchema)
		}
		t = binding
	}
	tmpl := spec.Template
	if tmpl.isT {
		tmpl = binding
	}

	mk := func() (Value, error) { return f.newScalar(t, tmpl, spec.Default) }
	if spec.Arr1 != nil {
		return &Array{owner: owner, spec: spec, mk: mk}, nil
	}
	return mk()
}

func (f *Format) newScalar(t, tmpl typeRef, deflt string) (Value, error) {
	switch {
	case t.basic != nil:
		return f.newBasic(t.basic, tmpl, deflt)
	case t.enum != nil:
		storage, ok := f.Schema.Basics[t.enum.Storage]
		if !ok {
			return nil, fmt.Errorf("%w: enum %q storage %q", nifxml.ErrSchema, t.enum.Name, t.enum.Storage)
		}
		v := &Int{size: storage.Size, signed: storage.Signed}
		if deflt != "" {
			if n, ok := t.enum.Lookup(deflt); ok {
				v.Set(n)
			} else if n, err := strconv.ParseInt(deflt, 0, 64); err == nil {
				v.Set(n)
			} else {
				return nil, fmt.Errorf("%w: bad default %q for enum %q", nifxml.ErrSchema, deflt, t.enum.Name)
			}
		}
		return v, nil
	case t.class != nil:
		if t.class.Kind != KindCompound {
			return nil, fmt.Errorf("%w: block class %q used as a field type", nifxml.ErrSchema, t.class.Name)
		}
		return f.newInstance(t.class, tmpl)
	}
	return nil, fmt.Errorf("%w: unresolved field type", nifxml.ErrSchema)
}

func (f *Format) newBasic(b *nifxml.Basic, tmpl typeRef, deflt string) (Value, error) {
	switch b.Special {
	case "":
		if !b.Integral {
			return nil, fmt.Errorf("%w: basic %q has no codec", nifxml.ErrSchema, b.Name)
		}
		v := &Int{size: b.Size, signed: b.Signed}
		if deflt != "" {
			n, err := strconv.ParseInt(deflt, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad default %q for %q", nifxml.ErrSchema, deflt, b.Name)
			}
			v.Set(n)
		}
		return v, nil
	case "float":
		v := &Float{}
		if deflt != "" {
			x, err := strconv.ParseFloat(deflt, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: bad default %q for %q", nifxml.ErrSchema, deflt, b.Name)
			}
			v.Set(float32(x))
		}
		return v, nil
	case "bool":
		v := &Bool{}
		if deflt == "1" || strings.EqualFold(deflt, "true") {
			v.Set(true)
		}
		return v, nil
	case "sizedstring":
		return &SizedString{val: deflt}, nil
	case "shortstring":
		return &ShortString{val: deflt}, nil
	case "linestring":
		return &LineString{val: deflt}, nil
	case "headerstring":
		return &HeaderString{}, nil
	case "fileversion":
		return &FileVersion{}, nil
	case "stringref":
		return &StringRef{val: deflt}, nil
	case "bytearray":
		return &ByteArray{}, nil
	case "ref", "ptr":
		if tmpl.class == nil || tmpl.class.Kind != KindBlock {
			return nil, fmt.Errorf("%w: reference template must be a block class", nifxml.ErrSchema)
		}
		return &Ref{class: tmpl.class, weak: b.Special == "ptr"}, nil
	}
	return nil, fmt.Errorf("%w: basic %q has unknown codec %q", nifxml.ErrSchema, b.Name, b.Special)
}

// default format, built once from the embedded descriptor

var (
	defaultOnce   sync.Once
	defaultFormat *Format
)

// Default returns the Format built from the embedded descriptor.
func Default() *Format {
	defaultOnce.Do(func() {
		var err error
		defaultFormat, err = LoadFormat(strings.NewReader(defaultSchemaXML))
		if err != nil {
			panic(fmt.Sprintf("nif: embedded schema: %v", err))
		}
	})
	return defaultFormat
}

// GetVersion probes r against the default format's version set.
func GetVersion(r io.ReadSeeker) (int64, uint32) {
	return Default().GetVersion(r)
}

// Read decodes a block graph with the default format.
func Read(version, userVersion uint32, r io.Reader) ([]*Block, error) {
	return Default().Read(version, userVersion, r)
}

// Write encodes a block graph with the default format.
func Write(version, userVersion uint32, w io.Writer, roots []*Block) error {
	return Default().Write(version, userVersion, w, roots)
}

// NewBlock instantiates a class of the default format.
func NewBlock(name string) (*Block, error) {
	return Default().NewBlock(name)
}

// MustBlock instantiates a class of the default format and panics on
// an unknown name; intended for building graphs in code.
func MustBlock(name string) *Block {
	b, err := NewBlock(name)
	if err != nil {
		panic(err)
	}
	return b
}
