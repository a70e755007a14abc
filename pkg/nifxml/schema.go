package nifxml

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrSchema is the base error for any inconsistency in the XML format
// descriptor. All loader failures wrap it.
var ErrSchema = errors.New("schema error")

// Basic describes a leaf codec. Integral basics carry signedness and
// width; the engine-implemented ones (strings, refs, version markers)
// are selected by the Special attribute instead.
type Basic struct {
	Name     string `xml:"name,attr"`
	Integral bool   `xml:"integral,attr"`
	Signed   bool   `xml:"signed,attr"`
	Size     int    `xml:"size,attr"`
	Special  string `xml:"special,attr"`
	Template bool   `xml:"template,attr"`
}

// EnumOption is one named constant of an enum or bitflags declaration.
type EnumOption struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Bit   string `xml:"bit,attr"`
}

// Enum is a named integer constant set backed by a basic storage type.
// Bitflags share the shape; their options declare bit positions.
type Enum struct {
	Name    string       `xml:"name,attr"`
	Storage string       `xml:"storage,attr"`
	Flags   bool         `xml:"-"`
	Options []EnumOption `xml:"option"`
}

// Lookup returns the numeric value of a named option.
func (e *Enum) Lookup(name string) (int64, bool) {
	for i := range e.Options {
		o := &e.Options[i]
		if o.Name != name {
			continue
		}
		if e.Flags {
			bit, err := strconv.ParseUint(o.Bit, 10, 6)
			if err != nil {
				return 0, false
			}
			return 1 << bit, true
		}
		v, err := strconv.ParseInt(o.Value, 0, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// Field is one declared member of a compound or block class.
type Field struct {
	Name     string `xml:"name,attr"`
	Type     string `xml:"type,attr"`
	Template string `xml:"template,attr"`
	Arr1Raw  string `xml:"arr1,attr"`
	Arr2Raw  string `xml:"arr2,attr"`
	CondRaw  string `xml:"cond,attr"`
	Ver1Raw  string `xml:"ver1,attr"`
	Ver2Raw  string `xml:"ver2,attr"`
	UserVer  string `xml:"userver,attr"`
	UserVer2 string `xml:"userver2,attr"`
	Default  string `xml:"default,attr"`

	Arr1, Arr2, Cond Expr   `xml:"-"`
	Ver1, Ver2       uint32 `xml:"-"`
	HasUserVer       bool   `xml:"-"`
	UserVerValue     uint32 `xml:"-"`
}

// Compound is a record type with an ordered field list. Parametric
// compounds (Key, KeyGroup) set Template and may use the type "T".
type Compound struct {
	Name     string  `xml:"name,attr"`
	Template bool    `xml:"istemplate,attr"`
	Fields   []Field `xml:"add"`
}

// NiObject is a block class, optionally inheriting from another.
type NiObject struct {
	Name     string  `xml:"name,attr"`
	Inherit  string  `xml:"inherit,attr"`
	Abstract bool    `xml:"abstract,attr"`
	Fields   []Field `xml:"add"`
}

// VersionTag enumerates one supported format version and the games it
// has been observed in.
type VersionTag struct {
	Num   string `xml:"num,attr"`
	Games string `xml:",chardata"`
}

type document struct {
	XMLName   xml.Name     `xml:"niftoolsxml"`
	Versions  []VersionTag `xml:"version"`
	Basics    []Basic      `xml:"basic"`
	Enums     []Enum       `xml:"enum"`
	Bitflags  []Enum       `xml:"bitflags"`
	Compounds []Compound   `xml:"compound"`
	NiObjects []NiObject   `xml:"niobject"`
}

// Schema is the loaded in-memory model of a format descriptor.
type Schema struct {
	Basics    map[string]*Basic
	Enums     map[string]*Enum
	Compounds map[string]*Compound
	NiObjects map[string]*NiObject

	// Versions is the supported version set in ascending order.
	Versions []uint32
	// Games maps a game name to the versions it ships.
	Games map[string][]uint32
}

// IsSupported reports whether ver is in the descriptor's version set.
func (s *Schema) IsSupported(ver uint32) bool {
	for _, v := range s.Versions {
		if v == ver {
			return true
		}
	}
	return false
}

// Load parses an XML format descriptor and verifies its internal
// consistency: every field type must resolve, every expression must
// parse, and every version bound must be well formed.
func Load(r io.Reader) (*Schema, error) {
	var doc document
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	s := &Schema{
		Basics:    make(map[string]*Basic),
		Enums:     make(map[string]*Enum),
		Compounds: make(map[string]*Compound),
		NiObjects: make(map[string]*NiObject),
		Games:     make(map[string][]uint32),
	}

	for _, vt := range doc.Versions {
		ver, err := ParseVersion(vt.Num)
		if err != nil {
			return nil, err
		}
		s.Versions = append(s.Versions, ver)
		for _, game := range strings.Split(vt.Games, ",") {
			game = strings.TrimSpace(game)
			if game == "" {
				continue
			}
			s.Games[game] = append(s.Games[game], ver)
		}
	}
	sortVersions(s.Versions)

	for i := range doc.Basics {
		b := &doc.Basics[i]
		if _, dup := s.Basics[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate basic %q", ErrSchema, b.Name)
		}
		s.Basics[b.Name] = b
	}
	for i := range doc.Enums {
		e := &doc.Enums[i]
		s.Enums[e.Name] = e
	}
	for i := range doc.Bitflags {
		e := &doc.Bitflags[i]
		e.Flags = true
		s.Enums[e.Name] = e
	}
	for i := range doc.Compounds {
		c := &doc.Compounds[i]
		s.Compounds[c.Name] = c
	}
	for i := range doc.NiObjects {
		o := &doc.NiObjects[i]
		s.NiObjects[o.Name] = o
	}

	// resolve and verify after all declarations are in place
	for _, e := range s.Enums {
		if _, ok := s.Basics[e.Storage]; !ok {
			return nil, fmt.Errorf("%w: enum %q has unknown storage type %q", ErrSchema, e.Name, e.Storage)
		}
	}
	for _, c := range s.Compounds {
		if err := s.compileFields(c.Name, c.Fields, c.Template); err != nil {
			return nil, err
		}
	}
	for _, o := range s.NiObjects {
		if o.Inherit != "" {
			if _, ok := s.NiObjects[o.Inherit]; !ok {
				return nil, fmt.Errorf("%w: %q inherits unknown class %q", ErrSchema, o.Name, o.Inherit)
			}
		}
		if err := s.compileFields(o.Name, o.Fields, false); err != nil {
			return nil, err
		}
	}
	if err := s.checkInheritanceCycles(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) compileFields(owner string, fields []Field, isTemplate bool) error {
	for i := range fields {
		f := &fields[i]
		if !s.typeExists(f.Type, isTemplate) {
			return fmt.Errorf("%w: field %q of %q has unknown type %q", ErrSchema, f.Name, owner, f.Type)
		}
		if f.Template != "" && f.Template != "T" && !s.typeExists(f.Template, false) {
			return fmt.Errorf("%w: field %q of %q has unknown template %q", ErrSchema, f.Name, owner, f.Template)
		}
		var err error
		if f.Arr1Raw != "" {
			if f.Arr1, err = ParseExpr(f.Arr1Raw); err != nil {
				return fmt.Errorf("field %q of %q: %w", f.Name, owner, err)
			}
		}
		if f.Arr2Raw != "" {
			if f.Arr2, err = ParseExpr(f.Arr2Raw); err != nil {
				return fmt.Errorf("field %q of %q: %w", f.Name, owner, err)
			}
		}
		if f.CondRaw != "" {
			if f.Cond, err = ParseExpr(f.CondRaw); err != nil {
				return fmt.Errorf("field %q of %q: %w", f.Name, owner, err)
			}
		}
		if f.Ver1Raw != "" {
			if f.Ver1, err = ParseVersion(f.Ver1Raw); err != nil {
				return fmt.Errorf("field %q of %q: %w", f.Name, owner, err)
			}
		}
		if f.Ver2Raw != "" {
			if f.Ver2, err = ParseVersion(f.Ver2Raw); err != nil {
				return fmt.Errorf("field %q of %q: %w", f.Name, owner, err)
			}
		}
		if f.UserVer != "" {
			uv, err := strconv.ParseUint(f.UserVer, 10, 32)
			if err != nil {
				return fmt.Errorf("%w: field %q of %q has bad userver %q", ErrSchema, f.Name, owner, f.UserVer)
			}
			f.HasUserVer = true
			f.UserVerValue = uint32(uv)
		}
	}
	return nil
}

func (s *Schema) typeExists(name string, allowTemplateParam bool) bool {
	if name == "T" {
		return allowTemplateParam
	}
	if _, ok := s.Basics[name]; ok {
		return true
	}
	if _, ok := s.Enums[name]; ok {
		return true
	}
	if _, ok := s.Compounds[name]; ok {
		return true
	}
	if _, ok := s.NiObjects[name]; ok {
		return true
	}
	return false
}

func (s *Schema) checkInheritanceCycles() error {
	for name, o := range s.NiObjects {
		seen := map[string]bool{name: true}
		for o.Inherit != "" {
			if seen[o.Inherit] {
				return fmt.Errorf("%w: inheritance cycle through %q", ErrSchema, name)
			}
			seen[o.Inherit] = true
			o = s.NiObjects[o.Inherit]
		}
	}
	return nil
}

func sortVersions(vs []uint32) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j-1] > vs[j]; j-- {
			vs[j-1], vs[j] = vs[j], vs[j-1]
		}
	}
}

// ParseVersion converts a dotted version string into its packed 32-bit
// form. "3.03" is a historical special case.
func ParseVersion(str string) (uint32, error) {
	if str == "3.03" {
		return 0x03000300, nil
	}
	parts := strings.Split(str, ".")
	if len(parts) < 1 || len(parts) > 4 {
		return 0, fmt.Errorf("%w: malformed version string %q", ErrSchema, str)
	}
	var ver uint32
	for i := 0; i < 4; i++ {
		var digit uint64
		if i < len(parts) {
			var err error
			digit, err = strconv.ParseUint(parts[i], 10, 32)
			if err != nil || digit > 0xff {
				return 0, fmt.Errorf("%w: malformed version string %q", ErrSchema, str)
			}
		}
		ver = ver<<8 | uint32(digit)
	}
	return ver, nil
}
