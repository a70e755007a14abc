package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// maxStringLength caps length-prefixed strings on both read and write.
const maxStringLength = 10000

// Context carries the per-file state threaded through every codec:
// the version pair, the header string table, the link stack on read,
// and the block index map on write.
type Context struct {
	Version     uint32
	UserVersion uint32

	strings     []string
	stringIndex map[string]int32
	links       *linkStack
	blockIndex  map[*Block]int32
}

// NewContext returns a context for the given version pair, suitable
// for sizing values outside a full read or write.
func NewContext(version, userVersion uint32) *Context {
	return &Context{Version: version, UserVersion: userVersion}
}

// linkStack is the FIFO queue of deferred reference placeholders:
// pushed in declaration order during the block pass, drained in the
// same order while fixing links.
type linkStack struct {
	q    []int32
	head int
}

func (s *linkStack) push(v int32) {
	s.q = append(s.q, v)
}

func (s *linkStack) pop() (int32, error) {
	if s.head >= len(s.q) {
		return 0, fmt.Errorf("%w: link stack exhausted", ErrCorrupt)
	}
	v := s.q[s.head]
	s.head++
	return v, nil
}

func (s *linkStack) empty() bool {
	return s.head >= len(s.q)
}

// Value is a leaf or composite datum with version-dependent wire
// operations.
type Value interface {
	Size(c *Context) int64
	Read(c *Context, r io.Reader) error
	Write(c *Context, w io.Writer) error
}

func readUint(r io.Reader, size int) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:size]); err != nil {
		return 0, err
	}
	var v uint64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

func writeUint(w io.Writer, size int, v uint64) error {
	var buf [8]byte
	for i := 0; i < size; i++ {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	_, err := w.Write(buf[:size])
	return err
}

// Int is the codec for all fixed-width integral basics, including the
// enum and bitflags storage types.
type Int struct {
	size   int
	signed bool
	val    int64
}

func (i *Int) Size(*Context) int64 { return int64(i.size) }

func (i *Int) Read(c *Context, r io.Reader) error {
	u, err := readUint(r, i.size)
	if err != nil {
		return err
	}
	if i.signed {
		shift := uint(64 - 8*i.size)
		i.val = int64(u<<shift) >> shift
	} else {
		i.val = int64(u)
	}
	return nil
}

func (i *Int) Write(c *Context, w io.Writer) error {
	return writeUint(w, i.size, uint64(i.val))
}

func (i *Int) Get() int64     { return i.val }
func (i *Int) Set(v int64)    { i.val = v }
func (i *Int) String() string { return fmt.Sprintf("%d", i.val) }

// Float is the IEEE-754 32-bit float codec.
type Float struct {
	val float32
}

func (f *Float) Size(*Context) int64 { return 4 }

func (f *Float) Read(c *Context, r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, &f.val)
}

func (f *Float) Write(c *Context, w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, f.val)
}

func (f *Float) Get() float32  { return f.val }
func (f *Float) Set(v float32) { f.val = v }

// Bool is stored in 4 bytes up to version 0x04000002 inclusive and in
// a single byte afterwards. Any nonzero stored value reads as true.
type Bool struct {
	val bool
}

func (b *Bool) width(c *Context) int {
	if c.Version > 0x04000002 {
		return 1
	}
	return 4
}

func (b *Bool) Size(c *Context) int64 { return int64(b.width(c)) }

func (b *Bool) Read(c *Context, r io.Reader) error {
	u, err := readUint(r, b.width(c))
	if err != nil {
		return err
	}
	b.val = u != 0
	return nil
}

func (b *Bool) Write(c *Context, w io.Writer) error {
	var u uint64
	if b.val {
		u = 1
	}
	return writeUint(w, b.width(c), u)
}

func (b *Bool) Get() bool  { return b.val }
func (b *Bool) Set(v bool) { b.val = v }

// SizedString is a 32-bit length prefix followed by raw bytes.
type SizedString struct {
	val string
}

func (s *SizedString) Size(*Context) int64 { return 4 + int64(len(s.val)) }

func (s *SizedString) Read(c *Context, r io.Reader) error {
	n, err := readUint(r, 4)
	if err != nil {
		return err
	}
	if n > maxStringLength {
		return fmt.Errorf("%w: sized string of %d bytes", ErrStringTooLong, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	s.val = string(buf)
	return nil
}

func (s *SizedString) Write(c *Context, w io.Writer) error {
	if len(s.val) > maxStringLength {
		return fmt.Errorf("%w: sized string of %d bytes", ErrStringTooLong, len(s.val))
	}
	if err := writeUint(w, 4, uint64(len(s.val))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s.val)
	return err
}

func (s *SizedString) Get() string  { return s.val }
func (s *SizedString) Set(v string) { s.val = v }

// ShortString is an 8-bit length prefix (terminator included) followed
// by the bytes and a NUL. The NUL is stripped on read.
type ShortString struct {
	val string
}

func (s *ShortString) Size(*Context) int64 { return 2 + int64(len(s.val)) }

func (s *ShortString) Read(c *Context, r io.Reader) error {
	n, err := readUint(r, 1)
	if err != nil {
		return err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	s.val = strings.TrimRight(string(buf), "\x00")
	return nil
}

func (s *ShortString) Write(c *Context, w io.Writer) error {
	if len(s.val) > 254 {
		return fmt.Errorf("%w: short string of %d bytes", ErrStringTooLong, len(s.val))
	}
	if err := writeUint(w, 1, uint64(len(s.val)+1)); err != nil {
		return err
	}
	_, err := io.WriteString(w, s.val+"\x00")
	return err
}

func (s *ShortString) Get() string  { return s.val }
func (s *ShortString) Set(v string) { s.val = v }

// LineString is raw bytes up to and including a line feed.
type LineString struct {
	val string
}

func (s *LineString) Size(*Context) int64 { return int64(len(s.val)) + 1 }

func (s *LineString) Read(c *Context, r io.Reader) error {
	line, err := readLine(r, maxStringLength)
	if err != nil {
		return err
	}
	s.val = strings.TrimRight(line, "\x0a")
	return nil
}

func (s *LineString) Write(c *Context, w io.Writer) error {
	_, err := io.WriteString(w, s.val+"\x0a")
	return err
}

func (s *LineString) Get() string  { return s.val }
func (s *LineString) Set(v string) { s.val = strings.TrimRight(v, "\x0a") }

// HeaderString is the version-dependent first line of the file. It
// carries no value of its own; reading verifies the line matches the
// context's version.
type HeaderString struct{}

func (s *HeaderString) Size(c *Context) int64 {
	return int64(len(VersionString(c.Version))) + 1
}

func (s *HeaderString) Read(c *Context, r io.Reader) error {
	want := VersionString(c.Version)
	buf := make([]byte, len(want)+1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	if string(buf) != want+"\x0a" {
		return fmt.Errorf("%w: expected header %q but got %q", ErrCorrupt, want, string(buf[:len(buf)-1]))
	}
	return nil
}

func (s *HeaderString) Write(c *Context, w io.Writer) error {
	_, err := io.WriteString(w, VersionString(c.Version)+"\x0a")
	return err
}

// FileVersion is the 32-bit version echo following the header line.
type FileVersion struct{}

func (v *FileVersion) Size(*Context) int64 { return 4 }

func (v *FileVersion) Read(c *Context, r io.Reader) error {
	u, err := readUint(r, 4)
	if err != nil {
		return err
	}
	if uint32(u) != c.Version {
		return fmt.Errorf("%w: version echo 0x%08X does not match header 0x%08X", ErrCorrupt, u, c.Version)
	}
	return nil
}

func (v *FileVersion) Write(c *Context, w io.Writer) error {
	return writeUint(w, 4, uint64(c.Version))
}

// StringRef is the "string" basic: an index into the header string
// table from version 0x14010003 onwards, an inline sized string
// before that. An index of -1 denotes the empty string.
type StringRef struct {
	val string
}

func (s *StringRef) interned(c *Context) bool { return c.Version >= 0x14010003 }

func (s *StringRef) Size(c *Context) int64 {
	if s.interned(c) {
		return 4
	}
	return 4 + int64(len(s.val))
}

func (s *StringRef) Read(c *Context, r io.Reader) error {
	if !s.interned(c) {
		inline := &SizedString{}
		if err := inline.Read(c, r); err != nil {
			return err
		}
		s.val = inline.Get()
		return nil
	}
	u, err := readUint(r, 4)
	if err != nil {
		return err
	}
	n := int32(u)
	if n == -1 {
		s.val = ""
		return nil
	}
	if n < 0 || int(n) >= len(c.strings) {
		return fmt.Errorf("%w: string index %d outside table of %d", ErrCorrupt, n, len(c.strings))
	}
	s.val = c.strings[n]
	return nil
}

func (s *StringRef) Write(c *Context, w io.Writer) error {
	if !s.interned(c) {
		inline := &SizedString{val: s.val}
		return inline.Write(c, w)
	}
	if s.val == "" {
		return writeUint(w, 4, uint64(uint32(0xffffffff)))
	}
	n, ok := c.stringIndex[s.val]
	if !ok {
		return fmt.Errorf("%w: string %q not in string table", ErrCorrupt, s.val)
	}
	return writeUint(w, 4, uint64(uint32(n)))
}

func (s *StringRef) Get() string  { return s.val }
func (s *StringRef) Set(v string) { s.val = v }

func (s *StringRef) stringValues() []string {
	if s.val == "" {
		return nil
	}
	return []string{s.val}
}

// ByteArray is a 32-bit count followed by raw bytes.
type ByteArray struct {
	val []byte
}

func (b *ByteArray) Size(*Context) int64 { return 4 + int64(len(b.val)) }

func (b *ByteArray) Read(c *Context, r io.Reader) error {
	n, err := readUint(r, 4)
	if err != nil {
		return err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	b.val = buf
	return nil
}

func (b *ByteArray) Write(c *Context, w io.Writer) error {
	if err := writeUint(w, 4, uint64(len(b.val))); err != nil {
		return err
	}
	_, err := w.Write(b.val)
	return err
}

func (b *ByteArray) Get() []byte  { return b.val }
func (b *ByteArray) Set(v []byte) { b.val = v }

// Ref denotes another block, or none. On read it stores its on-disk
// placeholder on the link stack and holds nil until the second pass
// resolves it. The weak variant (Ptr) shares the wire shape but is
// invisible to the strong-reference walker.
type Ref struct {
	class  *Class
	weak   bool
	target *Block
}

// Class returns the template class captured at instantiation.
func (f *Ref) Class() *Class { return f.class }

// IsWeak reports whether this is an upward pointer.
func (f *Ref) IsWeak() bool { return f.weak }

func (f *Ref) Get() *Block { return f.target }

// Set assigns the target, enforcing the captured template class.
func (f *Ref) Set(b *Block) error {
	if b != nil && !b.InheritsFrom(f.class.Name) {
		return fmt.Errorf("%w: expected %s but got %s", ErrTypeMismatch, f.class.Name, b.ClassName())
	}
	f.target = b
	return nil
}

func (f *Ref) Size(*Context) int64 { return 4 }

func (f *Ref) Read(c *Context, r io.Reader) error {
	u, err := readUint(r, 4)
	if err != nil {
		return err
	}
	// the second pass assigns the target
	f.target = nil
	c.links.push(int32(u))
	return nil
}

func (f *Ref) Write(c *Context, w io.Writer) error {
	if f.target == nil {
		if c.Version >= 0x0303000D {
			return writeUint(w, 4, uint64(uint32(0xffffffff)))
		}
		return writeUint(w, 4, 0)
	}
	idx, ok := c.blockIndex[f.target]
	if !ok {
		return fmt.Errorf("%w: reference to a block outside the block list", ErrCorrupt)
	}
	return writeUint(w, 4, uint64(uint32(idx)))
}

func (f *Ref) fixLinks(c *Context, blocks map[int32]*Block) error {
	placeholder, err := c.links.pop()
	if err != nil {
		return err
	}
	if c.Version >= 0x0303000D {
		if placeholder == -1 {
			f.target = nil
			return nil
		}
	} else if placeholder == 0 {
		f.target = nil
		return nil
	}
	b, ok := blocks[placeholder]
	if !ok {
		return fmt.Errorf("%w: dangling block reference %d", ErrCorrupt, placeholder)
	}
	return f.Set(b)
}
