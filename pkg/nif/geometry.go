package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vorteil/vnif/pkg/nifmath"
)

// TangentSpaceName is the extra-data name under which the tangent
// space payload is stored.
const TangentSpaceName = "Tangent space (binormal & tangent vectors)"

// TexCoord is one UV pair.
type TexCoord struct {
	U, V float32
}

// Triangle indexes three vertices.
type Triangle struct {
	V1, V2, V3 int
}

func (t Triangle) degenerate() bool {
	return t.V1 == t.V2 || t.V2 == t.V3 || t.V1 == t.V3
}

// GeometryData returns the data block of a triangle-based geometry.
func (b *Block) GeometryData() (*Block, error) {
	if !b.InheritsFrom("NiTriBasedGeom") {
		return nil, fmt.Errorf("%w: %s is not triangle-based geometry", ErrWrongClass, b.ClassName())
	}
	data := b.BlockRef("Data")
	if data == nil {
		return nil, fmt.Errorf("%w: geometry %q has no data block", ErrWrongClass, b.Str("Name"))
	}
	return data, nil
}

// VertexCount returns the number of vertices in the geometry's data
// block.
func (b *Block) VertexCount() (int, error) {
	data, err := b.GeometryData()
	if err != nil {
		return 0, err
	}
	return int(data.Int("Num Vertices")), nil
}

func vectorArray(data *Block, field string) []nifmath.Vector3 {
	arr := data.ArrayField(field)
	out := make([]nifmath.Vector3, arr.Len())
	for i := range out {
		r := arr.RecordAt(i)
		out[i] = nifmath.Vector3{X: r.Float("x"), Y: r.Float("y"), Z: r.Float("z")}
	}
	return out
}

// Positions returns the per-vertex positions.
func (b *Block) Positions() ([]nifmath.Vector3, error) {
	data, err := b.GeometryData()
	if err != nil {
		return nil, err
	}
	return vectorArray(data, "Vertices"), nil
}

// Normals returns the per-vertex normals, which may be empty.
func (b *Block) Normals() ([]nifmath.Vector3, error) {
	data, err := b.GeometryData()
	if err != nil {
		return nil, err
	}
	if !data.Bool("Has Normals") {
		return nil, nil
	}
	return vectorArray(data, "Normals"), nil
}

// UVSet returns UV set i, which may be empty.
func (b *Block) UVSet(i int) ([]TexCoord, error) {
	data, err := b.GeometryData()
	if err != nil {
		return nil, err
	}
	sets := data.ArrayField("UV Sets")
	if !data.Bool("Has UV") || i >= sets.Len() {
		return nil, nil
	}
	row := sets.Row(i)
	out := make([]TexCoord, row.Len())
	for j := range out {
		r := row.RecordAt(j)
		out[j] = TexCoord{U: r.Float("u"), V: r.Float("v")}
	}
	return out, nil
}

// Triangles returns the triangle list, reconstructing it from
// triangle strips where necessary. Degenerate strip triangles are
// dropped.
func (b *Block) Triangles() ([]Triangle, error) {
	data, err := b.GeometryData()
	if err != nil {
		return nil, err
	}
	switch {
	case data.InheritsFrom("NiTriShapeData"):
		arr := data.ArrayField("Triangles")
		out := make([]Triangle, 0, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			r := arr.RecordAt(i)
			out = append(out, Triangle{
				V1: int(r.Int("v1")),
				V2: int(r.Int("v2")),
				V3: int(r.Int("v3")),
			})
		}
		return out, nil
	case data.InheritsFrom("NiTriStripsData"):
		points := data.ArrayField("Points")
		var out []Triangle
		for s := 0; s < points.Len(); s++ {
			strip := points.Row(s)
			for i := 0; i+2 < strip.Len(); i++ {
				t := Triangle{
					V1: int(strip.IntAt(i)),
					V2: int(strip.IntAt(i + 1)),
					V3: int(strip.IntAt(i + 2)),
				}
				if i%2 != 0 {
					t.V1, t.V2 = t.V2, t.V1
				}
				if !t.degenerate() {
					out = append(out, t)
				}
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s carries no triangles", ErrWrongClass, data.ClassName())
}

// findExtraData returns the first extra-data block of the given class
// and name, searching both the list and the chain linkage.
func (b *Block) findExtraData(class, name string) *Block {
	if arr, ok := b.TryGet("Extra Data List"); ok {
		list := arr.(*Array)
		for i := 0; i < list.Len(); i++ {
			e := list.BlockAt(i)
			if e != nil && e.InheritsFrom(class) && e.Str("Name") == name {
				return e
			}
		}
	}
	if ref, ok := b.TryGet("Extra Data"); ok {
		for e := ref.(*Ref).Get(); e != nil; e = e.BlockRef("Next Extra Data") {
			if e.InheritsFrom(class) && e.Str("Name") == name {
				return e
			}
		}
	}
	return nil
}

// addExtraData links extra into both the list and the chain; version
// gating decides which of the two reaches the file.
func (b *Block) addExtraData(extra *Block) error {
	if ref, ok := b.TryGet("Extra Data"); ok {
		head := ref.(*Ref)
		if err := extra.SetBlockRef("Next Extra Data", head.Get()); err != nil {
			return err
		}
		if err := head.Set(extra); err != nil {
			return err
		}
	}
	if _, ok := b.TryGet("Extra Data List"); ok {
		n := b.Int("Num Extra Data List")
		b.SetInt("Num Extra Data List", n+1)
		list := b.ArrayField("Extra Data List")
		if err := list.UpdateSize(); err != nil {
			return err
		}
		if err := list.SetBlockAt(int(n), extra); err != nil {
			return err
		}
	}
	return nil
}

// TangentSpaceExtra returns the geometry's tangent-space extra-data
// block, or nil.
func (b *Block) TangentSpaceExtra() *Block {
	return b.findExtraData("NiBinaryExtraData", TangentSpaceName)
}

// TangentSpaceData decodes the stored payload into per-vertex tangents
// and binormals. The payload must hold 24 bytes per vertex: all
// tangents first, then all binormals.
func (b *Block) TangentSpaceData() (tangents, binormals []nifmath.Vector3, err error) {
	extra := b.TangentSpaceExtra()
	if extra == nil {
		return nil, nil, fmt.Errorf("%w: geometry has no tangent space data", ErrWrongClass)
	}
	numVertices, err := b.VertexCount()
	if err != nil {
		return nil, nil, err
	}
	payload := extra.Get("Binary Data").(*ByteArray).Get()
	if len(payload) != 24*numVertices {
		return nil, nil, fmt.Errorf("%w: tangent space data has invalid size, expected %d bytes but got %d",
			ErrCorrupt, 24*numVertices, len(payload))
	}
	vec := func(off int) nifmath.Vector3 {
		return nifmath.Vector3{
			X: math.Float32frombits(binary.LittleEndian.Uint32(payload[off:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(payload[off+4:])),
			Z: math.Float32frombits(binary.LittleEndian.Uint32(payload[off+8:])),
		}
	}
	tangents = make([]nifmath.Vector3, numVertices)
	binormals = make([]nifmath.Vector3, numVertices)
	for i := 0; i < numVertices; i++ {
		tangents[i] = vec(12 * i)
		binormals[i] = vec(12 * (numVertices + i))
	}
	return tangents, binormals, nil
}

// ComputeTangentSpace derives per-vertex tangents and binormals from
// positions, normals and the first UV set: per-triangle UV gradients
// accumulate into shared vertices, then each frame is orthonormalized
// against the normal. Degenerate triangles contribute nothing.
func (b *Block) ComputeTangentSpace() (tangents, binormals []nifmath.Vector3, err error) {
	positions, err := b.Positions()
	if err != nil {
		return nil, nil, err
	}
	normals, err := b.Normals()
	if err != nil {
		return nil, nil, err
	}
	uvs, err := b.UVSet(0)
	if err != nil {
		return nil, nil, err
	}
	n := len(positions)
	if len(normals) != n || len(uvs) != n {
		return nil, nil, fmt.Errorf("%w: tangent space needs positions, normals and a UV set", ErrWrongClass)
	}
	tris, err := b.Triangles()
	if err != nil {
		return nil, nil, err
	}

	tangents = make([]nifmath.Vector3, n)
	binormals = make([]nifmath.Vector3, n)
	for _, t := range tris {
		if t.degenerate() || t.V1 >= n || t.V2 >= n || t.V3 >= n {
			continue
		}
		x1 := positions[t.V2].Sub(positions[t.V1])
		x2 := positions[t.V3].Sub(positions[t.V1])
		if x1.Cross(x2).Norm() < 1e-8 {
			// zero area
			continue
		}
		s1 := uvs[t.V2].U - uvs[t.V1].U
		u1 := uvs[t.V2].V - uvs[t.V1].V
		s2 := uvs[t.V3].U - uvs[t.V1].U
		u2 := uvs[t.V3].V - uvs[t.V1].V
		r := float64(s1*u2 - s2*u1)
		if math.Abs(r) < 1e-8 {
			// collinear UVs
			continue
		}
		k := float32(1 / r)
		sdir := x1.Scale(u2).Sub(x2.Scale(u1)).Scale(k)
		tdir := x2.Scale(s1).Sub(x1.Scale(s2)).Scale(k)
		for _, v := range []int{t.V1, t.V2, t.V3} {
			tangents[v] = tangents[v].Add(sdir)
			binormals[v] = binormals[v].Add(tdir)
		}
	}

	for i := 0; i < n; i++ {
		nrm := normals[i]
		tan := tangents[i].Sub(nrm.Scale(float32(nrm.Dot(tangents[i]))))
		if tan.Norm() < 1e-6 {
			tan = anyPerpendicular(nrm)
		}
		tan = tan.Normalized()
		bin := binormals[i].
			Sub(nrm.Scale(float32(nrm.Dot(binormals[i])))).
			Sub(tan.Scale(float32(tan.Dot(binormals[i]))))
		if bin.Norm() < 1e-6 {
			bin = nrm.Cross(tan)
		}
		tangents[i] = tan
		binormals[i] = bin.Normalized()
	}
	return tangents, binormals, nil
}

func anyPerpendicular(v nifmath.Vector3) nifmath.Vector3 {
	axis := nifmath.Vector3{X: 1}
	if math.Abs(v.Dot(axis)) > 0.9*v.Norm() {
		axis = nifmath.Vector3{Y: 1}
	}
	return v.Cross(axis)
}

// UpdateTangentSpace recomputes the tangent space and stores it in
// the geometry's binary extra-data payload, creating the extra-data
// block if it is missing.
func (b *Block) UpdateTangentSpace() error {
	tangents, binormals, err := b.ComputeTangentSpace()
	if err != nil {
		return err
	}
	payload := make([]byte, 0, 24*len(tangents))
	put := func(v nifmath.Vector3) {
		var buf [12]byte
		binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(v.Z))
		payload = append(payload, buf[:]...)
	}
	for _, v := range tangents {
		put(v)
	}
	for _, v := range binormals {
		put(v)
	}

	extra := b.TangentSpaceExtra()
	if extra == nil {
		extra, err = b.class.format.NewBlock("NiBinaryExtraData")
		if err != nil {
			return err
		}
		extra.SetStr("Name", TangentSpaceName)
		if err := b.addExtraData(extra); err != nil {
			return err
		}
	}
	extra.Get("Binary Data").(*ByteArray).Set(payload)
	return nil
}
