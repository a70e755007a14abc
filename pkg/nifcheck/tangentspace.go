package nifcheck

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"math"

	"github.com/vorteil/vnif/pkg/nif"
	"github.com/vorteil/vnif/pkg/nifmath"
)

// Epsilon bounds the unit-length and orthogonality checks.
const Epsilon = 1e-4

// Tolerance bounds the recomputed-component comparison. It is loose
// because tool chains disagree on accumulation order.
const Tolerance = 0.3

// Diagnostic kinds.
const (
	KindNonUnitNormal   = "non-unit normal"
	KindNonUnitTangent  = "non-unit tangent"
	KindNonUnitBinormal = "non-unit binormal"
	KindNonOrthogonal   = "non-orthogonal tangent space"
	KindDeviates        = "tangent space differs from recomputed"
)

// Diagnostic is one finding at one vertex.
type Diagnostic struct {
	Vertex int
	Kind   string
	Detail string
}

// Report is the outcome of checking one geometry block. A nil report
// means the block carries no tangent space data to check.
type Report struct {
	GeometryName string
	NumVertices  int
	Diagnostics  []Diagnostic
}

func (r *Report) add(vertex int, kind, format string, args ...interface{}) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Vertex: vertex,
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	})
}

// Clean reports whether the check found nothing to complain about.
func (r *Report) Clean() bool { return len(r.Diagnostics) == 0 }

// CheckTangentSpace cross-checks a geometry block's stored tangent
// space against unit-length, orthogonality and recomputation. It
// never modifies the block. The payload size is verified before any
// component is touched; a wrong size is an error, everything else is
// a diagnostic.
func CheckTangentSpace(geom *nif.Block) (*Report, error) {
	if !geom.InheritsFrom("NiTriBasedGeom") {
		return nil, nil
	}
	if geom.TangentSpaceExtra() == nil {
		return nil, nil
	}

	tangents, binormals, err := geom.TangentSpaceData()
	if err != nil {
		return nil, err
	}
	numVertices, err := geom.VertexCount()
	if err != nil {
		return nil, err
	}
	normals, err := geom.Normals()
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeometryName: geom.Str("Name"),
		NumVertices:  numVertices,
	}

	for i := 0; i < numVertices && i < len(normals); i++ {
		n, t, b := normals[i], tangents[i], binormals[i]
		if math.Abs(n.Dot(n)-1) > Epsilon {
			report.add(i, KindNonUnitNormal, "norm %f", n.Norm())
		}
		if math.Abs(t.Dot(t)-1) > Epsilon {
			report.add(i, KindNonUnitTangent, "norm %f", t.Norm())
		}
		if math.Abs(b.Dot(b)-1) > Epsilon {
			report.add(i, KindNonUnitBinormal, "norm %f", b.Norm())
		}
		if math.Abs(n.Dot(t))+math.Abs(n.Dot(b)) > Epsilon {
			report.add(i, KindNonOrthogonal,
				"n.t = %f, n.b = %f, t.b = %f, volume = %f",
				n.Dot(t), n.Dot(b), t.Dot(b), n.Dot(t.Cross(b)))
		}
	}

	newTan, newBin, err := geom.ComputeTangentSpace()
	if err != nil {
		// recomputation needs positions, normals and UVs; their
		// absence is a finding, not a failure
		report.add(-1, KindDeviates, "cannot recompute: %v", err)
		return report, nil
	}
	for i := 0; i < numVertices; i++ {
		if deviates(tangents[i], newTan[i]) || deviates(binormals[i], newBin[i]) {
			report.add(i, KindDeviates,
				"stored %v %v, recomputed %v %v",
				tangents[i], binormals[i], newTan[i], newBin[i])
		}
	}
	return report, nil
}

func deviates(old, new nifmath.Vector3) bool {
	return math.Abs(float64(old.X-new.X)) > Tolerance ||
		math.Abs(float64(old.Y-new.Y)) > Tolerance ||
		math.Abs(float64(old.Z-new.Z)) > Tolerance
}
