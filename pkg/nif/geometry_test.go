package nif

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorteil/vnif/pkg/nifmath"
)

// buildTriShape returns a single right triangle in the z=0 plane with
// UVs aligned to the axes, so the tangent frame is the identity
// frame.
func buildTriShape(t *testing.T) *Block {
	t.Helper()

	shape := MustBlock("NiTriShape")
	shape.SetStr("Name", "tri")
	data := MustBlock("NiTriShapeData")
	require.NoError(t, shape.SetBlockRef("Data", data))

	data.SetInt("Num Vertices", 3)
	data.SetBool("Has Vertices", true)
	require.NoError(t, data.ArrayField("Vertices").UpdateSize())
	positions := []nifmath.Vector3{{}, {X: 1}, {Y: 1}}
	for i, p := range positions {
		v := data.ArrayField("Vertices").RecordAt(i)
		v.SetFloat("x", p.X)
		v.SetFloat("y", p.Y)
		v.SetFloat("z", p.Z)
	}
	data.SetBool("Has Normals", true)
	require.NoError(t, data.ArrayField("Normals").UpdateSize())
	for i := 0; i < 3; i++ {
		data.ArrayField("Normals").RecordAt(i).SetFloat("z", 1)
	}
	data.SetInt("Num UV Sets", 1)
	data.SetBool("Has UV", true)
	require.NoError(t, data.ArrayField("UV Sets").UpdateSize())
	uvs := [][2]float32{{0, 0}, {1, 0}, {0, 1}}
	for i, uv := range uvs {
		r := data.ArrayField("UV Sets").Row(0).RecordAt(i)
		r.SetFloat("u", uv[0])
		r.SetFloat("v", uv[1])
	}
	data.SetInt("Num Triangles", 1)
	data.SetInt("Num Triangle Points", 3)
	require.NoError(t, data.ArrayField("Triangles").UpdateSize())
	tri := data.ArrayField("Triangles").RecordAt(0)
	tri.SetInt("v1", 0)
	tri.SetInt("v2", 1)
	tri.SetInt("v3", 2)
	return shape
}

func TestTriangleList(t *testing.T) {
	shape := buildTriShape(t)
	tris, err := shape.Triangles()
	require.NoError(t, err)
	assert.Equal(t, []Triangle{{V1: 0, V2: 1, V3: 2}}, tris)

	n, err := shape.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestTrianglesFromStrips(t *testing.T) {
	strips := MustBlock("NiTriStrips")
	data := MustBlock("NiTriStripsData")
	require.NoError(t, strips.SetBlockRef("Data", data))
	data.SetInt("Num Vertices", 5)
	data.SetBool("Has Vertices", false)
	data.SetInt("Num Strips", 2)
	require.NoError(t, data.ArrayField("Strip Lengths").UpdateSize())
	data.ArrayField("Strip Lengths").SetIntAt(0, 3)
	data.ArrayField("Strip Lengths").SetIntAt(1, 5)
	data.SetBool("Has Points", true)
	require.NoError(t, data.ArrayField("Points").UpdateSize())
	points := data.ArrayField("Points")
	for i, p := range []int64{0, 1, 2} {
		points.Row(0).SetIntAt(i, p)
	}
	// the second strip opens with a degenerate triangle
	for i, p := range []int64{1, 1, 2, 3, 4} {
		points.Row(1).SetIntAt(i, p)
	}

	tris, err := strips.Triangles()
	require.NoError(t, err)
	assert.Equal(t, []Triangle{
		{V1: 0, V2: 1, V3: 2},
		{V1: 2, V2: 1, V3: 3}, // odd position flips the winding
		{V1: 2, V2: 3, V3: 4},
	}, tris)
}

func TestUpdateTangentSpace(t *testing.T) {
	shape := buildTriShape(t)
	require.NoError(t, shape.UpdateTangentSpace())

	extra := shape.TangentSpaceExtra()
	require.NotNil(t, extra)
	assert.Equal(t, TangentSpaceName, extra.Str("Name"))

	payload := extra.Get("Binary Data").(*ByteArray).Get()
	assert.Len(t, payload, 24*3)

	tangents, binormals, err := shape.TangentSpaceData()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.True(t, tangents[i].Equals(nifmath.Vector3{X: 1}), "tangent %d: %v", i, tangents[i])
		assert.True(t, binormals[i].Equals(nifmath.Vector3{Y: 1}), "binormal %d: %v", i, binormals[i])
	}

	// frames are orthonormal and right-handed with the normal
	normals, err := shape.Normals()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		n, tan, bin := normals[i], tangents[i], binormals[i]
		assert.InDelta(t, 1, tan.Norm(), nifmath.Epsilon)
		assert.InDelta(t, 1, bin.Norm(), nifmath.Epsilon)
		assert.InDelta(t, 0, n.Dot(tan), nifmath.Epsilon)
		assert.InDelta(t, 0, n.Dot(bin), nifmath.Epsilon)
		assert.InDelta(t, 1, n.Dot(tan.Cross(bin)), nifmath.Epsilon)
	}

	// updating twice reuses the extra data block
	require.NoError(t, shape.UpdateTangentSpace())
	assert.Equal(t, extra, shape.TangentSpaceExtra())
	assert.Equal(t, int64(1), shape.Int("Num Extra Data List"))
}

func TestUpdateTangentSpaceSkipsDegenerateUVs(t *testing.T) {
	shape := buildTriShape(t)
	// collapse the UVs so the gradient is undefined
	for i := 0; i < 3; i++ {
		r := shape.BlockRef("Data").ArrayField("UV Sets").Row(0).RecordAt(i)
		r.SetFloat("u", 0.5)
		r.SetFloat("v", 0.5)
	}
	require.NoError(t, shape.UpdateTangentSpace())

	// frames still come out unit length and orthogonal to the normal
	tangents, binormals, err := shape.TangentSpaceData()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1, tangents[i].Norm(), nifmath.Epsilon)
		assert.InDelta(t, 1, binormals[i].Norm(), nifmath.Epsilon)
		assert.InDelta(t, 0, tangents[i].Dot(nifmath.Vector3{Z: 1}), nifmath.Epsilon)
	}
}

func TestTangentSpaceDataSizeCheck(t *testing.T) {
	shape := buildTriShape(t)
	require.NoError(t, shape.UpdateTangentSpace())

	extra := shape.TangentSpaceExtra()
	payload := extra.Get("Binary Data").(*ByteArray).Get()
	extra.Get("Binary Data").(*ByteArray).Set(payload[:len(payload)-8])

	_, _, err := shape.TangentSpaceData()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestUpdateTangentSpaceNeedsUVs(t *testing.T) {
	shape := MustBlock("NiTriShape")
	data := MustBlock("NiTriShapeData")
	require.NoError(t, shape.SetBlockRef("Data", data))
	data.SetInt("Num Vertices", 3)
	data.SetBool("Has Vertices", true)
	require.NoError(t, data.ArrayField("Vertices").UpdateSize())

	assert.Error(t, shape.UpdateTangentSpace())
}

func TestTangentSpacePayloadLayout(t *testing.T) {
	shape := buildTriShape(t)
	require.NoError(t, shape.UpdateTangentSpace())

	payload := shape.TangentSpaceExtra().Get("Binary Data").(*ByteArray).Get()
	// tangents occupy the first half of the payload
	x := math.Float32frombits(uint32(payload[0]) | uint32(payload[1])<<8 |
		uint32(payload[2])<<16 | uint32(payload[3])<<24)
	assert.InDelta(t, 1.0, x, nifmath.Epsilon)
	// binormals the second: the first binormal starts at 12*numVertices
	y := math.Float32frombits(uint32(payload[40]) | uint32(payload[41])<<8 |
		uint32(payload[42])<<16 | uint32(payload[43])<<24)
	assert.InDelta(t, 1.0, y, nifmath.Epsilon)
}
