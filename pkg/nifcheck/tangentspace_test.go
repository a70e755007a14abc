package nifcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorteil/vnif/pkg/nif"
)

// buildCheckedShape returns a right triangle with a freshly computed,
// internally consistent tangent space.
func buildCheckedShape(t *testing.T) *nif.Block {
	t.Helper()

	shape := nif.MustBlock("NiTriShape")
	shape.SetStr("Name", "checked")
	data := nif.MustBlock("NiTriShapeData")
	require.NoError(t, shape.SetBlockRef("Data", data))

	data.SetInt("Num Vertices", 3)
	data.SetBool("Has Vertices", true)
	require.NoError(t, data.ArrayField("Vertices").UpdateSize())
	coords := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	for i, p := range coords {
		v := data.ArrayField("Vertices").RecordAt(i)
		v.SetFloat("x", p[0])
		v.SetFloat("y", p[1])
		v.SetFloat("z", p[2])
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

	require.NoError(t, shape.UpdateTangentSpace())
	return shape
}

func TestCheckCleanTangentSpace(t *testing.T) {
	shape := buildCheckedShape(t)

	report, err := CheckTangentSpace(shape)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, report.Clean(), "diagnostics: %v", report.Diagnostics)
	assert.Equal(t, 3, report.NumVertices)
	assert.Equal(t, "checked", report.GeometryName)
}

func TestCheckSkipsBlocksWithoutTangentSpace(t *testing.T) {
	node := nif.MustBlock("NiNode")
	report, err := CheckTangentSpace(node)
	require.NoError(t, err)
	assert.Nil(t, report)

	bare := nif.MustBlock("NiTriShape")
	report, err = CheckTangentSpace(bare)
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestCheckFlagsNonUnitNormal(t *testing.T) {
	shape := buildCheckedShape(t)

	// shrink one normal after the payload was computed
	normal := shape.BlockRef("Data").ArrayField("Normals").RecordAt(1)
	normal.SetFloat("z", 0.5)

	report, err := CheckTangentSpace(shape)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.False(t, report.Clean())

	found := false
	for _, d := range report.Diagnostics {
		if d.Kind == KindNonUnitNormal {
			found = true
			assert.Equal(t, 1, d.Vertex)
		}
	}
	assert.True(t, found, "expected a non-unit normal warning, got %v", report.Diagnostics)
}

func TestCheckSizeErrorPrecedesComponentChecks(t *testing.T) {
	shape := buildCheckedShape(t)

	extra := shape.TangentSpaceExtra()
	payload := extra.Get("Binary Data").(*nif.ByteArray).Get()
	extra.Get("Binary Data").(*nif.ByteArray).Set(payload[:60])

	// also break a normal: the size error must win
	shape.BlockRef("Data").ArrayField("Normals").RecordAt(0).SetFloat("z", 0.5)

	report, err := CheckTangentSpace(shape)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, nif.ErrCorrupt)
}

func TestCheckFlagsDeviationFromRecomputed(t *testing.T) {
	shape := buildCheckedShape(t)

	// swap the UV axes so the recomputed frame is rotated against the
	// stored one; unit length and orthogonality of the stored payload
	// still hold, only the recomputation disagrees
	data := shape.BlockRef("Data")
	uvs := data.ArrayField("UV Sets").Row(0)
	uvs.RecordAt(0).SetFloat("u", 0)
	uvs.RecordAt(0).SetFloat("v", 0)
	uvs.RecordAt(1).SetFloat("u", 0)
	uvs.RecordAt(1).SetFloat("v", 1)
	uvs.RecordAt(2).SetFloat("u", 1)
	uvs.RecordAt(2).SetFloat("v", 0)

	report, err := CheckTangentSpace(shape)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.False(t, report.Clean())
	assert.Equal(t, KindDeviates, report.Diagnostics[0].Kind)
}
