package nif

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildScene assembles a small scene exercising strings, arrays,
// jagged arrays, strong references and a weak controller target.
func buildScene(t *testing.T) *Block {
	t.Helper()

	root := MustBlock("NiNode")
	root.SetStr("Name", "Scene Root")

	child := MustBlock("NiNode")
	child.SetStr("Name", "new block")
	child.SetFloat("Scale", 2.4)
	require.NoError(t, root.AddChild(child))

	ctrl := MustBlock("NiVisController")
	ctrl.SetInt("Flags", 0x000c)
	require.NoError(t, ctrl.RefField("Target").Set(child))
	require.NoError(t, child.SetBlockRef("Controller", ctrl))

	strips := MustBlock("NiTriStrips")
	strips.SetStr("Name", "hello world")
	require.NoError(t, root.PrependChild(strips))

	data := MustBlock("NiTriStripsData")
	require.NoError(t, strips.SetBlockRef("Data", data))
	data.SetInt("Num Vertices", 5)
	data.SetBool("Has Vertices", true)
	require.NoError(t, data.ArrayField("Vertices").UpdateSize())
	for i := 0; i < 5; i++ {
		v := data.ArrayField("Vertices").RecordAt(i)
		v.SetFloat("x", 1.0+float32(i)/10.0)
		v.SetFloat("y", 0.2+1.0/float32(i+1))
		v.SetFloat("z", 0.03)
	}
	data.SetBool("Has Normals", true)
	require.NoError(t, data.ArrayField("Normals").UpdateSize())
	for i := 0; i < 5; i++ {
		data.ArrayField("Normals").RecordAt(i).SetFloat("z", 1.0)
	}
	data.SetInt("Num UV Sets", 1)
	data.SetBool("Has UV", true)
	require.NoError(t, data.ArrayField("UV Sets").UpdateSize())
	uvs := data.ArrayField("UV Sets").Row(0)
	for i := 0; i < 5; i++ {
		uv := uvs.RecordAt(i)
		uv.SetFloat("u", 1.0-float32(i)/10.0)
		uv.SetFloat("v", 1.0/float32(i+1))
	}
	data.SetInt("Num Strips", 2)
	require.NoError(t, data.ArrayField("Strip Lengths").UpdateSize())
	data.ArrayField("Strip Lengths").SetIntAt(0, 3)
	data.ArrayField("Strip Lengths").SetIntAt(1, 4)
	data.SetBool("Has Points", true)
	require.NoError(t, data.ArrayField("Points").UpdateSize())
	points := data.ArrayField("Points")
	for i, p := range []int64{0, 1, 2} {
		points.Row(0).SetIntAt(i, p)
	}
	for i, p := range []int64{1, 2, 3, 4} {
		points.Row(1).SetIntAt(i, p)
	}
	return root
}

func TestRoundTripEmptyScene(t *testing.T) {
	root := MustBlock("NiNode")
	root.SetStr("Name", "Scene Root")

	buf := new(bytes.Buffer)
	require.NoError(t, Write(0x14010003, 10, buf, []*Block{root}))

	roots, err := Read(0x14010003, 10, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "NiNode", roots[0].ClassName())
	assert.Equal(t, "Scene Root", roots[0].Str("Name"))
	assert.Equal(t, int64(0), roots[0].Int("Num Children"))
}

func TestChildOrdering(t *testing.T) {
	root := MustBlock("NiNode")
	root.SetStr("Name", "Scene Root")
	child := MustBlock("NiNode")
	child.SetStr("Name", "new block")
	require.NoError(t, root.AddChild(child))
	strips := MustBlock("NiTriStrips")
	strips.SetStr("Name", "hello world")
	require.NoError(t, root.PrependChild(strips))

	buf := new(bytes.Buffer)
	require.NoError(t, Write(0x14010003, 10, buf, []*Block{root}))
	roots, err := Read(0x14010003, 10, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, roots, 1)

	children := roots[0].Children()
	require.Len(t, children, 2)
	assert.Equal(t, "NiTriStrips", children[0].ClassName())
	assert.Equal(t, "hello world", children[0].Str("Name"))
	assert.Equal(t, "NiNode", children[1].ClassName())
	assert.Equal(t, "new block", children[1].Str("Name"))
}

func TestRoundTripByteStable(t *testing.T) {
	cases := []struct {
		version     uint32
		userVersion uint32
	}{
		{0x04000002, 0},  // inline type names, 4-byte bools
		{0x0A000100, 0},  // zero separators, type table
		{0x14000005, 11}, // user version, export info
		{0x14010003, 10}, // interned strings
		{0x14020007, 11}, // per-block sizes
	}
	for _, c := range cases {
		root := buildScene(t)

		first := new(bytes.Buffer)
		require.NoError(t, Write(c.version, c.userVersion, first, []*Block{root}),
			"version 0x%08X", c.version)

		roots, err := Read(c.version, c.userVersion, bytes.NewReader(first.Bytes()))
		require.NoError(t, err, "version 0x%08X", c.version)
		require.Len(t, roots, 1)

		second := new(bytes.Buffer)
		require.NoError(t, Write(c.version, c.userVersion, second, roots))
		assert.Equal(t, first.Bytes(), second.Bytes(), "version 0x%08X", c.version)
	}
}

func TestRoundTripResolvesWeakReference(t *testing.T) {
	root := buildScene(t)

	buf := new(bytes.Buffer)
	require.NoError(t, Write(0x14010003, 10, buf, []*Block{root}))
	roots, err := Read(0x14010003, 10, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	child := roots[0].Children()[1]
	ctrl := child.BlockRef("Controller")
	require.NotNil(t, ctrl)
	assert.Equal(t, "NiVisController", ctrl.ClassName())
	// the upward pointer closes the cycle without entering the
	// reference walk
	assert.Equal(t, child, ctrl.BlockRef("Target"))
	assert.Empty(t, ctrl.Refs(NewContext(0x14010003, 10)))
	assert.Equal(t, []*Block{child}, ctrl.Links(NewContext(0x14010003, 10)))
}

func TestBlockCoverage(t *testing.T) {
	root := buildScene(t)
	c := NewContext(0x14010003, 10)

	tree := root.Tree(c)
	seen := map[*Block]int{}
	for _, b := range tree {
		seen[b]++
	}
	for b, n := range seen {
		assert.Equal(t, 1, n, b.ClassName())
	}
	// root, strips, strips data, child, controller
	assert.Len(t, tree, 5)
}

func TestPhysicsBlocksFollowTheirChildren(t *testing.T) {
	root := MustBlock("NiNode")
	root.SetStr("Name", "Scene Root")

	sphere := MustBlock("bhkSphereShape")
	sphere.SetFloat("Radius", 0.5)
	body := MustBlock("bhkRigidBody")
	require.NoError(t, body.SetBlockRef("Shape", sphere))
	collision := MustBlock("NiCollisionObject")
	require.NoError(t, collision.SetBlockRef("Body", body))
	require.NoError(t, collision.RefField("Target").Set(root))
	require.NoError(t, root.SetBlockRef("Collision Object", collision))

	c := &Context{Version: 0x14000005, UserVersion: 11, blockIndex: make(map[*Block]int32)}
	var blockList []*Block
	var typeList []string
	typeIndex := make(map[*Block]int)
	Default().makeBlockList(c, root, &blockList, &typeList, typeIndex, make(map[*Block]bool))

	var classes []string
	for _, b := range blockList {
		classes = append(classes, b.ClassName())
	}
	assert.Equal(t, []string{"NiNode", "NiCollisionObject", "bhkSphereShape", "bhkRigidBody"}, classes)

	// and the file survives the trip
	buf := new(bytes.Buffer)
	require.NoError(t, Write(0x14000005, 11, buf, []*Block{root}))
	roots, err := Read(0x14000005, 11, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	body2 := roots[0].BlockRef("Collision Object").BlockRef("Body")
	require.NotNil(t, body2)
	assert.Equal(t, "bhkRigidBody", body2.ClassName())
	assert.Equal(t, float32(0.5), body2.BlockRef("Shape").Float("Radius"))
}

func TestTruncatedFileFailsCorrupt(t *testing.T) {
	root := buildScene(t)
	buf := new(bytes.Buffer)
	require.NoError(t, Write(0x14010003, 10, buf, []*Block{root}))

	raw := buf.Bytes()
	_, err := Read(0x14010003, 10, bytes.NewReader(raw[:len(raw)-4]))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestTrailingBytesFailCorrupt(t *testing.T) {
	root := MustBlock("NiNode")
	buf := new(bytes.Buffer)
	require.NoError(t, Write(0x14010003, 10, buf, []*Block{root}))
	buf.WriteByte(0)

	_, err := Read(0x14010003, 10, bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestNullReferenceRoundTrip(t *testing.T) {
	root := MustBlock("NiNode")
	buf := new(bytes.Buffer)
	require.NoError(t, Write(0x14010003, 10, buf, []*Block{root}))
	roots, err := Read(0x14010003, 10, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Nil(t, roots[0].BlockRef("Controller"))
	assert.Nil(t, roots[0].BlockRef("Collision Object"))
}

func TestRefTemplateMismatch(t *testing.T) {
	root := MustBlock("NiNode")
	data := MustBlock("NiTriStripsData")
	// data blocks are not scene objects
	err := root.ArrayField("Children").UpdateSize()
	assert.NoError(t, err)
	assert.ErrorIs(t, root.SetBlockRef("Collision Object", data), ErrTypeMismatch)
	assert.ErrorIs(t, root.AddChild(data), ErrTypeMismatch)
}

func TestUnknownBlockType(t *testing.T) {
	_, err := NewBlock("NiMadeUpBlock")
	assert.ErrorIs(t, err, ErrUnknownBlockType)
}

func TestTextKeyTemplateBinding(t *testing.T) {
	root := MustBlock("NiNode")
	root.SetStr("Name", "Scene Root")
	keys := MustBlock("NiTextKeyExtraData")
	keys.SetStr("Name", "start")
	keys.SetInt("Num Text Keys", 1)
	require.NoError(t, keys.ArrayField("Text Keys").UpdateSize())
	key := keys.ArrayField("Text Keys").RecordAt(0)
	key.SetFloat("Time", 1.0)
	key.SetStr("Value", "hi")

	root.SetInt("Num Extra Data List", 1)
	require.NoError(t, root.ArrayField("Extra Data List").UpdateSize())
	require.NoError(t, root.ArrayField("Extra Data List").SetBlockAt(0, keys))

	buf := new(bytes.Buffer)
	require.NoError(t, Write(0x14010003, 10, buf, []*Block{root}))
	roots, err := Read(0x14010003, 10, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	got := roots[0].ArrayField("Extra Data List").BlockAt(0)
	require.NotNil(t, got)
	key = got.ArrayField("Text Keys").RecordAt(0)
	assert.Equal(t, float32(1.0), key.Float("Time"))
	assert.Equal(t, "hi", key.Str("Value"))
}
