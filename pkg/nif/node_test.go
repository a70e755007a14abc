package nif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorteil/vnif/pkg/nifmath"
)

func TestAddRemoveChild(t *testing.T) {
	root := MustBlock("NiNode")
	a := MustBlock("NiNode")
	b := MustBlock("NiTriShape")

	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))
	assert.Equal(t, int64(2), root.Int("Num Children"))
	assert.Equal(t, []*Block{a, b}, root.Children())

	require.NoError(t, root.RemoveChild(a))
	assert.Equal(t, int64(1), root.Int("Num Children"))
	assert.Equal(t, []*Block{b}, root.Children())

	// removing an absent child is a no-op
	require.NoError(t, root.RemoveChild(a))
	assert.Equal(t, int64(1), root.Int("Num Children"))
}

func TestChildOperationsRejectWrongClass(t *testing.T) {
	shape := MustBlock("NiTriShape")
	node := MustBlock("NiNode")
	assert.ErrorIs(t, shape.AddChild(node), ErrWrongClass)
	assert.ErrorIs(t, shape.RemoveChild(node), ErrWrongClass)
	assert.ErrorIs(t, shape.FlattenTree(), ErrWrongClass)
}

func TestLocalTransformRoundTrip(t *testing.T) {
	node := MustBlock("NiNode")
	want := nifmath.Compose(2.0, nifmath.Identity33(), nifmath.Vector3{X: 1, Y: 2, Z: 3})
	require.NoError(t, node.SetLocalTransform(want))

	assert.Equal(t, float32(2.0), node.Float("Scale"))
	got, err := node.LocalTransform()
	require.NoError(t, err)
	assert.True(t, got.Equals(want))
}

func TestFlattenTree(t *testing.T) {
	root := MustBlock("NiNode")
	root.SetStr("Name", "root")
	a := MustBlock("NiNode")
	a.SetStr("Name", "a")
	a.SetVector3("Translation", nifmath.Vector3{X: 1})
	b := MustBlock("NiNode")
	b.SetStr("Name", "b")
	b.SetVector3("Translation", nifmath.Vector3{Y: 1})
	shape := MustBlock("NiTriShape")
	shape.SetStr("Name", "shape")
	shape.SetVector3("Translation", nifmath.Vector3{Z: 1})

	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(b))
	require.NoError(t, b.AddChild(shape))

	// world positions before flattening
	shapeWorld := nifmath.Vector3{X: 1, Y: 1, Z: 1}
	bWorld := nifmath.Vector3{X: 1, Y: 1}

	require.NoError(t, root.FlattenTree())

	children := root.Children()
	require.Len(t, children, 3)
	assert.Equal(t, a, children[0])
	assert.Equal(t, shape, children[1])
	assert.Equal(t, b, children[2])

	// every reparented block keeps its world transform
	assert.True(t, shape.Vector3("Translation").Equals(shapeWorld))
	assert.True(t, b.Vector3("Translation").Equals(bWorld))
	assert.Empty(t, a.Children())
	assert.Empty(t, b.Children())
}

func TestWorldTransform(t *testing.T) {
	root := MustBlock("NiNode")
	a := MustBlock("NiNode")
	a.SetVector3("Translation", nifmath.Vector3{X: 1})
	shape := MustBlock("NiTriShape")
	shape.SetVector3("Translation", nifmath.Vector3{Z: 1})
	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(shape))

	m, err := shape.WorldTransform(root)
	require.NoError(t, err)
	assert.True(t, m.Translation().Equals(nifmath.Vector3{X: 1, Z: 1}))

	self, err := root.WorldTransform(root)
	require.NoError(t, err)
	assert.True(t, self.IsIdentity())

	stranger := MustBlock("NiNode")
	_, err = stranger.WorldTransform(root)
	assert.ErrorIs(t, err, ErrWrongClass)
}

func TestFlattenTreeDetectsCycle(t *testing.T) {
	root := MustBlock("NiNode")
	a := MustBlock("NiNode")
	a.SetStr("Name", "ouroboros")
	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(a))

	assert.ErrorIs(t, root.FlattenTree(), ErrCycle)
}
