package nif

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSceneFile(t *testing.T, path, name string) {
	t.Helper()
	root := MustBlock("NiNode")
	root.SetStr("Name", name)
	buf := new(bytes.Buffer)
	require.NoError(t, Write(0x14010003, 10, buf, []*Block{root}))
	require.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0644))
}

func TestWalk(t *testing.T) {
	dir, err := ioutil.TempDir("", "niftest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	writeSceneFile(t, filepath.Join(dir, "a.nif"), "a")
	writeSceneFile(t, filepath.Join(dir, "b.KF"), "b")
	// not nif files: wrong extension, and wrong content
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "c.txt"), []byte("hello"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "d.nif"), []byte("invalid"), 0644))

	var names []string
	err = Walk(dir, func(path string, roots []*Block) error {
		require.Len(t, roots, 1)
		names = append(names, roots[0].Str("Name"))
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestWalkSingleFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "niftest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "one.nif")
	writeSceneFile(t, path, "one")

	count := 0
	err = WalkFile(path, func(wf *WalkedFile) error {
		count++
		assert.Equal(t, uint32(0x14010003), wf.Version)
		assert.Equal(t, uint32(10), wf.UserVersion)
		assert.Equal(t, path, wf.Path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWalkReportsReadErrors(t *testing.T) {
	dir, err := ioutil.TempDir("", "niftest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "trunc.nif")
	writeSceneFile(t, path, "trunc")
	raw, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, ioutil.WriteFile(path, raw[:len(raw)-4], 0644))

	var failed []string
	err = Walk(dir, func(path string, roots []*Block) error {
		t.Fatalf("unexpected successful read of %s", path)
		return nil
	}, WalkOptions{
		OnError: func(path string, err error) error {
			assert.ErrorIs(t, err, ErrCorrupt)
			failed = append(failed, path)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, failed)
}

func TestWalkStopsOnSkip(t *testing.T) {
	dir, err := ioutil.TempDir("", "niftest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	writeSceneFile(t, filepath.Join(dir, "a.nif"), "a")
	writeSceneFile(t, filepath.Join(dir, "b.nif"), "b")

	count := 0
	err = Walk(dir, func(path string, roots []*Block) error {
		count++
		return ErrSkip
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
