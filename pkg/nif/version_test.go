package nif

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionNumber(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"3.14.15.29", 0x030e0f1d},
		{"1.2", 0x01020000},
		{"3.03", 0x03000300},
		{"20.1.0.3", 0x14010003},
		{"10.0.1.3a", -1},
		{"", -1},
		{"1.2.3.4.5", -1},
		{"256.1", -1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, VersionNumber(c.in), c.in)
	}
}

func TestNameAttribute(t *testing.T) {
	assert.Equal(t, "thisIsASillyName", NameAttribute("tHis is A Silly naME"))
	assert.Equal(t, "numChildren", NameAttribute("Num Children"))
	assert.Equal(t, "hasUv", NameAttribute("Has UV"))
	assert.Equal(t, "useAbv", NameAttribute("Use ABV"))
	assert.Equal(t, "unknownX", NameAttribute("Unknown ?"))
}

func TestVersionString(t *testing.T) {
	cases := []struct {
		version uint32
		want    string
	}{
		{0x03000300, "NetImmerse File Format, Version 3.03"},
		{0x03010000, "NetImmerse File Format, Version 3.1"},
		{0x0A000100, "NetImmerse File Format, Version 10.0.1.0"},
		{0x0A010000, "Gamebryo File Format, Version 10.1.0.0"},
		{0x14010003, "Gamebryo File Format, Version 20.1.0.3"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, VersionString(c.version))
	}
}

func TestGetVersionNotNif(t *testing.T) {
	ver, userVersion := GetVersion(bytes.NewReader([]byte("invalid")))
	assert.Equal(t, int64(VersionNotNif), ver)
	assert.Equal(t, uint32(0), userVersion)
}

func TestGetVersionUnsupported(t *testing.T) {
	header := []byte("NetImmerse File Format, Version 99.99.99.99\x0a")
	ver, userVersion := GetVersion(bytes.NewReader(header))
	assert.Equal(t, int64(VersionUnsupported), ver)
	assert.Equal(t, uint32(0), userVersion)
}

func TestGetVersionRestoresPosition(t *testing.T) {
	buf := new(bytes.Buffer)
	root := MustBlock("NiNode")
	root.SetStr("Name", "Scene Root")
	assert.NoError(t, Write(0x14010003, 10, buf, []*Block{root}))

	r := bytes.NewReader(buf.Bytes())
	ver, userVersion := GetVersion(r)
	assert.Equal(t, int64(0x14010003), ver)
	assert.Equal(t, uint32(10), userVersion)

	// the probe must leave the stream where it found it
	pos, err := r.Seek(0, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	// probing twice agrees
	ver2, uv2 := GetVersion(r)
	assert.Equal(t, ver, ver2)
	assert.Equal(t, userVersion, uv2)
}

func TestGetVersionOldFormats(t *testing.T) {
	// version 4.0.0.2 has a version echo but no user version
	buf := new(bytes.Buffer)
	root := MustBlock("NiNode")
	assert.NoError(t, Write(0x04000002, 0, buf, []*Block{root}))

	ver, userVersion := GetVersion(bytes.NewReader(buf.Bytes()))
	assert.Equal(t, int64(0x04000002), ver)
	assert.Equal(t, uint32(0), userVersion)
}
