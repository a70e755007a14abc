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

	"github.com/vorteil/vnif/pkg/nifxml"
)

// Probe results for streams that cannot be read. All other versions
// are returned as their packed non-negative value.
const (
	// VersionUnsupported marks a recognized header whose version is
	// not in the schema's supported set.
	VersionUnsupported = -1
	// VersionNotNif marks a stream that is not a nif file at all.
	VersionNotNif = -2
)

const (
	netImmersePrefix = "NetImmerse File Format, Version "
	gamebryoPrefix   = "Gamebryo File Format, Version "
)

// VersionNumber converts a dotted version string into its packed
// 32-bit form, or -1 if the string is malformed.
//
//	VersionNumber("3.14.15.29") == 0x030e0f1d
//	VersionNumber("1.2") == 0x01020000
//	VersionNumber("3.03") == 0x03000300
func VersionNumber(str string) int64 {
	v, err := nifxml.ParseVersion(str)
	if err != nil {
		return -1
	}
	return int64(v)
}

// VersionString renders a packed version the way the header line spells
// it: two components up to 3.1, the "3.03" special case, a dotted quad
// afterwards, prefixed by the NetImmerse or Gamebryo family name.
func VersionString(version uint32) string {
	family := "NetImmerse"
	if version > 0x0A000102 {
		family = "Gamebryo"
	}
	var v string
	switch {
	case version == 0x03000300:
		v = "3.03"
	case version <= 0x03010000:
		v = fmt.Sprintf("%d.%d", version>>24&0xff, version>>16&0xff)
	default:
		v = fmt.Sprintf("%d.%d.%d.%d", version>>24&0xff, version>>16&0xff, version>>8&0xff, version&0xff)
	}
	return fmt.Sprintf("%s File Format, Version %s", family, v)
}

// GetVersion probes the stream for a nif header and returns the packed
// version and user version. The stream position is restored before
// returning. A stream that is not a nif file yields (VersionNotNif, 0);
// a nif file of a version outside the schema's supported set yields
// (VersionUnsupported, 0).
func (f *Format) GetVersion(r io.ReadSeeker) (int64, uint32) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return VersionNotNif, 0
	}
	defer r.Seek(pos, io.SeekStart)

	line, err := readLine(r, 64)
	if err != nil {
		return VersionNotNif, 0
	}
	line = strings.TrimRight(line, "\x0a\x0d")

	var versionStr string
	switch {
	case strings.HasPrefix(line, netImmersePrefix):
		versionStr = line[len(netImmersePrefix):]
	case strings.HasPrefix(line, gamebryoPrefix):
		versionStr = line[len(gamebryoPrefix):]
	default:
		return VersionNotNif, 0
	}

	ver := VersionNumber(versionStr)
	if ver < 0 {
		return VersionUnsupported, 0
	}
	version := uint32(ver)
	if !f.Schema.IsSupported(version) {
		return VersionUnsupported, 0
	}

	var userVersion uint32
	if version >= 0x0303000D {
		// the header line was at most 64 bytes, so re-reading it
		// positions us at the version echo
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return VersionNotNif, 0
		}
		if _, err := readLine(r, 64); err != nil {
			return VersionNotNif, 0
		}
		var echo uint32
		if err := binary.Read(r, binary.LittleEndian, &echo); err != nil {
			return VersionNotNif, 0
		}
		if echo != version {
			return VersionNotNif, 0
		}
		if version >= 0x14000004 {
			var endian [1]byte
			if _, err := io.ReadFull(r, endian[:]); err != nil {
				return VersionNotNif, 0
			}
		}
		if version >= 0x0A010000 {
			if err := binary.Read(r, binary.LittleEndian, &userVersion); err != nil {
				return VersionNotNif, 0
			}
		}
	}
	return int64(version), userVersion
}

// readLine reads bytes up to and including a line feed, giving up
// after max bytes.
func readLine(r io.Reader, max int) (string, error) {
	var sb strings.Builder
	var buf [1]byte
	for i := 0; i < max; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return "", err
		}
		sb.WriteByte(buf[0])
		if buf[0] == 0x0a {
			return sb.String(), nil
		}
	}
	return "", fmt.Errorf("%w: header line exceeds %d bytes", ErrCorrupt, max)
}
