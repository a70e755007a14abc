package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
)

// nif files by extension; .kf and .kfa hold keyframes, .nifcache is
// the Empire Earth II flavor
var reNifExtension = regexp.MustCompile(`(?i)\.(nif|kf|kfa|nifcache)$`)

// ErrSkip can be returned from a walk callback to stop the walk early
// without reporting an error.
var ErrSkip = errors.New("skip")

// WalkedFile is one successfully read file yielded by WalkFile.
type WalkedFile struct {
	Path        string
	Version     uint32
	UserVersion uint32
	// File is open and positioned after the graph; it is closed when
	// the callback returns.
	File  *os.File
	Roots []*Block
}

// WalkFunc receives each readable file's root blocks.
type WalkFunc func(path string, roots []*Block) error

// WalkFileFunc receives each readable file with its version pair and
// still-open handle.
type WalkFileFunc func(wf *WalkedFile) error

// WalkOptions tune a walk. The zero value walks silently and skips
// unreadable files.
type WalkOptions struct {
	// OnError is called when a file with a recognized header fails to
	// read; returning a non-nil error aborts the walk. Nil means
	// unreadable files are skipped.
	OnError func(path string, err error) error
}

// Walk calls fn with the roots of every nif file under top, which may
// be a single file or a directory tree. Files that are not nif files,
// or whose version is unsupported, are skipped.
func (f *Format) Walk(top string, fn WalkFunc, opts ...WalkOptions) error {
	return f.WalkFile(top, func(wf *WalkedFile) error {
		return fn(wf.Path, wf.Roots)
	}, opts...)
}

// WalkFile is Walk with access to the version pair and the open file
// handle.
func (f *Format) WalkFile(top string, fn WalkFileFunc, opts ...WalkOptions) error {
	var opt WalkOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	err := filepath.Walk(top, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// unreadable directory entries are skipped, like files
			// that fail to parse
			return nil
		}
		if info.IsDir() || !reNifExtension.MatchString(path) {
			return nil
		}
		return f.walkOne(path, fn, opt)
	})
	if errors.Is(err, ErrSkip) {
		return nil
	}
	return err
}

func (f *Format) walkOne(path string, fn WalkFileFunc, opt WalkOptions) error {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	ver, userVersion := f.GetVersion(file)
	if ver < 0 {
		// not a nif file, or a version outside the schema; keep
		// walking either way
		return nil
	}
	version := uint32(ver)

	roots, err := f.Read(version, userVersion, file)
	if err != nil {
		if opt.OnError != nil {
			return opt.OnError(path, err)
		}
		return nil
	}
	return fn(&WalkedFile{
		Path:        path,
		Version:     version,
		UserVersion: userVersion,
		File:        file,
		Roots:       roots,
	})
}

// Walk runs the default format's walker.
func Walk(top string, fn WalkFunc, opts ...WalkOptions) error {
	return Default().Walk(top, fn, opts...)
}

// WalkFile runs the default format's file walker.
func WalkFile(top string, fn WalkFileFunc, opts ...WalkOptions) error {
	return Default().WalkFile(top, fn, opts...)
}
