package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "errors"

var (
	// ErrCorrupt is the base error for malformed input: bad
	// separators, oversized strings, size mismatches, residual bytes,
	// or an unbalanced link stack.
	ErrCorrupt = errors.New("corrupt nif file")

	// ErrUnknownBlockType is returned when a block type string has no
	// class in the loaded schema.
	ErrUnknownBlockType = errors.New("unknown block type")

	// ErrTypeMismatch is returned when a resolved reference does not
	// match the class captured by the field's template.
	ErrTypeMismatch = errors.New("reference type mismatch")

	// ErrStringTooLong guards the 10000-byte cap on length-prefixed
	// strings.
	ErrStringTooLong = errors.New("string too long")

	// ErrUnsupportedEndian is returned for files whose header declares
	// big-endian block payloads.
	ErrUnsupportedEndian = errors.New("big-endian files are not supported")

	// ErrWrongClass is returned by block behaviors invoked on a block
	// of an unsuitable class.
	ErrWrongClass = errors.New("operation not valid for this block class")

	// ErrCycle is returned when a scene-graph walk discovers a node
	// that is its own ancestor.
	ErrCycle = errors.New("node is its own ancestor")
)
