// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

// Package shm provides a float64 arena backed by a shared memory mapping.
//
// A parent creates the arena, hands File() to child processes through
// exec.Cmd.ExtraFiles, and every process that maps it with Open sees the same
// pages. Writes made by a child are visible to the parent once the child has
// exited and been waited for.
package shm

import (
	"errors"
	"unsafe"
)

var (
	// ErrEmpty is returned when an arena of zero elements is requested.
	ErrEmpty = errors.New("shm: arena size must be positive")

	// ErrUnsupported is returned on platforms without shared file mappings.
	ErrUnsupported = errors.New("shm: shared memory arenas are not supported on this platform")
)

const float64Size = int(unsafe.Sizeof(float64(0)))

// Bytes returns the mapping size for n float64 elements.
func Bytes(n int) int {
	return n * float64Size
}

// Float64s returns n elements starting at element offset as a []float64 that
// aliases the shared mapping. It panics if the window is out of range, the
// same way slicing would.
func (a *Arena) Float64s(offset, n int) []float64 {
	if offset < 0 || n < 0 || offset+n > a.Len() {
		panic("shm: Float64s window out of range")
	}
	if n == 0 {
		return nil
	}
	base := unsafe.Pointer(&a.data[offset*float64Size])
	return unsafe.Slice((*float64)(base), n)
}

// Len returns the arena size in float64 elements.
func (a *Arena) Len() int {
	return len(a.data) / float64Size
}
