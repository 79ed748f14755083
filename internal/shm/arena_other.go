// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package shm

import "os"

// Arena is unavailable on this platform.
type Arena struct {
	data []byte
}

// Create always fails with ErrUnsupported.
func Create(name string, n int) (*Arena, error) {
	return nil, ErrUnsupported
}

// Open always fails with ErrUnsupported.
func Open(f *os.File, n int) (*Arena, error) {
	return nil, ErrUnsupported
}

// File returns nil.
func (a *Arena) File() *os.File {
	return nil
}

// Close is a no-op.
func (a *Arena) Close() error {
	return nil
}
