// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package shm

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Arena is a MAP_SHARED mapping of an anonymous file.
type Arena struct {
	f    *os.File
	data []byte
}

// Create allocates a zeroed arena of n float64 elements.
func Create(name string, n int) (*Arena, error) {
	if n <= 0 {
		return nil, ErrEmpty
	}
	f, err := anonymousFile(name)
	if err != nil {
		return nil, fmt.Errorf("shm: creating backing file: %w", err)
	}
	if err := unix.Ftruncate(int(f.Fd()), int64(Bytes(n))); err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: sizing backing file: %w", err)
	}
	a, err := mapFile(f, n)
	if err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

// Open maps an arena of n elements from a file inherited from the creator.
// The arena takes ownership of f.
func Open(f *os.File, n int) (*Arena, error) {
	if n <= 0 {
		return nil, ErrEmpty
	}
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return nil, fmt.Errorf("shm: stat inherited file: %w", err)
	}
	if st.Size < int64(Bytes(n)) {
		return nil, fmt.Errorf("shm: inherited file holds %d bytes, need %d", st.Size, Bytes(n))
	}
	return mapFile(f, n)
}

func mapFile(f *os.File, n int) (*Arena, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, Bytes(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap: %w", err)
	}
	return &Arena{f: f, data: data}, nil
}

// File returns the backing file to pass to child processes.
func (a *Arena) File() *os.File {
	return a.f
}

// Close unmaps the arena and closes its file. Slices returned by Float64s
// must not be used afterwards.
func (a *Arena) Close() error {
	var errs []error
	if a.data != nil {
		errs = append(errs, unix.Munmap(a.data))
		a.data = nil
	}
	if a.f != nil {
		errs = append(errs, a.f.Close())
		a.f = nil
	}
	return errors.Join(errs...)
}
