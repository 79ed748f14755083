// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package shm

import (
	"os"

	"golang.org/x/sys/unix"
)

// anonymousFile returns a memfd; it has no path and disappears with its last
// descriptor.
func anonymousFile(name string) (*os.File, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), "memfd:"+name), nil
}
