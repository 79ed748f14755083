// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package timing

import (
	"time"

	"golang.org/x/sys/unix"
)

// SystemClock reads the wall clock with gettimeofday(2).
func SystemClock() Timeval {
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err != nil {
		now := time.Now()
		return Timeval{Sec: now.Unix(), Usec: int64(now.Nanosecond() / 1000)}
	}
	return Timeval{Sec: int64(tv.Sec), Usec: int64(tv.Usec)}
}
