// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package timing

import "time"

// SystemClock reads the wall clock.
func SystemClock() Timeval {
	now := time.Now()
	return Timeval{Sec: now.Unix(), Usec: int64(now.Nanosecond() / 1000)}
}
