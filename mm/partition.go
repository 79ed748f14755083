// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package mm

import (
	"fmt"
	"strings"
)

// WorkRange is the half-open row interval [Start, End) owned by one worker.
type WorkRange struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r WorkRange) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range holds no rows. Workers with an empty range
// are still spawned and joined; their kernel call is a no-op.
func (r WorkRange) Empty() bool {
	return r.End <= r.Start
}

func (r WorkRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Policy selects how rows left over by d/w are handled.
type Policy int

const (
	// RemainderToLast gives every worker d/w rows and the last one the rest,
	// so the ranges always cover [0, d).
	RemainderToLast Policy = iota

	// DropRemainder gives every worker exactly d/w rows. Rows [w*(d/w), d)
	// are never assigned and stay untouched in the output. This is how the
	// pthreads variant of the benchmark split its work; it is kept only to
	// compare against it.
	DropRemainder
)

// String returns the policy name accepted by ParsePolicy.
func (p Policy) String() string {
	switch p {
	case RemainderToLast:
		return "remainder-to-last"
	case DropRemainder:
		return "drop-remainder"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a name back to its Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remainder-to-last", "last":
		return RemainderToLast, nil
	case "drop-remainder", "drop":
		return DropRemainder, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Partition splits d rows across w workers using RemainderToLast.
func Partition(d, w int) ([]WorkRange, error) {
	return RemainderToLast.Partition(d, w)
}

// Partition returns exactly w contiguous, non-overlapping ranges in worker
// order. With w > d the base size is zero, so every range but (possibly) the
// last is empty.
func (p Policy) Partition(d, w int) ([]WorkRange, error) {
	if err := CheckConfig(d, w); err != nil {
		return nil, err
	}
	if p != RemainderToLast && p != DropRemainder {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(p))
	}

	base := d / w
	ranges := make([]WorkRange, w)
	for i := range w {
		start := i * base
		end := start + base
		if i == w-1 && p == RemainderToLast {
			end = d
		}
		ranges[i] = WorkRange{Start: start, End: end}
	}
	return ranges, nil
}

// DroppedRows returns how many rows p leaves unassigned for (d, w).
// It is always zero for RemainderToLast.
func (p Policy) DroppedRows(d, w int) int {
	if p != DropRemainder || d <= 0 || w <= 0 {
		return 0
	}
	return d - (d/w)*w
}
