// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package mm

import "errors"

// Configuration errors are detected before any worker starts. Resource errors
// (ErrSpawn) abort the whole run. Callers match them with errors.Is; the
// engines wrap them with context.
var (
	// ErrInvalidDimension is returned when the matrix dimension is not positive.
	ErrInvalidDimension = errors.New("mm: dimension must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("mm: worker count must be positive")

	// ErrShortBuffer is returned when an operand holds fewer than d*d values.
	ErrShortBuffer = errors.New("mm: matrix buffer shorter than d*d")

	// ErrSpawn is returned when a worker could not be started.
	ErrSpawn = errors.New("mm: failed to spawn worker")

	// ErrUnknownKernel is returned by ParseKernel for an unrecognized name.
	ErrUnknownKernel = errors.New("mm: unknown kernel")

	// ErrUnknownPolicy is returned by ParsePolicy for an unrecognized name.
	ErrUnknownPolicy = errors.New("mm: unknown partition policy")
)

// CheckConfig validates a (d, w) pair. It is the first thing every engine
// calls, so a bad configuration never reaches the spawn step.
func CheckConfig(d, w int) error {
	if d <= 0 {
		return ErrInvalidDimension
	}
	if w <= 0 {
		return ErrInvalidWorkers
	}
	return nil
}

// CheckOperands verifies that every buffer can hold a d×d matrix.
func CheckOperands(d int, ms ...[]float64) error {
	n := d * d
	for _, m := range ms {
		if len(m) < n {
			return ErrShortBuffer
		}
	}
	return nil
}
