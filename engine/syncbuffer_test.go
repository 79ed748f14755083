// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"sync"
)

// syncBuffer collects output from several child-process copy goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
