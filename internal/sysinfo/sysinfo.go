// Copyright 2025 go-matbench Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sysinfo describes the host a benchmark ran on, so results from
// different machines can be told apart.
package sysinfo

import (
	"fmt"
	"io"
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Host is a snapshot of the machine and Go runtime.
type Host struct {
	OS           string   `json:"os"`
	Arch         string   `json:"arch"`
	NumCPU       int      `json:"num_cpu"`
	GOMAXPROCS   int      `json:"gomaxprocs"`
	GoVersion    string   `json:"go_version"`
	CacheLinePad int      `json:"cache_line_pad"`
	Features     []string `json:"features"`
}

// Detect reads the current host.
func Detect() Host {
	return Host{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		GOMAXPROCS:   runtime.GOMAXPROCS(0),
		GoVersion:    runtime.Version(),
		CacheLinePad: cacheLinePad(),
		Features:     features(),
	}
}

func cacheLinePad() int {
	return int(unsafe.Sizeof(cpu.CacheLinePad{}))
}

// features lists the floating point and vector extensions x/sys/cpu
// reports for the current architecture.
func features() []string {
	var out []string
	add := func(name string, ok bool) {
		if ok {
			out = append(out, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add("sse2", cpu.X86.HasSSE2)
		add("sse41", cpu.X86.HasSSE41)
		add("avx", cpu.X86.HasAVX)
		add("avx2", cpu.X86.HasAVX2)
		add("fma", cpu.X86.HasFMA)
		add("avx512f", cpu.X86.HasAVX512F)
	case "arm64":
		add("fp", cpu.ARM64.HasFP)
		add("asimd", cpu.ARM64.HasASIMD)
		add("asimdhp", cpu.ARM64.HasASIMDHP)
		add("sve", cpu.ARM64.HasSVE)
		add("sve2", cpu.ARM64.HasSVE2)
	}
	return out
}

// Fprint writes a human-readable summary.
func (h Host) Fprint(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"GOOS: %s\nGOARCH: %s\nNumCPU: %d\nGOMAXPROCS: %d\nGo: %s\nCache line pad: %d bytes\nFeatures: %v\n",
		h.OS, h.Arch, h.NumCPU, h.GOMAXPROCS, h.GoVersion, h.CacheLinePad, h.Features)
	return err
}
