// Copyright 2025 go-hlsdense Authors
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

package hls

import (
	"os"
	"strconv"
)

// DispatchLevel represents the host vector capability the software
// emulation of a kernel is tuned for.
type DispatchLevel int

const (
	// DispatchScalar indicates no vector unit is assumed.
	DispatchScalar DispatchLevel = iota

	// DispatchAVX2 indicates AVX2 (256-bit).
	DispatchAVX2

	// DispatchAVX512 indicates AVX-512 (512-bit).
	DispatchAVX512

	// DispatchNEON indicates ARM NEON (128-bit).
	DispatchNEON

	// DispatchSVE indicates ARM SVE.
	DispatchSVE
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	case DispatchSVE:
		return "sve"
	default:
		return "unknown"
	}
}

// Set by init() in dispatch_*.go files.
var (
	currentLevel DispatchLevel
	currentWidth int
)

// CurrentLevel returns the detected host level.
func CurrentLevel() DispatchLevel {
	return currentLevel
}

// CurrentWidth returns the host vector register width in bytes.
func CurrentWidth() int {
	return currentWidth
}

// Lanes returns how many raw fixed-point codes fit one host vector register.
// The emulator uses it as the smallest batch of products handed to one
// processing element.
func Lanes() int {
	return max(currentWidth/8, 1)
}

// NoSimdEnv checks if the HLS_NO_SIMD environment variable is set.
// When set, the emulator assumes a scalar host regardless of CPU
// capabilities. This is useful for testing and debugging.
func NoSimdEnv() bool {
	val := os.Getenv("HLS_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

func setScalarMode() {
	currentLevel = DispatchScalar
	currentWidth = 16 // 16-byte batches even in scalar mode for consistency
}
