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
	"fmt"
	"strings"
)

// IOMode selects how a layer's ports are scheduled.
type IOMode int

const (
	// IOParallel admits a whole input vector per initiation.
	IOParallel IOMode = iota

	// IOSerial multiplexes the product loop column by column.
	IOSerial
)

// String returns the HLS name of the mode.
func (m IOMode) String() string {
	switch m {
	case IOParallel:
		return "io_parallel"
	case IOSerial:
		return "io_serial"
	default:
		return "unknown"
	}
}

// ParseIOMode accepts "io_parallel", "io_serial", "parallel" and "serial".
func ParseIOMode(s string) (IOMode, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "io_")) {
	case "parallel", "":
		return IOParallel, nil
	case "serial":
		return IOSerial, nil
	default:
		return 0, fmt.Errorf("hls: unknown io mode %q", s)
	}
}

// LayerConfig is the immutable description of one dense layer, supplied
// once at deployment.
type LayerConfig struct {
	NIn         int
	NOut        int
	ReuseFactor int

	// NZeros counts structurally zero weights, 0 <= NZeros <= NIn*NOut.
	NZeros int

	IOMode IOMode

	Input  FixedType
	Weight FixedType
	Bias   FixedType
	Accum  FixedType
	Output FixedType

	// InputPacket and OutputPacket are the element counts per stream
	// transaction. Zero means 1.
	InputPacket  int
	OutputPacket int

	// FIFODepth is the capacity, in packets, of each stream. Zero means one
	// invocation's worth of packets.
	FIFODepth int
}

// WithDefaults returns c with zero-valued optional fields filled in.
func (c LayerConfig) WithDefaults() LayerConfig {
	if c.InputPacket == 0 {
		c.InputPacket = 1
	}
	if c.OutputPacket == 0 {
		c.OutputPacket = 1
	}
	if c.FIFODepth == 0 && c.InputPacket > 0 && c.OutputPacket > 0 {
		c.FIFODepth = max(c.NIn/c.InputPacket, c.NOut/c.OutputPacket, 1)
	}
	return c
}

// Products returns the number of logical products, NIn*NOut.
func (c LayerConfig) Products() int {
	return c.NIn * c.NOut
}

// InputBeats returns the number of input packets per invocation.
func (c LayerConfig) InputBeats() int {
	return c.NIn / max(c.InputPacket, 1)
}

// OutputBeats returns the number of output packets per invocation.
func (c LayerConfig) OutputBeats() int {
	return c.NOut / max(c.OutputPacket, 1)
}

// Validate checks every invariant of c after defaults are applied. The
// returned error wraps ErrConfig.
func (c LayerConfig) Validate() error {
	c = c.WithDefaults()
	if c.NIn <= 0 {
		return ConfigErrorf("n_in", "must be positive, got %d", c.NIn)
	}
	if c.NOut <= 0 {
		return ConfigErrorf("n_out", "must be positive, got %d", c.NOut)
	}
	if c.ReuseFactor <= 0 || c.ReuseFactor > c.Products() {
		return ConfigErrorf("reuse_factor", "must be in [1, %d], got %d", c.Products(), c.ReuseFactor)
	}
	if c.NZeros < 0 || c.NZeros > c.Products() {
		return ConfigErrorf("n_zeros", "must be in [0, %d], got %d", c.Products(), c.NZeros)
	}
	if c.IOMode != IOParallel && c.IOMode != IOSerial {
		return ConfigErrorf("io_type", "unknown mode %d", int(c.IOMode))
	}
	// Input and weight feed the multipliers; the other domains only add and
	// convert, so they may be up to MaxWidth bits.
	types := []struct {
		field    string
		t        FixedType
		validate func(FixedType) error
	}{
		{"input_t", c.Input, FixedType.ValidateOperand},
		{"weight_t", c.Weight, FixedType.ValidateOperand},
		{"bias_t", c.Bias, FixedType.Validate},
		{"accum_t", c.Accum, FixedType.Validate},
		{"result_t", c.Output, FixedType.Validate},
	}
	for _, ft := range types {
		if err := ft.validate(ft.t); err != nil {
			return ConfigErrorf(ft.field, "%v", err)
		}
	}
	if c.InputPacket < 0 || c.NIn%c.InputPacket != 0 {
		return ConfigErrorf("input_packet", "packet size %d does not divide n_in=%d", c.InputPacket, c.NIn)
	}
	if c.OutputPacket < 0 || c.NOut%c.OutputPacket != 0 {
		return ConfigErrorf("output_packet", "packet size %d does not divide n_out=%d", c.OutputPacket, c.NOut)
	}
	if c.FIFODepth < 1 {
		return ConfigErrorf("fifo_depth", "must be positive, got %d", c.FIFODepth)
	}
	return nil
}
