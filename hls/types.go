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

// Package hls provides the numeric and configuration core for compiling a
// dense layer into a resource-scheduled streaming kernel.
//
// Every intermediate value of a kernel is a [Fixed]: a two's complement
// integer scaled by a power of two, whose [FixedType] fixes the bit width,
// the position of the binary point, and the rounding and overflow rules used
// whenever a value is converted into it.
//
// Basic usage:
//
//	import "github.com/ajroetker/go-hlsdense/hls"
//
//	t := hls.NewFixedType(16, 6) // ap_fixed<16,6>
//	x := hls.FromFloat(t, 1.25)
//	acc := hls.NewFixedType(24, 12)
//	y := x.Mul(x, acc)          // exact product, rounded into acc
//	fmt.Println(y.Float64())    // 1.5625
package hls

import (
	"fmt"
	"math"
)

// MaxWidth is the widest FixedType supported. Sums of two values of any
// valid type fit an int64 exactly.
const MaxWidth = 62

// MaxOperandWidth is the widest multiplier operand (one less for unsigned
// types). The product of two operands is computed exactly in an int64.
const MaxOperandWidth = 32

// RoundingMode selects how low-order bits are discarded when a value is
// converted into a type with fewer fractional bits.
type RoundingMode int

const (
	// Truncate discards bits, rounding toward negative infinity (AP_TRN).
	Truncate RoundingMode = iota

	// TruncateZero rounds toward zero (AP_TRN_ZERO).
	TruncateZero

	// RoundHalfUp rounds to nearest, ties toward positive infinity (AP_RND).
	RoundHalfUp

	// RoundConvergent rounds to nearest, ties to even (AP_RND_CONV).
	RoundConvergent
)

// String returns the HLS name of the rounding mode.
func (r RoundingMode) String() string {
	switch r {
	case Truncate:
		return "AP_TRN"
	case TruncateZero:
		return "AP_TRN_ZERO"
	case RoundHalfUp:
		return "AP_RND"
	case RoundConvergent:
		return "AP_RND_CONV"
	default:
		return "unknown"
	}
}

// OverflowMode selects what happens when a converted value does not fit the
// target width.
type OverflowMode int

const (
	// Wrap keeps the low Width bits (AP_WRAP).
	Wrap OverflowMode = iota

	// Saturate clamps to the representable range (AP_SAT).
	Saturate

	// SaturateSymmetric clamps to [-max, max] for signed types, so the most
	// negative code is never produced (AP_SAT_SYM).
	SaturateSymmetric
)

// String returns the HLS name of the overflow mode.
func (o OverflowMode) String() string {
	switch o {
	case Wrap:
		return "AP_WRAP"
	case Saturate:
		return "AP_SAT"
	case SaturateSymmetric:
		return "AP_SAT_SYM"
	default:
		return "unknown"
	}
}

// FixedType describes a fixed-point format in the style of ap_fixed<W,I>:
// Width total bits, of which Integer are to the left of the binary point.
// Integer may be negative or exceed Width.
type FixedType struct {
	Width    int
	Integer  int
	Signed   bool
	Rounding RoundingMode
	Overflow OverflowMode
}

// NewFixedType returns a signed ap_fixed<width,integer> with the HLS default
// modes (Truncate, Wrap).
func NewFixedType(width, integer int) FixedType {
	return FixedType{Width: width, Integer: integer, Signed: true}
}

// NewUFixedType returns an unsigned ap_ufixed<width,integer>.
func NewUFixedType(width, integer int) FixedType {
	return FixedType{Width: width, Integer: integer}
}

// NewIntType returns a signed ap_int<width>.
func NewIntType(width int) FixedType {
	return FixedType{Width: width, Integer: width, Signed: true}
}

// NewUIntType returns an unsigned ap_uint<width>.
func NewUIntType(width int) FixedType {
	return FixedType{Width: width, Integer: width}
}

// With returns t with the given rounding and overflow modes.
func (t FixedType) With(r RoundingMode, o OverflowMode) FixedType {
	t.Rounding = r
	t.Overflow = o
	return t
}

// Frac returns the number of fractional bits.
func (t FixedType) Frac() int {
	return t.Width - t.Integer
}

// Validate reports whether t is a usable format.
func (t FixedType) Validate() error {
	if t.Width < 1 || t.Width > MaxWidth {
		return fmt.Errorf("width %d out of range [1, %d]", t.Width, MaxWidth)
	}
	if f := t.Frac(); f < -MaxWidth || f > MaxWidth {
		return fmt.Errorf("fractional bits %d out of range [%d, %d]", f, -MaxWidth, MaxWidth)
	}
	if t.Rounding < Truncate || t.Rounding > RoundConvergent {
		return fmt.Errorf("unknown rounding mode %d", int(t.Rounding))
	}
	if t.Overflow < Wrap || t.Overflow > SaturateSymmetric {
		return fmt.Errorf("unknown overflow mode %d", int(t.Overflow))
	}
	return nil
}

// ValidateOperand is Validate for a multiplier operand type, which must also
// fit MaxOperandWidth.
func (t FixedType) ValidateOperand() error {
	if err := t.Validate(); err != nil {
		return err
	}
	if limit := t.magnitudeBits(); limit > MaxOperandWidth-1 {
		return fmt.Errorf("operand width %d exceeds %d bits (%d unsigned)", t.Width, MaxOperandWidth, MaxOperandWidth-1)
	}
	return nil
}

// magnitudeBits returns m such that every raw code of t has |raw| <= 2^m.
func (t FixedType) magnitudeBits() int {
	if t.Signed {
		return t.Width - 1
	}
	return t.Width
}

// MinRaw returns the smallest raw code of t.
func (t FixedType) MinRaw() int64 {
	if !t.Signed {
		return 0
	}
	return -(int64(1) << (t.Width - 1))
}

// MaxRaw returns the largest raw code of t.
func (t FixedType) MaxRaw() int64 {
	if !t.Signed {
		return int64(1)<<t.Width - 1
	}
	return int64(1)<<(t.Width-1) - 1
}

// Min returns the smallest representable value of t.
func (t FixedType) Min() float64 {
	return math.Ldexp(float64(t.MinRaw()), -t.Frac())
}

// Max returns the largest representable value of t.
func (t FixedType) Max() float64 {
	return math.Ldexp(float64(t.MaxRaw()), -t.Frac())
}

// LSB returns the value of one unit in the last place.
func (t FixedType) LSB() float64 {
	return math.Ldexp(1, -t.Frac())
}

// ByteAligned returns t widened to the next multiple of 8 bits. The integer
// bits and modes are unchanged, so the added bits are fractional. Stream
// buses carry byte-aligned elements.
func (t FixedType) ByteAligned() FixedType {
	t.Width = (t.Width + 7) / 8 * 8
	return t
}

// satBounds returns the raw range a saturating conversion clamps to.
func (t FixedType) satBounds() (lo, hi int64) {
	lo, hi = t.MinRaw(), t.MaxRaw()
	if t.Overflow == SaturateSymmetric && t.Signed {
		lo = -hi
	}
	return lo, hi
}
