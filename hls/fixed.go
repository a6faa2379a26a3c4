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
	"math"
	"strconv"
)

// floatLimit bounds scaled floats before conversion to a raw code.
const floatLimit = 1 << 62

// Fixed is a fixed-point value: Raw()·2^-Type().Frac().
//
// Fixed values are immutable. The only ways to change type are the explicit
// conversions Convert and ConvertOverflow, and the arithmetic methods that
// name their result type.
type Fixed struct {
	raw int64
	typ FixedType
}

// Zero returns the zero value of type t.
func Zero(t FixedType) Fixed {
	return Fixed{typ: t}
}

// FromRaw returns the value whose raw code is raw, resolved into t's range
// by t's overflow mode.
func FromRaw(t FixedType, raw int64) Fixed {
	v, _ := fit(raw, t)
	return Fixed{raw: v, typ: t}
}

// FromInt converts the integer v into t.
func FromInt(t FixedType, v int64) Fixed {
	raw, _ := resolve(v, 0, t)
	return Fixed{raw: raw, typ: t}
}

// FromFloat converts f into t using t's rounding and overflow modes.
// NaN converts to zero. Infinities and magnitudes beyond 2^62 LSBs are
// clamped to ±2^62 LSBs before the overflow mode is applied.
func FromFloat(t FixedType, f float64) Fixed {
	x, _ := FromFloatOverflow(t, f)
	return x
}

// FromFloatOverflow is FromFloat that also reports whether the rounded
// value fell outside t's range.
func FromFloatOverflow(t FixedType, f float64) (Fixed, bool) {
	if math.IsNaN(f) {
		return Zero(t), false
	}
	scaled := math.Ldexp(f, t.Frac())
	switch t.Rounding {
	case TruncateZero:
		scaled = math.Trunc(scaled)
	case RoundHalfUp:
		scaled = math.Floor(scaled + 0.5)
	case RoundConvergent:
		scaled = math.RoundToEven(scaled)
	default:
		scaled = math.Floor(scaled)
	}
	scaled = math.Max(-floatLimit, math.Min(floatLimit, scaled))
	raw, over := fit(int64(scaled), t)
	return Fixed{raw: raw, typ: t}, over
}

// FromFloats converts every element of values into t.
func FromFloats(t FixedType, values []float64) []Fixed {
	out := make([]Fixed, len(values))
	for i, f := range values {
		out[i] = FromFloat(t, f)
	}
	return out
}

// Raw returns the two's complement code of x.
func (x Fixed) Raw() int64 {
	return x.raw
}

// Type returns the format of x.
func (x Fixed) Type() FixedType {
	return x.typ
}

// Float64 returns the exact value of x.
func (x Fixed) Float64() float64 {
	return math.Ldexp(float64(x.raw), -x.typ.Frac())
}

// IsZero reports whether x is exactly zero.
func (x Fixed) IsZero() bool {
	return x.raw == 0
}

// String formats the value of x.
func (x Fixed) String() string {
	return strconv.FormatFloat(x.Float64(), 'g', -1, 64)
}

// Format implements fmt.Formatter so that %v prints the value and %+v
// appends the type.
func (x Fixed) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		fmt.Fprintf(s, "%s:%s", x.String(), x.typ)
	case verb == 'd':
		fmt.Fprintf(s, "%d", x.raw)
	default:
		fmt.Fprint(s, x.String())
	}
}

// Convert returns x converted into to.
func (x Fixed) Convert(to FixedType) Fixed {
	y, _ := x.ConvertOverflow(to)
	return y
}

// ConvertOverflow returns x converted into to and reports whether the
// conversion overflowed. Overflow is always resolved by to's overflow mode.
func (x Fixed) ConvertOverflow(to FixedType) (Fixed, bool) {
	raw, over := resolve(x.raw, x.typ.Frac(), to)
	return Fixed{raw: raw, typ: to}, over
}

// Mul returns the exact product x·y converted into to. The operands must
// be narrow enough for the product to fit an int64, which holds for any two
// types accepted by ValidateOperand; Mul panics otherwise.
func (x Fixed) Mul(y Fixed, to FixedType) Fixed {
	p, _ := x.MulOverflow(y, to)
	return p
}

// MulOverflow is Mul that also reports overflow of the conversion into to.
func (x Fixed) MulOverflow(y Fixed, to FixedType) (Fixed, bool) {
	if x.typ.magnitudeBits()+y.typ.magnitudeBits() > 2*(MaxOperandWidth-1) {
		panic(fmt.Sprintf("hls: Mul of %s and %s exceeds the exact product range", x.typ, y.typ))
	}
	raw, over := resolve(x.raw*y.raw, x.typ.Frac()+y.typ.Frac(), to)
	return Fixed{raw: raw, typ: to}, over
}

// Add returns x+y in x's type. Both operands must share a type; convert
// first when they do not.
func (x Fixed) Add(y Fixed) Fixed {
	s, _ := x.AddOverflow(y)
	return s
}

// AddOverflow is Add that also reports overflow.
func (x Fixed) AddOverflow(y Fixed) (Fixed, bool) {
	if x.typ != y.typ {
		panic(fmt.Sprintf("hls: Add of mismatched types %s and %s", x.typ, y.typ))
	}
	raw, over := fit(x.raw+y.raw, x.typ)
	return Fixed{raw: raw, typ: x.typ}, over
}

// Equal reports whether x and y have the same type and raw code.
func (x Fixed) Equal(y Fixed) bool {
	return x == y
}
