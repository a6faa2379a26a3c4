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

// Package quantization implements the cast stage that narrows accumulator
// values to a layer's output precision.
//
// A Caster is bound to one output [hls.FixedType] at deployment time. The
// type's rounding mode decides how discarded fractional bits are resolved
// and its overflow mode decides what happens to values outside the output
// range:
//
//   - AP_TRN, AP_TRN_ZERO: truncate toward negative infinity or zero
//   - AP_RND, AP_RND_CONV: round to nearest, ties up or to even
//   - AP_WRAP: keep the low-order bits
//   - AP_SAT, AP_SAT_SYM: clamp to the (symmetric) representable range
//
// Casting is total: every accumulator value maps to an output value and
// overflow is never reported as an error. It is counted instead, so a
// deployment can tell how often its output type saturated or wrapped:
//
//	c, _ := quantization.NewCaster(hls.MustParseFixedType("ap_fixed<8,3,AP_RND,AP_SAT>"))
//	y := c.Cast(acc)
//	fmt.Println(c.Stats().Saturations)
//
// # Float parameters
//
// QuantizeFloats converts trained float parameters into a fixed-point type
// with the same rules, reporting how many values overflowed.
package quantization
