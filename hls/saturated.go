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

// This file provides the rounding and overflow resolution shared by every
// conversion into a FixedType. Saturating modes clamp results to the type's
// valid range instead of wrapping.

// resolve converts the exact value raw·2^-frac into t, applying t's rounding
// mode to discarded low bits and t's overflow mode to the result. It is
// defined for every int64 raw and every frac, and reports whether the
// rounded value fell outside t's range.
func resolve(raw int64, frac int, t FixedType) (int64, bool) {
	shift := t.Frac() - frac
	if shift >= 0 {
		return shiftLeft(raw, shift, t)
	}
	return fit(roundShift(raw, -shift, t.Rounding), t)
}

// shiftLeft scales raw up by 2^shift without ever overflowing the int64
// intermediate: out-of-range values are detected before the shift.
func shiftLeft(raw int64, shift int, t FixedType) (int64, bool) {
	if raw == 0 {
		return 0, false
	}
	lo, hi := t.MinRaw(), t.MaxRaw()
	if t.Overflow == SaturateSymmetric {
		lo, hi = t.satBounds()
	}
	if shift < 63 && raw <= hi>>shift && raw >= -((-lo)>>shift) {
		return raw << shift, false
	}
	switch t.Overflow {
	case Saturate, SaturateSymmetric:
		slo, shi := t.satBounds()
		if raw < 0 {
			return slo, true
		}
		return shi, true
	default:
		// The low 64 bits of the shifted value are exact, and Width < 64.
		var shifted int64
		if shift < 64 {
			shifted = int64(uint64(raw) << shift)
		}
		return wrapBits(shifted, t.Width, t.Signed), true
	}
}

// roundShift divides raw by 2^n (n >= 1) using mode r.
func roundShift(raw int64, n int, r RoundingMode) int64 {
	if n >= 64 {
		// |raw| <= 2^62 for every value the package produces, so the
		// quotient lies strictly inside (-1/2, 1/2).
		if r == Truncate && raw < 0 {
			return -1
		}
		return 0
	}
	q := raw >> n
	rem := raw - q<<n
	if rem == 0 {
		return q
	}
	half := int64(1) << (n - 1)
	switch r {
	case TruncateZero:
		if raw < 0 {
			q++
		}
	case RoundHalfUp:
		if rem >= half {
			q++
		}
	case RoundConvergent:
		if rem > half || (rem == half && q&1 == 1) {
			q++
		}
	}
	return q
}

// fit applies t's overflow mode to an already rounded raw code.
func fit(v int64, t FixedType) (int64, bool) {
	lo, hi := t.MinRaw(), t.MaxRaw()
	if t.Overflow == SaturateSymmetric {
		lo, hi = t.satBounds()
	}
	if v >= lo && v <= hi {
		return v, false
	}
	switch t.Overflow {
	case Saturate, SaturateSymmetric:
		return clamp(v, lo, hi), true
	default:
		return wrapBits(v, t.Width, t.Signed), true
	}
}

// wrapBits keeps the low width bits of v, sign-extending for signed types.
func wrapBits(v int64, width int, signed bool) int64 {
	mask := uint64(1)<<width - 1
	u := uint64(v) & mask
	if signed && u>>(width-1)&1 == 1 {
		return int64(u) - int64(1)<<width
	}
	return int64(u)
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
