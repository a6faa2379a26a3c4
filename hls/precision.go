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
	"regexp"
	"strconv"
	"strings"
)

var precisionRE = regexp.MustCompile(`^(?:ap_)?(u?)(fixed|int)\s*<([^<>]*)>$`)

var roundingNames = map[string]RoundingMode{
	"AP_TRN":      Truncate,
	"AP_TRN_ZERO": TruncateZero,
	"AP_RND":      RoundHalfUp,
	"AP_RND_CONV": RoundConvergent,
}

var overflowNames = map[string]OverflowMode{
	"AP_WRAP":    Wrap,
	"AP_SAT":     Saturate,
	"AP_SAT_SYM": SaturateSymmetric,
}

// String returns the HLS spelling of t, e.g. "ap_fixed<16,6>" or
// "ap_ufixed<8,3,AP_RND,AP_SAT>". Default modes are omitted.
func (t FixedType) String() string {
	u := ""
	if !t.Signed {
		u = "u"
	}
	defaultModes := t.Rounding == Truncate && t.Overflow == Wrap
	if t.Integer == t.Width && defaultModes {
		return fmt.Sprintf("ap_%sint<%d>", u, t.Width)
	}
	if defaultModes {
		return fmt.Sprintf("ap_%sfixed<%d,%d>", u, t.Width, t.Integer)
	}
	return fmt.Sprintf("ap_%sfixed<%d,%d,%s,%s>", u, t.Width, t.Integer, t.Rounding, t.Overflow)
}

// ParseFixedType parses an HLS precision string. Accepted forms are
// ap_fixed<W,I[,Q[,O]]>, ap_ufixed<...>, ap_int<W>, ap_uint<W>, and the
// same without the "ap_" prefix.
func ParseFixedType(s string) (FixedType, error) {
	m := precisionRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return FixedType{}, fmt.Errorf("hls: unrecognized precision %q", s)
	}
	signed := m[1] == ""
	args := strings.Split(m[3], ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}

	width, err := strconv.Atoi(args[0])
	if err != nil {
		return FixedType{}, fmt.Errorf("hls: precision %q: width: %w", s, err)
	}
	t := FixedType{Width: width, Integer: width, Signed: signed}

	if m[2] == "int" {
		if len(args) != 1 {
			return FixedType{}, fmt.Errorf("hls: precision %q: integer types take one parameter", s)
		}
	} else {
		if len(args) < 2 || len(args) > 4 {
			return FixedType{}, fmt.Errorf("hls: precision %q: fixed types take 2 to 4 parameters", s)
		}
		if t.Integer, err = strconv.Atoi(args[1]); err != nil {
			return FixedType{}, fmt.Errorf("hls: precision %q: integer bits: %w", s, err)
		}
		if len(args) > 2 {
			r, ok := roundingNames[strings.ToUpper(args[2])]
			if !ok {
				return FixedType{}, fmt.Errorf("hls: precision %q: unknown rounding mode %q", s, args[2])
			}
			t.Rounding = r
		}
		if len(args) > 3 {
			o, ok := overflowNames[strings.ToUpper(args[3])]
			if !ok {
				return FixedType{}, fmt.Errorf("hls: precision %q: unknown overflow mode %q", s, args[3])
			}
			t.Overflow = o
		}
	}

	if err := t.Validate(); err != nil {
		return FixedType{}, fmt.Errorf("hls: precision %q: %w", s, err)
	}
	return t, nil
}

// MustParseFixedType is ParseFixedType that panics on error.
func MustParseFixedType(s string) FixedType {
	t, err := ParseFixedType(s)
	if err != nil {
		panic(err)
	}
	return t
}
