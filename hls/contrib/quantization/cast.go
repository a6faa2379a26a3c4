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

package quantization

import (
	"sync/atomic"

	"github.com/ajroetker/go-hlsdense/hls"
)

// Caster converts values into one output type.
type Caster struct {
	to hls.FixedType

	casts       atomic.Int64
	saturations atomic.Int64
	wraps       atomic.Int64
}

// Stats counts a Caster's conversions and how many of them overflowed.
type Stats struct {
	Casts       int64
	Saturations int64
	Wraps       int64
}

// NewCaster returns a Caster into to.
func NewCaster(to hls.FixedType) (*Caster, error) {
	if err := to.Validate(); err != nil {
		return nil, hls.ConfigErrorf("result_t", "%v", err)
	}
	return &Caster{to: to}, nil
}

// Type returns the output type.
func (c *Caster) Type() hls.FixedType {
	return c.to
}

// Cast converts v into the output type.
func (c *Caster) Cast(v hls.Fixed) hls.Fixed {
	y, over := v.ConvertOverflow(c.to)
	c.casts.Add(1)
	if over {
		c.countOverflow()
	}
	return y
}

// CastVector casts src element-wise into dst.
func (c *Caster) CastVector(src, dst []hls.Fixed) {
	if len(dst) < len(src) {
		panic("quantization: dst slice too short")
	}
	for i, v := range src {
		dst[i] = c.Cast(v)
	}
}

// Stats returns a snapshot of the counters.
func (c *Caster) Stats() Stats {
	return Stats{
		Casts:       c.casts.Load(),
		Saturations: c.saturations.Load(),
		Wraps:       c.wraps.Load(),
	}
}

func (c *Caster) countOverflow() {
	if c.to.Overflow == hls.Wrap {
		c.wraps.Add(1)
	} else {
		c.saturations.Add(1)
	}
}

// QuantizeFloats converts values into t and returns the number of values
// that overflowed t's range.
func QuantizeFloats(values []float64, t hls.FixedType) ([]hls.Fixed, int) {
	out := make([]hls.Fixed, len(values))
	overflows := 0
	for i, f := range values {
		var over bool
		out[i], over = hls.FromFloatOverflow(t, f)
		if over {
			overflows++
		}
	}
	return out, overflows
}
