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

package schedule

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-hlsdense/hls"
)

func layer(nIn, nOut, reuse, zeros int, mode hls.IOMode) hls.LayerConfig {
	t := hls.NewFixedType(16, 6)
	return hls.LayerConfig{
		NIn: nIn, NOut: nOut, ReuseFactor: reuse, NZeros: zeros, IOMode: mode,
		Input: t, Weight: t, Bias: t, Accum: t, Output: t,
	}
}

func TestMultiplierLimit(t *testing.T) {
	tests := []struct {
		nIn, nOut, reuse, zeros int
		want                    int
	}{
		{4, 4, 1, 0, 16},
		{4, 4, 4, 0, 4},
		{4, 4, 3, 0, 6},
		{4, 4, 4, 5, 3},
		{4, 4, 1, 8, 8},
		{2, 2, 2, 1, 2},
		{3, 1, 3, 0, 1},
		{2, 2, 4, 4, 1}, // every weight is zero
		{10, 10, 100, 90, 1},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%dx%d/rf%d/z%d", tt.nIn, tt.nOut, tt.reuse, tt.zeros)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, MultiplierLimit(tt.nIn, tt.nOut, tt.reuse, tt.zeros))
		})
	}
}

func TestColumnLimit(t *testing.T) {
	assert.Equal(t, 4, ColumnLimit(4, 1))
	assert.Equal(t, 2, ColumnLimit(4, 2))
	assert.Equal(t, 2, ColumnLimit(4, 3))
	assert.Equal(t, 1, ColumnLimit(4, 16))
	assert.Equal(t, 1, ColumnLimit(1, 1))
}

func TestNewSelectsStrategy(t *testing.T) {
	p, err := New(layer(4, 4, 2, 0, hls.IOParallel))
	require.NoError(t, err)
	_, ok := p.(*ParallelPlan)
	require.True(t, ok)
	assert.Equal(t, StrategyParallel, p.Strategy())
	assert.Equal(t, "parallel", p.Strategy().String())
	assert.Equal(t, 8, p.MultiplierLimit())

	s, err := New(layer(4, 4, 2, 0, hls.IOSerial))
	require.NoError(t, err)
	sp, ok := s.(*SerialPlan)
	require.True(t, ok)
	assert.Equal(t, StrategySerial, s.Strategy())
	assert.Equal(t, 2, sp.ColumnLimit)
	assert.Equal(t, 2, s.InitiationInterval())
	assert.Equal(t, 4, s.Config().NIn)
}

func TestNewInvalid(t *testing.T) {
	_, err := New(layer(4, 4, 17, 0, hls.IOParallel))
	assert.True(t, errors.Is(err, hls.ErrConfig))
	_, err = New(layer(0, 4, 1, 0, hls.IOParallel))
	assert.True(t, errors.Is(err, hls.ErrConfig))
}

func TestParallelSchedule(t *testing.T) {
	p, err := New(layer(2, 3, 2, 0, hls.IOParallel))
	require.NoError(t, err)
	assert.Equal(t, 3, p.MultiplierLimit())
	assert.Equal(t, 2, p.InitiationInterval())
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}}, p.Schedule([]int{0, 1, 2, 3, 4, 5}))
	assert.Empty(t, p.Schedule(nil))
}

func TestSerialSchedule(t *testing.T) {
	p, err := New(layer(2, 3, 2, 1, hls.IOSerial))
	require.NoError(t, err)
	// Product 4 (input 1, output 1) is a structural zero and is never issued.
	assert.Equal(t, [][]int{{0, 1}, {2}, {3, 5}}, p.Schedule([]int{0, 1, 2, 3, 5}))
	assert.Empty(t, p.Schedule(nil))
}

func TestLatency(t *testing.T) {
	p, err := New(layer(4, 4, 1, 0, hls.IOParallel))
	require.NoError(t, err)
	assert.Equal(t, 1, p.InitiationInterval())
	assert.Equal(t, 4+1+2+1+4, p.Latency())

	s, err := New(layer(4, 4, 2, 0, hls.IOSerial))
	require.NoError(t, err)
	assert.Equal(t, 8, s.ComputeCycles())
	assert.Equal(t, 4+8+2+1+4, s.Latency())

	packed := layer(4, 4, 1, 0, hls.IOParallel)
	packed.InputPacket, packed.OutputPacket = 4, 2
	p, err = New(packed)
	require.NoError(t, err)
	assert.Equal(t, 1+1+2+1+2, p.Latency())
}

func TestAdderTreeDepth(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 16: 4, 17: 5} {
		assert.Equal(t, want, AdderTreeDepth(n), "n=%d", n)
	}
}

// TestPlanInvariants sweeps small shapes and checks the limit bounds, the
// cadence contract and that every schedule is a partition respecting the
// limit.
func TestParallelCadence(t *testing.T) {
	tests := []struct {
		name                 string
		nIn, nOut, rf, zeros int
		wantLimit, wantII    int
	}{
		{"unconstrained", 4, 4, 1, 0, 16, 1},
		{"unconstrained/sparse", 4, 4, 1, 6, 10, 1},
		{"reuse", 4, 4, 4, 0, 4, 4},
		{"reuse/sparse", 4, 4, 4, 6, 3, 4},
		{"reuse/uneven", 3, 3, 4, 0, 3, 3},
		{"reuse/all_zero", 2, 2, 2, 4, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(layer(tt.nIn, tt.nOut, tt.rf, tt.zeros, hls.IOParallel))
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, p.MultiplierLimit())
			assert.Equal(t, tt.wantII, p.InitiationInterval())
			assert.LessOrEqual(t, p.InitiationInterval(), tt.rf)
		})
	}
}

func TestPlanInvariants(t *testing.T) {
	for nIn := 1; nIn <= 4; nIn++ {
		for nOut := 1; nOut <= 4; nOut++ {
			products := nIn * nOut
			for reuse := 1; reuse <= products; reuse++ {
				for zeros := 0; zeros <= products; zeros++ {
					for _, mode := range []hls.IOMode{hls.IOParallel, hls.IOSerial} {
						checkPlan(t, layer(nIn, nOut, reuse, zeros, mode))
					}
				}
			}
		}
	}
}

func checkPlan(t *testing.T, cfg hls.LayerConfig) {
	t.Helper()
	p, err := New(cfg)
	require.NoError(t, err)

	nonZero := cfg.Products() - cfg.NZeros
	limit := p.MultiplierLimit()
	require.GreaterOrEqual(t, limit, 1, "%+v", cfg)
	require.LessOrEqual(t, limit, max(nonZero, 1), "%+v", cfg)
	require.LessOrEqual(t, p.InitiationInterval(), cfg.ReuseFactor, "%+v", cfg)

	stepLimit := limit
	if sp, ok := p.(*SerialPlan); ok {
		stepLimit = sp.ColumnLimit
	}

	// Issue the trailing nonZero products.
	issued := make([]int, 0, nonZero)
	for idx := cfg.NZeros; idx < cfg.Products(); idx++ {
		issued = append(issued, idx)
	}
	var flat []int
	for _, step := range p.Schedule(issued) {
		require.NotEmpty(t, step)
		require.LessOrEqual(t, len(step), stepLimit, "%+v", cfg)
		flat = append(flat, step...)
	}
	require.Equal(t, issued, append([]int{}, flat...), "%+v", cfg)
}
