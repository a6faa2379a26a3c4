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

// Package schedule decides how a dense layer's products are spread over
// physical multipliers.
//
// Given the layer shape, the reuse factor and the number of structurally
// zero weights, New selects one of two strategies once per deployment:
//
//   - ParallelPlan: the whole NIn*NOut product matrix shares a budget of
//     MultiplierLimit multipliers per step.
//   - SerialPlan: products are produced one input at a time, with that
//     input's NOut column products sharing ColumnLimit multipliers per step.
//
// The limits are scheduling hints for whichever backend lowers the kernel;
// they never change the numeric result.
package schedule

import (
	"github.com/samber/lo"
	"modernc.org/mathutil"

	"github.com/ajroetker/go-hlsdense/hls"
)

// Strategy identifies a Plan variant.
type Strategy int

const (
	// StrategyParallel is the whole-matrix strategy.
	StrategyParallel Strategy = iota

	// StrategySerial is the column-multiplexed strategy.
	StrategySerial
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyParallel:
		return "parallel"
	case StrategySerial:
		return "serial"
	default:
		return "unknown"
	}
}

// Plan is the resource plan of one layer. It is implemented only by
// *ParallelPlan and *SerialPlan.
type Plan interface {
	// Strategy reports which variant the plan is.
	Strategy() Strategy

	// MultiplierLimit is the number of multipliers the kernel may use
	// concurrently across the whole product matrix.
	MultiplierLimit() int

	// InitiationInterval is the number of cycles between admitting two
	// consecutive input samples.
	InitiationInterval() int

	// ComputeCycles is the number of cycles the COMPUTE phase of one
	// invocation occupies.
	ComputeCycles() int

	// Latency estimates the cycles from the first input beat to the last
	// output beat of one invocation.
	Latency() int

	// Schedule partitions the issued product indices (row-major, i*NOut+j,
	// ascending) into time steps. Every step holds at most the active
	// multiplier limit, and every index appears in exactly one step.
	Schedule(issued []int) [][]int

	// Config returns the layer the plan was built for.
	Config() hls.LayerConfig

	sealed()
}

// MultiplierLimit returns ceil(nIn*nOut/reuse) - floor(nZeros/reuse),
// clamped to [1, max(1, nIn*nOut-nZeros)].
func MultiplierLimit(nIn, nOut, reuse, nZeros int) int {
	products := nIn * nOut
	limit := ceilDiv(products, reuse) - nZeros/reuse
	return min(max(limit, 1), max(products-nZeros, 1))
}

// ColumnLimit returns ceil(nOut/reuse), clamped to [1, nOut].
func ColumnLimit(nOut, reuse int) int {
	return min(max(ceilDiv(nOut, reuse), 1), nOut)
}

// AdderTreeDepth returns the depth of a balanced adder tree summing n
// terms, ceil(log2 n).
func AdderTreeDepth(n int) int {
	if n <= 1 {
		return 0
	}
	return mathutil.BitLen(n - 1)
}

// New builds the plan for cfg. The strategy follows cfg.IOMode.
func New(cfg hls.LayerConfig) (Plan, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := base{
		cfg:     cfg,
		limit:   MultiplierLimit(cfg.NIn, cfg.NOut, cfg.ReuseFactor, cfg.NZeros),
		nonZero: cfg.Products() - cfg.NZeros,
	}
	if cfg.IOMode == hls.IOSerial {
		return &SerialPlan{base: b, ColumnLimit: ColumnLimit(cfg.NOut, cfg.ReuseFactor)}, nil
	}
	return &ParallelPlan{base: b}, nil
}

// base holds what both strategies share.
type base struct {
	cfg     hls.LayerConfig
	limit   int
	nonZero int
}

func (b *base) MultiplierLimit() int {
	return b.limit
}

func (b *base) Config() hls.LayerConfig {
	return b.cfg
}

func (b *base) sealed() {}

// latency adds the fixed pipeline stages around compute cycles: input
// beats, a balanced adder tree over NIn products, one cast and output beats.
func (b *base) latency(compute int) int {
	return b.cfg.InputBeats() + compute + AdderTreeDepth(b.cfg.NIn) + 1 + b.cfg.OutputBeats()
}

// ParallelPlan shares MultiplierLimit multipliers across the whole matrix.
type ParallelPlan struct {
	base
}

// Strategy returns StrategyParallel.
func (p *ParallelPlan) Strategy() Strategy {
	return StrategyParallel
}

// InitiationInterval is the number of steps needed to issue every non-zero
// product, ceil(nonzero/limit).
//
// A parallel layer admits one sample per cycle only when the limit covers
// every non-zero product, which reuse factor 1 always gives. A larger reuse
// factor trades that cadence for fewer multipliers, and the interval may
// grow up to the reuse factor but never past it: limit·rf >= nonzero
// follows from the MultiplierLimit formula.
func (p *ParallelPlan) InitiationInterval() int {
	return max(ceilDiv(p.nonZero, p.limit), 1)
}

// ComputeCycles equals the initiation interval: every step is one cycle.
func (p *ParallelPlan) ComputeCycles() int {
	return p.InitiationInterval()
}

// Latency estimates one invocation's latency.
func (p *ParallelPlan) Latency() int {
	return p.latency(p.ComputeCycles())
}

// Schedule issues products in index order, MultiplierLimit per step.
func (p *ParallelPlan) Schedule(issued []int) [][]int {
	if len(issued) == 0 {
		return nil
	}
	return lo.Chunk(issued, p.limit)
}

// SerialPlan produces one input's column products at a time.
type SerialPlan struct {
	base

	// ColumnLimit is the multipliers shared by the NOut products of one
	// input. It does not vary within an invocation.
	ColumnLimit int
}

// Strategy returns StrategySerial.
func (p *SerialPlan) Strategy() Strategy {
	return StrategySerial
}

// InitiationInterval is the reuse factor: one sample every ReuseFactor
// cycles.
func (p *SerialPlan) InitiationInterval() int {
	return p.cfg.ReuseFactor
}

// ComputeCycles is NIn rows of ceil(NOut/ColumnLimit) steps each.
func (p *SerialPlan) ComputeCycles() int {
	return p.cfg.NIn * ceilDiv(p.cfg.NOut, p.ColumnLimit)
}

// Latency estimates one invocation's latency.
func (p *SerialPlan) Latency() int {
	return p.latency(p.ComputeCycles())
}

// Schedule groups issued products by input row and splits each row into
// steps of at most ColumnLimit products. Rows with no issued products
// produce no steps.
func (p *SerialPlan) Schedule(issued []int) [][]int {
	var steps [][]int
	nOut := p.cfg.NOut
	for start := 0; start < len(issued); {
		row := issued[start] / nOut
		end := start
		for end < len(issued) && issued[end]/nOut == row {
			end++
		}
		steps = append(steps, lo.Chunk(issued[start:end], p.ColumnLimit)...)
		start = end
	}
	return steps
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
