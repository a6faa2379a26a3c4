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

package dense

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/ajroetker/go-hlsdense/hls"
	"github.com/ajroetker/go-hlsdense/hls/contrib/pe"
	"github.com/ajroetker/go-hlsdense/hls/contrib/quantization"
	"github.com/ajroetker/go-hlsdense/hls/contrib/schedule"
	"github.com/ajroetker/go-hlsdense/hls/contrib/stream"
)

// State is a phase of one kernel invocation. Phases run strictly in
// declaration order and never branch back.
type State int

const (
	// Unpack drains the input packets of one sample.
	Unpack State = iota

	// Compute issues every non-zero product, step by step.
	Compute

	// Accumulate sums each output column onto its bias.
	Accumulate

	// Quantize casts the accumulators to the output type.
	Quantize

	// Pack writes the output packets.
	Pack
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unpack:
		return "UNPACK"
	case Compute:
		return "COMPUTE"
	case Accumulate:
		return "ACCUMULATE"
	case Quantize:
		return "QUANTIZE"
	case Pack:
		return "PACK"
	default:
		return "unknown"
	}
}

// Kernel is a compiled dense layer: y = cast(bias + x·W).
//
// A Kernel is immutable after New apart from its counters. Invoke and
// Forward may be called from one goroutine at a time per pipeline; weights
// and biases are shared read-only.
type Kernel struct {
	name    string
	cfg     hls.LayerConfig
	plan    schedule.Plan
	weights []hls.Fixed
	accBias []hls.Fixed
	live    []bool
	steps   [][]int

	array  *pe.Array
	caster *quantization.Caster
	log    *slog.Logger

	invocations atomic.Int64
	products    atomic.Int64
	skipped     atomic.Int64
	stepCount   atomic.Int64
	cycles      atomic.Int64
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithArray issues every schedule step on arr. Without an array steps run
// on the calling goroutine.
func WithArray(arr *pe.Array) Option {
	return func(k *Kernel) { k.array = arr }
}

// WithLogger sets the logger used for state transitions (Debug level).
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) { k.log = l }
}

// WithCaster replaces the output cast stage. Its type must equal the
// layer's output type.
func WithCaster(c *quantization.Caster) Option {
	return func(k *Kernel) { k.caster = c }
}

// WithName names the kernel in logs and errors.
func WithName(name string) Option {
	return func(k *Kernel) { k.name = name }
}

// New compiles a dense layer. weights is row-major by input index
// (weights[i*NOut+j] connects input i to output j) and must be in cfg.Weight;
// biases must be in cfg.Bias. Every check happens here: a Kernel that
// exists never fails on configuration.
func New(cfg hls.LayerConfig, weights, biases []hls.Fixed, opts ...Option) (*Kernel, error) {
	cfg = cfg.WithDefaults()
	plan, err := schedule.New(cfg)
	if err != nil {
		return nil, err
	}
	if len(weights) != cfg.Products() {
		return nil, hls.ConfigErrorf("weights", "have %d values, want n_in*n_out=%d", len(weights), cfg.Products())
	}
	if len(biases) != cfg.NOut {
		return nil, hls.ConfigErrorf("biases", "have %d values, want n_out=%d", len(biases), cfg.NOut)
	}
	for i, w := range weights {
		if w.Type() != cfg.Weight {
			return nil, hls.ConfigErrorf("weights", "value %d has type %s, want %s", i, w.Type(), cfg.Weight)
		}
	}
	for j, b := range biases {
		if b.Type() != cfg.Bias {
			return nil, hls.ConfigErrorf("biases", "value %d has type %s, want %s", j, b.Type(), cfg.Bias)
		}
	}
	if zeros := hls.CountZeros(weights); cfg.NZeros > zeros {
		return nil, hls.ConfigErrorf("n_zeros", "declares %d structural zeros, weights have %d", cfg.NZeros, zeros)
	}

	k := &Kernel{
		name:    "dense",
		cfg:     cfg,
		plan:    plan,
		weights: weights,
		live:    make([]bool, len(weights)),
		accBias: make([]hls.Fixed, cfg.NOut),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.log == nil {
		k.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if k.caster == nil {
		if k.caster, err = quantization.NewCaster(cfg.Output); err != nil {
			return nil, err
		}
	} else if k.caster.Type() != cfg.Output {
		return nil, hls.ConfigErrorf("result_t", "caster type %s, want %s", k.caster.Type(), cfg.Output)
	}

	// Structural zeros are never issued.
	issued := make([]int, 0, len(weights))
	for idx, w := range weights {
		if !w.IsZero() {
			k.live[idx] = true
			issued = append(issued, idx)
		}
	}
	k.steps = plan.Schedule(issued)

	for j, b := range biases {
		k.accBias[j] = b.Convert(cfg.Accum)
	}

	k.log.Debug("dense kernel compiled",
		"layer", k.name,
		"strategy", plan.Strategy(),
		"multiplier_limit", plan.MultiplierLimit(),
		"steps", len(k.steps),
		"ii", plan.InitiationInterval())
	return k, nil
}

// Name returns the kernel's name.
func (k *Kernel) Name() string {
	return k.name
}

// Config returns the layer configuration with defaults applied.
func (k *Kernel) Config() hls.LayerConfig {
	return k.cfg
}

// Plan returns the resource plan governing COMPUTE.
func (k *Kernel) Plan() schedule.Plan {
	return k.plan
}

// Steps returns the number of schedule steps per invocation.
func (k *Kernel) Steps() int {
	return len(k.steps)
}

// Forward runs COMPUTE, ACCUMULATE and QUANTIZE on one input vector. x must
// have NIn elements of the layer's input type.
func (k *Kernel) Forward(x []hls.Fixed) ([]hls.Fixed, error) {
	if len(x) != k.cfg.NIn {
		return nil, fmt.Errorf("%s: input has %d elements, want %d", k.name, len(x), k.cfg.NIn)
	}
	for i, v := range x {
		if v.Type() != k.cfg.Input {
			return nil, fmt.Errorf("%s: input %d has type %s, want %s", k.name, i, v.Type(), k.cfg.Input)
		}
	}

	k.enter(Compute)
	mult := k.compute(x)

	k.enter(Accumulate)
	acc := k.accumulate(mult)

	k.enter(Quantize)
	y := make([]hls.Fixed, k.cfg.NOut)
	k.caster.CastVector(acc, y)
	return y, nil
}

// compute issues every live product into its own cell. Cells are
// independent, so steps and workers may run in any order.
func (k *Kernel) compute(x []hls.Fixed) []hls.Fixed {
	nOut := k.cfg.NOut
	mult := make([]hls.Fixed, len(k.weights))
	for _, step := range k.steps {
		k.issue(len(step), func(start, end int) {
			for _, idx := range step[start:end] {
				mult[idx] = x[idx/nOut].Mul(k.weights[idx], k.cfg.Accum)
			}
		})
	}
	k.stepCount.Add(int64(len(k.steps)))
	return mult
}

func (k *Kernel) issue(n int, fn func(start, end int)) {
	if k.array == nil {
		fn(0, n)
		return
	}
	k.array.Step(n, hls.Lanes(), fn)
}

// accumulate adds products onto the bias in ascending input order per
// column. The order is fixed so saturating accumulators are reproducible.
func (k *Kernel) accumulate(mult []hls.Fixed) []hls.Fixed {
	nOut := k.cfg.NOut
	acc := make([]hls.Fixed, nOut)
	copy(acc, k.accBias)

	var issued, skipped int64
	for i := 0; i < k.cfg.NIn; i++ {
		for j := 0; j < nOut; j++ {
			idx := i*nOut + j
			if !k.live[idx] {
				skipped++
				continue
			}
			acc[j] = acc[j].Add(mult[idx])
			issued++
		}
	}
	k.products.Add(issued)
	k.skipped.Add(skipped)
	return acc
}

// Invoke processes exactly one sample: it drains NIn/InputPacket packets
// from in and writes NOut/OutputPacket packets to out. The only blocking
// points are the stream operations.
func (k *Kernel) Invoke(in, out *stream.Stream[hls.Fixed]) error {
	if err := k.checkStreams(in, out); err != nil {
		return err
	}

	k.enter(Unpack)
	x, err := stream.Read(in, k.cfg.NIn)
	if err != nil {
		return fmt.Errorf("%s: unpack: %w", k.name, err)
	}

	y, err := k.Forward(x)
	if err != nil {
		return err
	}

	k.enter(Pack)
	if err := stream.Write(out, y); err != nil {
		return fmt.Errorf("%s: pack: %w", k.name, err)
	}
	k.invocations.Add(1)
	k.cycles.Add(int64(k.plan.InitiationInterval()))
	return nil
}

// Run performs n invocations back to back. Invocation i's output is fully
// written before invocation i+1 starts reading.
func (k *Kernel) Run(in, out *stream.Stream[hls.Fixed], n int) error {
	for i := 0; i < n; i++ {
		if err := k.Invoke(in, out); err != nil {
			return fmt.Errorf("invocation %d: %w", i, err)
		}
	}
	return nil
}

func (k *Kernel) checkStreams(in, out *stream.Stream[hls.Fixed]) error {
	if in.PacketSize() != k.cfg.InputPacket {
		return hls.ConfigErrorf("input_packet", "stream %s carries %d-element packets, layer expects %d",
			in.Name(), in.PacketSize(), k.cfg.InputPacket)
	}
	if out.PacketSize() != k.cfg.OutputPacket {
		return hls.ConfigErrorf("output_packet", "stream %s carries %d-element packets, layer expects %d",
			out.Name(), out.PacketSize(), k.cfg.OutputPacket)
	}
	return nil
}

func (k *Kernel) enter(s State) {
	k.log.Debug("dense state", "layer", k.name, "state", s, "invocation", k.invocations.Load())
}

// Stats counts the work a kernel has done.
type Stats struct {
	// Invocations is the number of completed Invoke calls.
	Invocations int64

	// Products is the number of products issued and accumulated.
	Products int64

	// SkippedZeros is the number of products never issued because their
	// weight is a structural zero.
	SkippedZeros int64

	// Steps is the number of schedule steps executed.
	Steps int64

	// Cycles is the emulated cycle count of the completed invocations, one
	// initiation interval each.
	Cycles int64
}

// Stats returns a snapshot of the kernel's counters.
func (k *Kernel) Stats() Stats {
	return Stats{
		Invocations:  k.invocations.Load(),
		Products:     k.products.Load(),
		SkippedZeros: k.skipped.Load(),
		Steps:        k.stepCount.Load(),
		Cycles:       k.cycles.Load(),
	}
}

// NewStreams returns input and output streams shaped for k.
func (k *Kernel) NewStreams() (in, out *stream.Stream[hls.Fixed], err error) {
	in, err = stream.New[hls.Fixed](k.name+"_input", k.cfg.InputPacket, k.cfg.FIFODepth)
	if err != nil {
		return nil, nil, err
	}
	out, err = stream.New[hls.Fixed](k.name+"_output", k.cfg.OutputPacket, k.cfg.FIFODepth)
	if err != nil {
		return nil, nil, err
	}
	return in, out, nil
}
