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

// Package lower turns a layer's resource plan into a structural
// description for a code-generation backend.
//
// The plan's limits are advisory: they are attached to the COMPUTE stage
// of the description and never change what the kernel computes. Two
// renderings are provided: JSON for tooling, and a C++ configuration
// struct in the nnet::dense_config style consumed by HLS templates.
package lower

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"github.com/ajroetker/go-hlsdense/hls"
	"github.com/ajroetker/go-hlsdense/hls/contrib/schedule"
)

// Description is the structural description of one dense layer.
type Description struct {
	Name        string  `json:"name"`
	NIn         int     `json:"n_in"`
	NOut        int     `json:"n_out"`
	ReuseFactor int     `json:"reuse_factor"`
	NZeros      int     `json:"n_zeros"`
	NNonZeros   int     `json:"n_nonzeros"`
	IOType      string  `json:"io_type"`
	Types       Types   `json:"types"`
	Plan        Plan    `json:"plan"`
	FIFOs       []FIFO  `json:"fifos"`
	Stages      []Stage `json:"stages"`
}

// Types holds the precision string of every numeric domain.
type Types struct {
	Input  string `json:"input_t"`
	Weight string `json:"weight_t"`
	Bias   string `json:"bias_t"`
	Accum  string `json:"accum_t"`
	Result string `json:"result_t"`
}

// Plan is the scheduling hint attached to the COMPUTE stage.
type Plan struct {
	Strategy           string `json:"strategy"`
	MultiplierLimit    int    `json:"multiplier_limit"`
	ColumnLimit        int    `json:"column_limit,omitempty"`
	InitiationInterval int    `json:"ii"`
	Latency            int    `json:"latency"`
}

// FIFO describes one stream. Bus widths use byte-aligned element types.
type FIFO struct {
	Name        string `json:"name"`
	Depth       int    `json:"depth"`
	PacketSize  int    `json:"packet_size"`
	ElementType string `json:"element_t"`
	ElementBits int    `json:"element_bits"`
	BusBits     int    `json:"bus_bits"`
}

// Stage is one phase of an invocation and its estimated cycles.
type Stage struct {
	Name   string `json:"name"`
	Cycles int    `json:"cycles"`
}

// Describe builds the description of the layer p was planned for.
func Describe(name string, p schedule.Plan) Description {
	cfg := p.Config()
	d := Description{
		Name:        name,
		NIn:         cfg.NIn,
		NOut:        cfg.NOut,
		ReuseFactor: cfg.ReuseFactor,
		NZeros:      cfg.NZeros,
		NNonZeros:   cfg.Products() - cfg.NZeros,
		IOType:      cfg.IOMode.String(),
		Types: Types{
			Input:  cfg.Input.String(),
			Weight: cfg.Weight.String(),
			Bias:   cfg.Bias.String(),
			Accum:  cfg.Accum.String(),
			Result: cfg.Output.String(),
		},
		Plan: Plan{
			Strategy:           p.Strategy().String(),
			MultiplierLimit:    p.MultiplierLimit(),
			InitiationInterval: p.InitiationInterval(),
			Latency:            p.Latency(),
		},
		FIFOs: []FIFO{
			fifo(name+"_input", cfg.FIFODepth, cfg.InputPacket, cfg.Input),
			fifo(name+"_output", cfg.FIFODepth, cfg.OutputPacket, cfg.Output),
		},
		Stages: []Stage{
			{"UNPACK", cfg.InputBeats()},
			{"COMPUTE", p.ComputeCycles()},
			{"ACCUMULATE", schedule.AdderTreeDepth(cfg.NIn)},
			{"QUANTIZE", 1},
			{"PACK", cfg.OutputBeats()},
		},
	}
	if sp, ok := p.(*schedule.SerialPlan); ok {
		d.Plan.ColumnLimit = sp.ColumnLimit
	}
	return d
}

func fifo(name string, depth, packet int, t hls.FixedType) FIFO {
	bits := t.ByteAligned().Width
	return FIFO{
		Name:        name,
		Depth:       depth,
		PacketSize:  packet,
		ElementType: t.String(),
		ElementBits: bits,
		BusBits:     bits * packet,
	}
}

// WriteJSON writes d as indented JSON.
func WriteJSON(w io.Writer, d Description) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("lower: encoding %s: %w", d.Name, err)
	}
	return nil
}

var configTemplate = template.Must(template.New("dense_config").Parse(`struct {{.Name}}_config : nnet::dense_config {
    static const unsigned n_in = {{.NIn}};
    static const unsigned n_out = {{.NOut}};
    static const unsigned io_type = nnet::{{.IOType}};
    static const unsigned reuse_factor = {{.ReuseFactor}};
    static const unsigned n_zeros = {{.NZeros}};
    static const unsigned n_nonzeros = {{.NNonZeros}};
    static const unsigned multiplier_limit = {{.Plan.MultiplierLimit}};
{{- if .Plan.ColumnLimit}}
    static const unsigned column_limit = {{.Plan.ColumnLimit}};
{{- end}}
    static const unsigned input_packet = {{(index .FIFOs 0).PacketSize}};
    static const unsigned output_packet = {{(index .FIFOs 1).PacketSize}};
    static const unsigned fifo_depth = {{(index .FIFOs 0).Depth}};
    static const bool store_weights_in_bram = false;
    typedef {{.Types.Accum}} accum_t;
    typedef {{.Types.Bias}} bias_t;
    typedef {{.Types.Weight}} weight_t;
    typedef {{.Types.Result}} result_t;
    template<class x_T, class y_T>
    using product = nnet::product::mult<x_T, y_T>;
};
`))

// WriteConfig writes d as a C++ layer configuration struct.
func WriteConfig(w io.Writer, d Description) error {
	if len(d.FIFOs) != 2 {
		return fmt.Errorf("lower: %s: want 2 FIFOs, have %d", d.Name, len(d.FIFOs))
	}
	if err := configTemplate.Execute(w, d); err != nil {
		return fmt.Errorf("lower: rendering %s: %w", d.Name, err)
	}
	return nil
}
