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
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Layer is a validated layer description together with its parameters.
// Weights are row-major by input index: Weights[i*NOut+j] connects input i
// to output j.
type Layer struct {
	Name    string
	Config  LayerConfig
	Weights []Fixed
	Biases  []Fixed
}

// layerFile is the on-disk JSON form written by the model converter.
type layerFile struct {
	Name         string    `json:"name"`
	NIn          int       `json:"n_in"`
	NOut         int       `json:"n_out"`
	ReuseFactor  int       `json:"reuse_factor"`
	NZeros       *int      `json:"n_zeros,omitempty"`
	IOType       string    `json:"io_type"`
	InputT       string    `json:"input_t"`
	WeightT      string    `json:"weight_t"`
	BiasT        string    `json:"bias_t"`
	AccumT       string    `json:"accum_t"`
	ResultT      string    `json:"result_t"`
	InputPacket  int       `json:"input_packet,omitempty"`
	OutputPacket int       `json:"output_packet,omitempty"`
	FIFODepth    int       `json:"fifo_depth,omitempty"`
	Weights      []float64 `json:"weights"`
	Biases       []float64 `json:"biases"`
}

// LoadLayerFile reads a layer description from a JSON file.
func LoadLayerFile(path string) (*Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	l, err := LoadLayer(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// LoadLayer decodes and validates a JSON layer description. When n_zeros is
// absent it is computed from the weights; a declared n_zeros may not exceed
// the zeros actually present. Every weight and bias must be
// exactly representable in its declared type.
func LoadLayer(r io.Reader) (*Layer, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var lf layerFile
	if err := dec.Decode(&lf); err != nil {
		return nil, fmt.Errorf("hls: decoding layer: %w", err)
	}

	cfg := LayerConfig{
		NIn:          lf.NIn,
		NOut:         lf.NOut,
		ReuseFactor:  lf.ReuseFactor,
		InputPacket:  lf.InputPacket,
		OutputPacket: lf.OutputPacket,
		FIFODepth:    lf.FIFODepth,
	}
	var err error
	if cfg.IOMode, err = ParseIOMode(lf.IOType); err != nil {
		return nil, ConfigErrorf("io_type", "%v", err)
	}
	precisions := []struct {
		field string
		src   string
		dst   *FixedType
	}{
		{"input_t", lf.InputT, &cfg.Input},
		{"weight_t", lf.WeightT, &cfg.Weight},
		{"bias_t", lf.BiasT, &cfg.Bias},
		{"accum_t", lf.AccumT, &cfg.Accum},
		{"result_t", lf.ResultT, &cfg.Output},
	}
	for _, p := range precisions {
		if *p.dst, err = ParseFixedType(p.src); err != nil {
			return nil, ConfigErrorf(p.field, "%v", err)
		}
	}

	if len(lf.Weights) != lf.NIn*lf.NOut {
		return nil, ConfigErrorf("weights", "have %d values, want n_in*n_out=%d", len(lf.Weights), lf.NIn*lf.NOut)
	}
	if len(lf.Biases) != lf.NOut {
		return nil, ConfigErrorf("biases", "have %d values, want n_out=%d", len(lf.Biases), lf.NOut)
	}
	weights, err := exactFixed("weights", cfg.Weight, lf.Weights)
	if err != nil {
		return nil, err
	}
	biases, err := exactFixed("biases", cfg.Bias, lf.Biases)
	if err != nil {
		return nil, err
	}

	if lf.NZeros != nil {
		cfg.NZeros = *lf.NZeros
	} else {
		cfg.NZeros = CountZeros(weights)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if zeros := CountZeros(weights); cfg.NZeros > zeros {
		return nil, ConfigErrorf("n_zeros", "declares %d structural zeros, weights have %d", cfg.NZeros, zeros)
	}
	return &Layer{Name: lf.Name, Config: cfg, Weights: weights, Biases: biases}, nil
}

// CountZeros returns the number of exactly zero values.
func CountZeros(values []Fixed) int {
	n := 0
	for _, v := range values {
		if v.IsZero() {
			n++
		}
	}
	return n
}

// exactFixed converts values into t, rejecting any value that would be
// rounded or clamped.
func exactFixed(field string, t FixedType, values []float64) ([]Fixed, error) {
	out := FromFloats(t, values)
	for i, v := range out {
		if v.Float64() != values[i] {
			return nil, ConfigErrorf(field, "value %g at index %d is not representable in %s", values[i], i, t)
		}
	}
	return out, nil
}
