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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/ajroetker/go-hlsdense/hls"
	"github.com/ajroetker/go-hlsdense/hls/contrib/dense"
	"github.com/ajroetker/go-hlsdense/hls/contrib/pe"
	"github.com/ajroetker/go-hlsdense/hls/contrib/quantization"
)

func newRunCmd(a *app) *cobra.Command {
	var inputsPath string
	var workers int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stream input samples through a compiled layer",
		Long: `Run quantizes every sample of --inputs (a JSON array of float arrays) to
the layer's input type, streams them through the kernel and prints one JSON
array of outputs per line, in sample order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Debug("run", "flags", visitedFlags(cmd.Flags()))
			l, err := a.loadLayer()
			if err != nil {
				return err
			}
			raw, err := readSamples(cmd, inputsPath)
			if err != nil {
				return err
			}

			samples := make([][]hls.Fixed, len(raw))
			for i, values := range raw {
				x, overflows := quantization.QuantizeFloats(values, l.Config.Input)
				if overflows > 0 {
					a.log.Warn("input values out of range", "sample", i, "count", overflows, "type", l.Config.Input)
				}
				samples[i] = x
			}

			arr := pe.New(workers)
			atexit.Register(arr.Close)
			defer arr.Close()
			a.log.Debug("processing elements",
				"workers", arr.Workers(),
				"dispatch", hls.CurrentLevel(),
				"lanes", hls.Lanes())

			k, err := dense.New(l.Config, l.Weights, l.Biases,
				dense.WithArray(arr),
				dense.WithLogger(a.log),
				dense.WithName(l.Name))
			if err != nil {
				return err
			}

			results, err := dense.RunBatch(cmd.Context(), k, samples)
			if err != nil {
				return err
			}
			if err := writeResults(cmd.OutOrStdout(), results); err != nil {
				return err
			}

			s := k.Stats()
			a.log.Info("run complete",
				"layer", l.Name,
				"samples", s.Invocations,
				"products", s.Products,
				"skipped_zeros", s.SkippedZeros,
				"steps", s.Steps,
				"cycles", s.Cycles)
			return nil
		},
	}
	a.addLayerFlag(cmd)
	cmd.Flags().StringVar(&inputsPath, "inputs", "-", "JSON file of input samples (- for stdin)")
	cmd.Flags().IntVar(&workers, "workers", 0, "processing element workers (0 uses GOMAXPROCS)")
	return cmd
}

func readSamples(cmd *cobra.Command, path string) ([][]float64, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var samples [][]float64
	if err := json.NewDecoder(r).Decode(&samples); err != nil {
		return nil, fmt.Errorf("reading samples from %s: %w", path, err)
	}
	return samples, nil
}

func writeResults(w io.Writer, results [][]hls.Fixed) error {
	enc := json.NewEncoder(w)
	for _, y := range results {
		row := make([]float64, len(y))
		for j, v := range y {
			row[j] = v.Float64()
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}
