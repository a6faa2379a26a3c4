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

	"github.com/ajroetker/go-hlsdense/hls"
)

// DenseScalar computes cast(bias + x·W) directly: every product in the
// accumulator type, summed in ascending input order, then cast to the
// output type. It uses no scheduler and no processing elements. Weights
// that are exactly zero are skipped, which leaves the result unchanged.
func DenseScalar(cfg hls.LayerConfig, weights, biases, x []hls.Fixed) ([]hls.Fixed, error) {
	if len(x) != cfg.NIn || len(weights) != cfg.NIn*cfg.NOut || len(biases) != cfg.NOut {
		return nil, fmt.Errorf("dense: shape mismatch: x=%d weights=%d biases=%d for %dx%d",
			len(x), len(weights), len(biases), cfg.NIn, cfg.NOut)
	}
	y := make([]hls.Fixed, cfg.NOut)
	for j := 0; j < cfg.NOut; j++ {
		acc := biases[j].Convert(cfg.Accum)
		for i := 0; i < cfg.NIn; i++ {
			w := weights[i*cfg.NOut+j]
			if w.IsZero() {
				continue
			}
			acc = acc.Add(x[i].Mul(w, cfg.Accum))
		}
		y[j] = acc.Convert(cfg.Output)
	}
	return y, nil
}
