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
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-hlsdense/hls"
	"github.com/ajroetker/go-hlsdense/hls/contrib/stream"
)

// RunBatch streams samples through k and returns one output per sample,
// in order. A producer, the kernel and a consumer run concurrently,
// connected by streams sized from k's configuration. The first failure
// stops all three and is returned.
func RunBatch(ctx context.Context, k *Kernel, samples [][]hls.Fixed) ([][]hls.Fixed, error) {
	cfg := k.Config()
	for i, x := range samples {
		if len(x) != cfg.NIn {
			return nil, fmt.Errorf("sample %d has %d elements, want %d", i, len(x), cfg.NIn)
		}
	}
	in, out, err := k.NewStreams()
	if err != nil {
		return nil, err
	}
	results := make([][]hls.Fixed, len(samples))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer in.Close()
		for i, x := range samples {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := stream.Write(in, x); err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
		}
		return nil
	})
	g.Go(func() error {
		defer out.Close()
		for i := range samples {
			err := ctx.Err()
			if err == nil {
				err = k.Invoke(in, out)
			}
			if err != nil {
				go drain(in)
				return fmt.Errorf("sample %d: %w", i, err)
			}
		}
		return nil
	})
	g.Go(func() error {
		for i := range results {
			y, err := stream.Read(out, cfg.NOut)
			if err != nil {
				return fmt.Errorf("result %d: %w", i, err)
			}
			results[i] = y
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// drain discards packets until the producer closes s, releasing a producer
// blocked on a full stream.
func drain[T any](s *stream.Stream[T]) {
	for {
		if _, err := s.Pop(); err != nil {
			return
		}
	}
}
