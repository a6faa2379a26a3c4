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

package stream

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/ajroetker/go-hlsdense/hls"
)

// Pack splits vec into packets of size elements, in ascending index order
// with packet boundaries aligned to size. size must divide len(vec).
func Pack[T any](vec []T, size int) ([]Packet[T], error) {
	if size <= 0 || len(vec)%size != 0 {
		return nil, hls.ConfigErrorf("packet_size", "packet size %d does not divide vector length %d", size, len(vec))
	}
	chunks := lo.Chunk(vec, size)
	packets := make([]Packet[T], len(chunks))
	for i, c := range chunks {
		packets[i] = Packet[T](c)
	}
	return packets, nil
}

// Unpack concatenates packets back into one vector.
func Unpack[T any](packets []Packet[T]) []T {
	parts := make([][]T, len(packets))
	for i, p := range packets {
		parts[i] = p
	}
	return lo.Flatten(parts)
}

// Write packs vec with the stream's packet size and pushes every packet.
func Write[T any](s *Stream[T], vec []T) error {
	packets, err := Pack(vec, s.PacketSize())
	if err != nil {
		return fmt.Errorf("%s: %w", s.Name(), err)
	}
	for _, p := range packets {
		if err := s.Push(p); err != nil {
			return err
		}
	}
	return nil
}

// Read pops the packets that make up an n-element vector and unpacks them.
// n must be a multiple of the stream's packet size.
func Read[T any](s *Stream[T], n int) ([]T, error) {
	if n%s.PacketSize() != 0 {
		return nil, fmt.Errorf("%s: %w", s.Name(),
			hls.ConfigErrorf("packet_size", "packet size %d does not divide vector length %d", s.PacketSize(), n))
	}
	packets := make([]Packet[T], n/s.PacketSize())
	for i := range packets {
		p, err := s.Pop()
		if err != nil {
			return nil, err
		}
		packets[i] = p
	}
	return Unpack(packets), nil
}
