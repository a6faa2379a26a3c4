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

// Package stream provides bounded, point-to-point FIFOs that carry packed
// vectors between pipeline stages.
//
// A Stream has exactly one producer and one consumer. Push blocks while the
// FIFO is full and Pop blocks while it is empty; backpressure is the only
// flow control. Packets are delivered exactly once, in order.
//
// Usage:
//
//	in, _ := stream.New[hls.Fixed]("dense_input", 4, 8)
//	go func() {
//	    defer in.Close()
//	    stream.Write(in, sample) // packs sample into 4-element packets
//	}()
//	x, err := stream.Read(in, len(sample))
package stream

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ajroetker/go-hlsdense/hls"
)

var (
	// ErrClosed is returned by Push after the producer closed the stream.
	ErrClosed = errors.New("stream: push on closed stream")

	// ErrNoProducer is returned by Pop once the stream is closed and
	// drained: no producer will ever supply another packet.
	ErrNoProducer = errors.New("stream: pop with no producer")

	// ErrPacketSize is returned when a packet does not have the stream's
	// declared size.
	ErrPacketSize = errors.New("stream: wrong packet size")

	// ErrFull is returned by TryPush when the FIFO has no free slot.
	ErrFull = errors.New("stream: full")

	// ErrEmpty is returned by TryPop when no packet is available.
	ErrEmpty = errors.New("stream: empty")
)

// Packet is a fixed-size bundle of elements moved in one transaction.
type Packet[T any] []T

// Stream is a bounded single-producer single-consumer FIFO of packets.
type Stream[T any] struct {
	name     string
	size     int
	capacity int
	fifo     chan Packet[T]

	closeOnce sync.Once
	closed    atomic.Bool

	pushes    atomic.Int64
	pops      atomic.Int64
	highWater atomic.Int64
}

// Stats reports the traffic seen by a stream. HighWater is the largest
// occupancy observed and is the depth a FIFO of this stream needs.
type Stats struct {
	Pushes    int64
	Pops      int64
	HighWater int64
}

// New creates a stream of packets of packetSize elements holding at most
// capacity packets.
func New[T any](name string, packetSize, capacity int) (*Stream[T], error) {
	if packetSize <= 0 {
		return nil, hls.ConfigErrorf(name, "packet size must be positive, got %d", packetSize)
	}
	if capacity <= 0 {
		return nil, hls.ConfigErrorf(name, "capacity must be positive, got %d", capacity)
	}
	return &Stream[T]{
		name:     name,
		size:     packetSize,
		capacity: capacity,
		fifo:     make(chan Packet[T], capacity),
	}, nil
}

// Name returns the stream's name.
func (s *Stream[T]) Name() string {
	return s.name
}

// PacketSize returns the number of elements per packet.
func (s *Stream[T]) PacketSize() int {
	return s.size
}

// Cap returns the capacity in packets.
func (s *Stream[T]) Cap() int {
	return s.capacity
}

// Len returns the number of packets currently queued.
func (s *Stream[T]) Len() int {
	return len(s.fifo)
}

// Push appends p, blocking until the FIFO has room. The packet is copied.
// Only the producer may call Push.
func (s *Stream[T]) Push(p Packet[T]) error {
	if err := s.checkPush(p); err != nil {
		return err
	}
	s.fifo <- slices.Clone(p)
	s.recordPush()
	return nil
}

// TryPush is Push that returns ErrFull instead of blocking.
func (s *Stream[T]) TryPush(p Packet[T]) error {
	if err := s.checkPush(p); err != nil {
		return err
	}
	select {
	case s.fifo <- slices.Clone(p):
		s.recordPush()
		return nil
	default:
		return fmt.Errorf("%s: %w", s.name, ErrFull)
	}
}

// Pop removes the oldest packet, blocking until one is available. Once the
// producer has closed the stream and every packet is consumed, Pop returns
// ErrNoProducer.
func (s *Stream[T]) Pop() (Packet[T], error) {
	p, ok := <-s.fifo
	if !ok {
		return nil, fmt.Errorf("%s: %w", s.name, ErrNoProducer)
	}
	s.pops.Add(1)
	return p, nil
}

// TryPop is Pop that returns ErrEmpty instead of blocking.
func (s *Stream[T]) TryPop() (Packet[T], error) {
	select {
	case p, ok := <-s.fifo:
		if !ok {
			return nil, fmt.Errorf("%s: %w", s.name, ErrNoProducer)
		}
		s.pops.Add(1)
		return p, nil
	default:
		return nil, fmt.Errorf("%s: %w", s.name, ErrEmpty)
	}
}

// Close marks the end of the producer. Queued packets remain poppable.
// Only the producer may call Close; calling it more than once is safe.
func (s *Stream[T]) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.fifo)
	})
}

// Stats returns a snapshot of the stream's counters.
func (s *Stream[T]) Stats() Stats {
	return Stats{
		Pushes:    s.pushes.Load(),
		Pops:      s.pops.Load(),
		HighWater: s.highWater.Load(),
	}
}

func (s *Stream[T]) checkPush(p Packet[T]) error {
	if len(p) != s.size {
		return fmt.Errorf("%s: %w: got %d elements, want %d", s.name, ErrPacketSize, len(p), s.size)
	}
	if s.closed.Load() {
		return fmt.Errorf("%s: %w", s.name, ErrClosed)
	}
	return nil
}

func (s *Stream[T]) recordPush() {
	s.pushes.Add(1)
	n := int64(len(s.fifo))
	for {
		hw := s.highWater.Load()
		if n <= hw || s.highWater.CompareAndSwap(hw, n) {
			return
		}
	}
}
