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
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-hlsdense/hls"
)

func TestNewErrors(t *testing.T) {
	_, err := New[int]("s", 0, 4)
	assert.True(t, errors.Is(err, hls.ErrConfig))
	_, err = New[int]("s", 2, 0)
	assert.True(t, errors.Is(err, hls.ErrConfig))
}

func TestFIFOOrder(t *testing.T) {
	s, err := New[int]("fifo", 2, 4)
	require.NoError(t, err)
	assert.Equal(t, "fifo", s.Name())
	assert.Equal(t, 2, s.PacketSize())
	assert.Equal(t, 4, s.Cap())

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Push(Packet[int]{2 * i, 2*i + 1}))
	}
	assert.Equal(t, 4, s.Len())
	for i := 0; i < 4; i++ {
		p, err := s.Pop()
		require.NoError(t, err)
		assert.Equal(t, Packet[int]{2 * i, 2*i + 1}, p)
	}
}

func TestPushCopiesPacket(t *testing.T) {
	s, err := New[int]("copy", 2, 1)
	require.NoError(t, err)
	p := Packet[int]{1, 2}
	require.NoError(t, s.Push(p))
	p[0] = 99
	got, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, Packet[int]{1, 2}, got)
}

func TestProtocolViolations(t *testing.T) {
	s, err := New[int]("proto", 2, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Push(Packet[int]{1}), ErrPacketSize)
	assert.ErrorIs(t, s.TryPush(Packet[int]{1, 2, 3}), ErrPacketSize)

	_, err = s.TryPop()
	assert.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, s.TryPush(Packet[int]{1, 2}))
	assert.ErrorIs(t, s.TryPush(Packet[int]{3, 4}), ErrFull)

	s.Close()
	s.Close()
	assert.ErrorIs(t, s.Push(Packet[int]{5, 6}), ErrClosed)

	// Packets queued before Close are still delivered.
	p, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, Packet[int]{1, 2}, p)

	_, err = s.Pop()
	assert.ErrorIs(t, err, ErrNoProducer)
	_, err = s.TryPop()
	assert.ErrorIs(t, err, ErrNoProducer)
}

func TestBackpressure(t *testing.T) {
	const n = 1000
	s, err := New[int]("bp", 1, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer s.Close()
		for i := 0; i < n; i++ {
			if err := s.Push(Packet[int]{i}); err != nil {
				t.Errorf("Push(%d): %v", i, err)
				return
			}
		}
	}()

	for i := 0; i < n; i++ {
		p, err := s.Pop()
		require.NoError(t, err)
		require.Equal(t, i, p[0])
	}
	wg.Wait()

	_, err = s.Pop()
	assert.ErrorIs(t, err, ErrNoProducer)

	st := s.Stats()
	assert.Equal(t, int64(n), st.Pushes)
	assert.Equal(t, int64(n), st.Pops)
	assert.LessOrEqual(t, st.HighWater, int64(3))
	assert.GreaterOrEqual(t, st.HighWater, int64(1))
}

func TestHighWater(t *testing.T) {
	s, err := New[int]("hw", 1, 8)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Push(Packet[int]{i}))
	}
	for i := 0; i < 5; i++ {
		_, err := s.Pop()
		require.NoError(t, err)
	}
	require.NoError(t, s.Push(Packet[int]{0}))
	assert.Equal(t, int64(5), s.Stats().HighWater)
}
