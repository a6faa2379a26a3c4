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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-hlsdense/hls"
)

func TestPackRoundTrip(t *testing.T) {
	vec := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	for _, size := range []int{1, 2, 3, 4, 6, 12} {
		packets, err := Pack(vec, size)
		require.NoError(t, err, "size %d", size)
		require.Len(t, packets, len(vec)/size)
		for i, p := range packets {
			require.Len(t, p, size)
			assert.Equal(t, i*size, p[0], "packet %d starts on a boundary", i)
		}
		assert.Equal(t, vec, Unpack(packets), "size %d", size)
	}
}

func TestPackNotDivisible(t *testing.T) {
	_, err := Pack([]int{1, 2, 3}, 2)
	assert.True(t, errors.Is(err, hls.ErrConfig))
	_, err = Pack([]int{1, 2}, 0)
	assert.True(t, errors.Is(err, hls.ErrConfig))
}

func TestWriteRead(t *testing.T) {
	s, err := New[int]("wr", 4, 2)
	require.NoError(t, err)

	vec := []int{9, 8, 7, 6, 5, 4, 3, 2}
	require.NoError(t, Write(s, vec))
	assert.Equal(t, int64(2), s.Stats().Pushes)

	got, err := Read(s, len(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	assert.True(t, errors.Is(Write(s, []int{1, 2, 3}), hls.ErrConfig))
	_, err = Read(s, 3)
	assert.True(t, errors.Is(err, hls.ErrConfig))
}

func TestReadShortStream(t *testing.T) {
	s, err := New[int]("short", 2, 4)
	require.NoError(t, err)
	require.NoError(t, Write(s, []int{1, 2}))
	s.Close()

	_, err = Read(s, 4)
	assert.ErrorIs(t, err, ErrNoProducer)
}
