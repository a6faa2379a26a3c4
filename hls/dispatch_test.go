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

import "testing"

func TestDispatchLevelString(t *testing.T) {
	tests := []struct {
		level DispatchLevel
		want  string
	}{
		{DispatchScalar, "scalar"},
		{DispatchAVX2, "avx2"},
		{DispatchAVX512, "avx512"},
		{DispatchNEON, "neon"},
		{DispatchSVE, "sve"},
		{DispatchLevel(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("DispatchLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLanes(t *testing.T) {
	if CurrentWidth() <= 0 {
		t.Fatalf("CurrentWidth() = %d, want > 0", CurrentWidth())
	}
	if got, want := Lanes(), max(CurrentWidth()/8, 1); got != want {
		t.Errorf("Lanes() = %d, want %d", got, want)
	}
}

func TestNoSimdEnv(t *testing.T) {
	for _, tc := range []struct {
		val  string
		want bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
		{"yes", true},
	} {
		t.Setenv("HLS_NO_SIMD", tc.val)
		if got := NoSimdEnv(); got != tc.want {
			t.Errorf("HLS_NO_SIMD=%q: NoSimdEnv() = %v, want %v", tc.val, got, tc.want)
		}
	}
}

func TestScalarMode(t *testing.T) {
	level, width := currentLevel, currentWidth
	defer func() { currentLevel, currentWidth = level, width }()

	setScalarMode()
	if CurrentLevel() != DispatchScalar {
		t.Errorf("CurrentLevel() = %v, want scalar", CurrentLevel())
	}
	if Lanes() != 2 {
		t.Errorf("Lanes() = %d in scalar mode, want 2", Lanes())
	}
}
