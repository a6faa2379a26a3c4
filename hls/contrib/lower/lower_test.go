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

package lower

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-hlsdense/hls"
	"github.com/ajroetker/go-hlsdense/hls/contrib/schedule"
)

func plan(t *testing.T, mode hls.IOMode) schedule.Plan {
	t.Helper()
	p, err := schedule.New(hls.LayerConfig{
		NIn:          4,
		NOut:         4,
		ReuseFactor:  2,
		IOMode:       mode,
		Input:        hls.MustParseFixedType("ap_fixed<12,4>"),
		Weight:       hls.MustParseFixedType("ap_fixed<8,3>"),
		Bias:         hls.MustParseFixedType("ap_fixed<8,3>"),
		Accum:        hls.MustParseFixedType("ap_fixed<24,12>"),
		Output:       hls.MustParseFixedType("ap_fixed<16,6,AP_RND,AP_SAT>"),
		InputPacket:  2,
		OutputPacket: 4,
	})
	require.NoError(t, err)
	return p
}

func TestDescribeParallel(t *testing.T) {
	p := plan(t, hls.IOParallel)
	d := Describe("fc1", p)

	assert.Equal(t, "io_parallel", d.IOType)
	assert.Equal(t, 16, d.NNonZeros)
	assert.Equal(t, Plan{
		Strategy:           "parallel",
		MultiplierLimit:    8,
		InitiationInterval: 2,
		Latency:            8,
	}, d.Plan)
	assert.Equal(t, []FIFO{
		{Name: "fc1_input", Depth: 2, PacketSize: 2, ElementType: "ap_fixed<12,4>", ElementBits: 16, BusBits: 32},
		{Name: "fc1_output", Depth: 2, PacketSize: 4, ElementType: "ap_fixed<16,6,AP_RND,AP_SAT>", ElementBits: 16, BusBits: 64},
	}, d.FIFOs)
	assert.Equal(t, "ap_fixed<24,12>", d.Types.Accum)
}

func TestDescribeSerial(t *testing.T) {
	p := plan(t, hls.IOSerial)
	d := Describe("fc1", p)

	assert.Equal(t, "serial", d.Plan.Strategy)
	assert.Equal(t, 2, d.Plan.ColumnLimit)
	assert.Equal(t, 2, d.Plan.InitiationInterval)
	assert.Equal(t, 14, d.Plan.Latency)
}

func TestStagesSumToLatency(t *testing.T) {
	for _, mode := range []hls.IOMode{hls.IOParallel, hls.IOSerial} {
		d := Describe("fc", plan(t, mode))
		var names []string
		total := 0
		for _, s := range d.Stages {
			names = append(names, s.Name)
			total += s.Cycles
		}
		assert.Equal(t, []string{"UNPACK", "COMPUTE", "ACCUMULATE", "QUANTIZE", "PACK"}, names)
		assert.Equal(t, d.Plan.Latency, total, mode.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Describe("fc1", plan(t, hls.IOParallel))))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "fc1", got["name"])
	assert.Equal(t, float64(2), got["reuse_factor"])
	planInfo := got["plan"].(map[string]any)
	assert.Equal(t, float64(8), planInfo["multiplier_limit"])
	assert.NotContains(t, planInfo, "column_limit")

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, Describe("fc1", plan(t, hls.IOSerial))))
	assert.Contains(t, buf.String(), `"column_limit": 2`)
}

func TestWriteConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConfig(&buf, Describe("fc1", plan(t, hls.IOSerial))))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "struct fc1_config : nnet::dense_config {\n"), out)
	for _, line := range []string{
		"    static const unsigned n_in = 4;\n",
		"    static const unsigned io_type = nnet::io_serial;\n",
		"    static const unsigned multiplier_limit = 8;\n",
		"    static const unsigned column_limit = 2;\n",
		"    static const unsigned input_packet = 2;\n",
		"    static const unsigned output_packet = 4;\n",
		"    typedef ap_fixed<24,12> accum_t;\n",
		"    typedef ap_fixed<16,6,AP_RND,AP_SAT> result_t;\n",
	} {
		assert.Contains(t, out, line)
	}
	assert.True(t, strings.HasSuffix(out, "};\n"))

	buf.Reset()
	require.NoError(t, WriteConfig(&buf, Describe("fc2", plan(t, hls.IOParallel))))
	assert.NotContains(t, buf.String(), "column_limit")
	assert.Contains(t, buf.String(), "multiplier_limit = 8;\n    static const unsigned input_packet")

	assert.Error(t, WriteConfig(&buf, Description{Name: "broken"}))
}
