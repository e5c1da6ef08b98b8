/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package filter

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/carverauto/netscope/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWindow() []models.PacketLogEntry {
	return []models.PacketLogEntry{
		{Time: "10:00:01", Proto: "TCP", Src: "192.168.1.5:51000", Dst: "93.184.216.34:443", Size: 60, Flags: "SYN"},
		{Time: "10:00:02", Proto: "UDP", Src: "192.168.1.7:5353", Dst: "224.0.0.251:5353", Size: 120},
		{Time: "10:00:03", Proto: "TCP", Src: "10.0.0.9:22", Dst: "192.168.1.5:60000", Size: 1400, Flags: "ACK,PSH"},
		{Time: "10:00:04", Proto: "DNS", Src: "192.168.1.5:40000", Dst: "1.1.1.1:53", Size: 80},
		{Time: "10:00:05", Proto: "ICMP", Src: "192.168.1.1", Dst: "192.168.1.5", Size: 64, Suspicious: true},
	}
}

func TestApply_DefaultStatePassesEverything(t *testing.T) {
	window := sampleWindow()

	assert.Equal(t, window, Apply(window, NewState()))
}

func TestApply_ProtocolPredicateIsCaseSensitive(t *testing.T) {
	window := append(sampleWindow(), models.PacketLogEntry{Proto: "tcp", Src: "x", Dst: "y"})

	state := State{Protocols: NewProtocolSetOf("TCP")}
	out := Apply(window, state)

	require.Len(t, out, 2)

	for _, e := range out {
		assert.Equal(t, "TCP", e.Proto)
	}
}

func TestApply_TextMatchesSrcDstOrProto(t *testing.T) {
	window := sampleWindow()

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "source ip", query: "10.0.0.9", want: 1},
		{name: "destination ip", query: "1.1.1.1", want: 1},
		{name: "protocol case-insensitive", query: "dns", want: 1},
		{name: "port in address", query: ":443", want: 1},
		{name: "shared host", query: "192.168.1.5", want: 4},
		{name: "nothing", query: "172.16.", want: 0},
		{name: "whitespace only", query: "   ", want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState()
			state.Query = tt.query

			assert.Len(t, Apply(window, state), tt.want)
		})
	}
}

func TestApply_FlagsNeverMatchEmpty(t *testing.T) {
	state := NewState()
	state.Flags = "ack"

	out := Apply(sampleWindow(), state)
	require.Len(t, out, 1)
	assert.Equal(t, "ACK,PSH", out[0].Flags)

	state.Flags = "s"
	out = Apply(sampleWindow(), state)
	require.Len(t, out, 2)
}

func TestApply_Conjunction(t *testing.T) {
	state := State{Protocols: NewProtocolSetOf("TCP", "DNS"), Query: "192.168.1.5", Flags: "syn"}

	out := Apply(sampleWindow(), state)
	require.Len(t, out, 1)
	assert.Equal(t, "10:00:01", out[0].Time)
}

func TestApply_EmptyResultIsNotNil(t *testing.T) {
	state := State{Protocols: NewProtocolSetOf()}

	out := Apply(sampleWindow(), state)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	window := sampleWindow()
	before := append([]models.PacketLogEntry(nil), window...)

	state := NewState()
	state.Query = "tcp"
	_ = Apply(window, state)

	assert.Equal(t, before, window)
}

func TestApply_SubsetAndIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	protos := append([]string{"tcp", "SCTP"}, KnownProtocols...)
	flags := []string{"", "SYN", "ACK", "FIN,ACK", "RST"}

	for round := 0; round < 200; round++ {
		window := make([]models.PacketLogEntry, rng.Intn(40))
		for i := range window {
			window[i] = models.PacketLogEntry{
				Proto: protos[rng.Intn(len(protos))],
				Src:   fmt.Sprintf("10.0.%d.%d", rng.Intn(3), rng.Intn(5)),
				Dst:   fmt.Sprintf("192.168.%d.%d", rng.Intn(3), rng.Intn(5)),
				Flags: flags[rng.Intn(len(flags))],
			}
		}

		enabled := make([]string, 0)
		for _, p := range protos {
			if rng.Intn(2) == 0 {
				enabled = append(enabled, p)
			}
		}

		state := State{
			Protocols: NewProtocolSetOf(enabled...),
			Query:     []string{"", "10.0.1", "192", "tc", "ud"}[rng.Intn(5)],
			Flags:     []string{"", "ack", "syn"}[rng.Intn(3)],
		}

		once := Apply(window, state)
		twice := Apply(once, state)

		assert.Equal(t, once, twice, "round %d", round)
		assertSubsequence(t, window, once)
	}
}

func assertSubsequence(t *testing.T, window, out []models.PacketLogEntry) {
	t.Helper()

	j := 0

	for i := 0; i < len(window) && j < len(out); i++ {
		if window[i] == out[j] {
			j++
		}
	}

	assert.Equal(t, len(out), j, "filtered rows must be an ordered subset of the window")
}

func TestProtocolSet(t *testing.T) {
	s := NewProtocolSet()
	assert.Len(t, s.Names(), len(KnownProtocols))

	assert.False(t, s.Toggle("TCP"))
	assert.False(t, s.Enabled("TCP"))
	assert.True(t, s.Toggle("TCP"))
	assert.True(t, s.Enabled("TCP"))

	clone := s.Clone()
	s.Disable("UDP")
	assert.True(t, clone.Enabled("UDP"))
	assert.False(t, s.Enabled("UDP"))

	s.Enable("SCTP")
	assert.Contains(t, s.Names(), "SCTP")
}

func TestClassifyQuery(t *testing.T) {
	tests := []struct {
		query string
		kind  QueryKind
		param string
	}{
		{query: "192.168.1.5", kind: QueryIP, param: "ip"},
		{query: "10.", kind: QueryIP, param: "ip"},
		{query: "192.168", kind: QueryIP, param: "ip"},
		{query: "443", kind: QueryPort, param: "port"},
		{query: " 53 ", kind: QueryPort, param: "port"},
		{query: "tcp", kind: QueryProtocol, param: "protocol"},
		{query: "1.2.3.4.5", kind: QueryProtocol, param: "protocol"},
		{query: "example.com", kind: QueryProtocol, param: "protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			class := ClassifyQuery(tt.query)
			assert.Equal(t, tt.kind, class.Kind)

			key, value, ok := class.Param()
			require.True(t, ok)
			assert.Equal(t, tt.param, key)
			assert.Equal(t, strings.TrimSpace(tt.query), value)
		})
	}

	_, _, ok := ClassifyQuery("  ").Param()
	assert.False(t, ok)
}

func TestExportCSV(t *testing.T) {
	state := State{Protocols: NewProtocolSetOf("ICMP")}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, Apply(sampleWindow(), state)))

	assert.Equal(t,
		"time,proto,src,dst,size,flags,suspicious\n10:00:05,ICMP,192.168.1.1,192.168.1.5,64,,true\n",
		buf.String())
}
