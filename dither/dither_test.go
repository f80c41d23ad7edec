// seehuhn.de/go/printer - convert documents to printer raster streams
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package dither

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOrderedDeterministic(t *testing.T) {
	if diff := cmp.Diff(Ordered(), Ordered()); diff != "" {
		t.Errorf("screen is not deterministic (-want +got):\n%s", diff)
	}
}

func TestThresholdWraps(t *testing.T) {
	m := Ordered()
	for _, pos := range [][2]int{{0, 0}, {13, 7}, {63, 63}, {31, 50}} {
		x, y := pos[0], pos[1]
		want := m.Threshold(x, y)
		if got := m.Threshold(x+64, y); got != want {
			t.Errorf("Threshold(%d+64, %d) = %d, want %d", x, y, got, want)
		}
		if got := m.Threshold(x, y+64); got != want {
			t.Errorf("Threshold(%d, %d+64) = %d, want %d", x, y, got, want)
		}
		if got := m.Threshold(x+640, y+128); got != want {
			t.Errorf("Threshold(%d+640, %d+128) = %d, want %d", x, y, got, want)
		}
	}
}

func TestOrderedCoverage(t *testing.T) {
	m := Ordered()

	// Pure white must never set a bit, so no threshold may reach 255.
	// Pure black must always set a bit, which any value allows.
	var lo, hi uint8 = 255, 0
	for y := range m {
		for x := range m[y] {
			if m[y][x] < lo {
				lo = m[y][x]
			}
			if m[y][x] > hi {
				hi = m[y][x]
			}
		}
	}
	if hi != 254 {
		t.Errorf("maximum threshold is %d, want 254", hi)
	}
	if lo != 0 {
		t.Errorf("minimum threshold is %d, want 0", lo)
	}
}

func TestEncodeRowPacking(t *testing.T) {
	type testCase struct {
		name      string
		screen    *Matrix
		whiteHigh bool
		src       []byte
		x0, y     int
		want      []byte
	}
	cases := []testCase{
		{
			name:   "all black ink",
			screen: Flat(),
			src:    bytes.Repeat([]byte{0}, 16),
			want:   []byte{0xff, 0xff},
		},
		{
			name:   "all white ink",
			screen: Flat(),
			src:    bytes.Repeat([]byte{255}, 16),
			want:   []byte{0x00, 0x00},
		},
		{
			name:   "midpoint is ink",
			screen: Flat(),
			src:    []byte{127, 128, 127, 128, 127, 128, 127, 128},
			want:   []byte{0xaa},
		},
		{
			name:   "partial byte flushed",
			screen: Flat(),
			src:    []byte{0, 0, 0},
			want:   []byte{0xe0},
		},
		{
			name:   "single pixel",
			screen: Flat(),
			src:    []byte{0},
			want:   []byte{0x80},
		},
		{
			name:      "white high all white",
			screen:    Flat(),
			whiteHigh: true,
			src:       bytes.Repeat([]byte{255}, 8),
			want:      []byte{0xff},
		},
		{
			name:      "white high all black",
			screen:    Flat(),
			whiteHigh: true,
			src:       bytes.Repeat([]byte{0}, 8),
			want:      []byte{0x00},
		},
		{
			name:   "white row stays clear",
			screen: Ordered(),
			src:    bytes.Repeat([]byte{255}, 850),
			want:   make([]byte, 107),
		},
		{
			name:   "black row is solid",
			screen: Ordered(),
			src:    bytes.Repeat([]byte{0}, 16),
			want:   []byte{0xff, 0xff},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := &Encoder{Screen: tc.screen, WhiteHigh: tc.whiteHigh}
			dst := make([]byte, (len(tc.src)+7)/8)
			n := e.EncodeRow(dst, tc.src, tc.x0, tc.y)
			if n != len(tc.want) {
				t.Fatalf("EncodeRow wrote %d bytes, want %d", n, len(tc.want))
			}
			if diff := cmp.Diff(tc.want, dst[:n]); diff != "" {
				t.Errorf("wrong bits (-want +got):\n%s", diff)
			}
		})
	}
}

// TestEncodeRowPhase checks that the screen phase depends on absolute
// device coordinates only: a row encoded from column 67 must use the
// same thresholds as columns 67 onwards of a row encoded from zero.
func TestEncodeRowPhase(t *testing.T) {
	e := &Encoder{Screen: Ordered()}

	src := make([]byte, 192)
	for i := range src {
		src[i] = uint8(i * 131)
	}

	whole := make([]byte, len(src)/8)
	e.EncodeRow(whole, src, 0, 5)

	// re-encode the tail starting at column 64 and compare bytes
	tail := make([]byte, 16)
	e.EncodeRow(tail, src[64:], 64, 5)
	if diff := cmp.Diff(whole[8:], tail); diff != "" {
		t.Errorf("phase broken at column 64 (-want +got):\n%s", diff)
	}
}

func TestEncodeRowPure(t *testing.T) {
	e := &Encoder{Screen: Ordered()}

	// the same sample at the same wrapped position must always give
	// the same bit
	src := []byte{200}
	one := make([]byte, 1)
	two := make([]byte, 1)
	for _, pos := range [][2]int{{3, 9}, {17, 40}, {63, 63}} {
		x, y := pos[0], pos[1]
		e.EncodeRow(one, src, x, y)
		e.EncodeRow(two, src, x+64, y+128)
		if one[0] != two[0] {
			t.Errorf("bit at (%d,%d) differs from wrapped position", x, y)
		}
	}
}
