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

// Package dither converts 8-bit gray samples to 1-bit output using
// ordered dithering with a 64x64 threshold screen.
package dither

import (
	"math"
	"sort"
)

// A Matrix is a 64x64 threshold screen.  Entry [y][x] is compared
// against the gray sample at device position (x, y); both coordinates
// wrap every 64 pixels, so the screen tiles seamlessly across the
// page.
type Matrix [64][64]uint8

// Threshold returns the screen value for device position (x, y).
func (m *Matrix) Threshold(x, y int) uint8 {
	return m[y&63][x&63]
}

// Flat returns a uniform 50% screen.  Every sample is cut at the
// midpoint, which turns continuous-tone input into plain black and
// white.  This is the screen for bi-level output.
func Flat() *Matrix {
	m := new(Matrix)
	for y := range m {
		for x := range m[y] {
			m[y][x] = 127
		}
	}
	return m
}

// Ordered returns a clustered-dot screen.  Dots grow outward from
// centres spaced 16 pixels apart; clustered dots tolerate dot gain on
// laser printers better than dispersed patterns.
func Ordered() *Matrix {
	type cell struct {
		x, y int
		dist int
		ang  float64
	}

	// rank the cells of one 16x16 tile by distance from the tile
	// centre, ties resolved by angle so the dot stays round
	cells := make([]cell, 0, 256)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			dx := 2*x - 15
			dy := 2*y - 15
			cells = append(cells, cell{
				x:    x,
				y:    y,
				dist: dx*dx + dy*dy,
				ang:  math.Atan2(float64(dy), float64(dx)),
			})
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].dist != cells[j].dist {
			return cells[i].dist < cells[j].dist
		}
		return cells[i].ang < cells[j].ang
	})

	// The centre cell gets the highest threshold so that dots appear
	// there first as the input darkens.  Thresholds stop at 254: a
	// pure white sample must never set a bit.
	m := new(Matrix)
	for rank, c := range cells {
		t := 254 - rank
		if t < 0 {
			t = 0
		}
		for ty := 0; ty < 64; ty += 16 {
			for tx := 0; tx < 64; tx += 16 {
				m[c.y+ty][c.x+tx] = uint8(t)
			}
		}
	}
	return m
}

// An Encoder packs rows of 8-bit gray samples into 1-bit rows.
type Encoder struct {
	Screen *Matrix

	// WhiteHigh selects the sense of the packed bits.  When false, a
	// set bit means ink, as in the black colorspaces.  When true, a
	// set bit means white, as in sGray.
	WhiteHigh bool
}

// EncodeRow packs the samples in src into dst, most significant bit
// first, and returns the number of bytes written.  The final partial
// byte, if any, is zero padded.
//
// x0 and y give the device position of src[0].  The screen phase
// follows absolute device coordinates, so encoding a row in pieces
// gives the same bits as encoding it whole.
//
// dst must have room for (len(src)+7)/8 bytes.
func (e *Encoder) EncodeRow(dst, src []byte, x0, y int) int {
	row := &e.Screen[y&63]

	var n int
	b := byte(0)
	bit := byte(128)
	for i, s := range src {
		t := row[(x0+i)&63]
		if e.WhiteHigh {
			if s > t {
				b |= bit
			}
		} else if s <= t {
			b |= bit
		}

		if bit == 1 {
			dst[n] = b
			n++
			b = 0
			bit = 128
		} else {
			bit >>= 1
		}
	}
	if bit != 128 {
		dst[n] = b
		n++
	}
	return n
}
