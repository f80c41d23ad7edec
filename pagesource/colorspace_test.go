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

package pagesource

import (
	"image/color"
	"testing"
)

func TestColorValues(t *testing.T) {
	gray := colorSpace{kind: spaceGray, numValues: 1}
	rgb := colorSpace{kind: spaceRGB, numValues: 3}
	cmyk := colorSpace{kind: spaceCMYK, numValues: 4}
	sep := colorSpace{kind: spaceSeparation, numValues: 1}

	tests := []struct {
		name string
		cs   colorSpace
		v    []float64
		want color.Color
	}{
		{"white", gray, []float64{1}, color.Gray{Y: 255}},
		{"mid grey", gray, []float64{0.5}, color.Gray{Y: 128}},
		{"red", rgb, []float64{1, 0, 0}, color.RGBA{R: 255, A: 255}},
		{"rich black", cmyk, []float64{0, 0, 0, 1}, color.CMYK{K: 255}},
		{"full tint", sep, []float64{1}, color.Gray{Y: 0}},
		{"no tint", sep, []float64{0}, color.Gray{Y: 255}},
		{"clamped", gray, []float64{1.5}, color.Gray{Y: 255}},
		{"negative", gray, []float64{-0.25}, color.Gray{Y: 0}},
		{"missing values", rgb, []float64{1}, color.Black},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := test.cs.color(test.v)
			if got != test.want {
				t.Errorf("color(%v) = %v, want %v", test.v, got, test.want)
			}
		})
	}
}

func TestIndexedColor(t *testing.T) {
	rgb := colorSpace{kind: spaceRGB, numValues: 3}
	cs := colorSpace{
		kind:      spaceIndexed,
		numValues: 1,
		base:      &rgb,
		hival:     1,
		lookup:    []byte{255, 0, 0, 0, 255, 0},
	}

	tests := []struct {
		idx  float64
		want color.Color
	}{
		{0, color.RGBA{R: 255, A: 255}},
		{1, color.RGBA{G: 255, A: 255}},
		{5, color.RGBA{G: 255, A: 255}}, // clamped to hival
		{-2, color.RGBA{R: 255, A: 255}},
	}
	for _, test := range tests {
		got := cs.color([]float64{test.idx})
		if got != test.want {
			t.Errorf("index %g: got %v, want %v", test.idx, got, test.want)
		}
	}

	// a palette which is too short must not be read out of bounds
	short := colorSpace{
		kind:      spaceIndexed,
		numValues: 1,
		base:      &rgb,
		hival:     3,
		lookup:    []byte{255, 0, 0},
	}
	if got := short.color([]float64{2}); got != color.Black {
		t.Errorf("out of range palette entry: got %v, want black", got)
	}
}

func TestInitialColor(t *testing.T) {
	cmyk := colorSpace{kind: spaceCMYK, numValues: 4}
	if got := cmyk.initialColor(); got != (color.CMYK{K: 255}) {
		t.Errorf("CMYK initial color = %v", got)
	}

	gray := colorSpace{kind: spaceGray, numValues: 1}
	if got := gray.initialColor(); got != color.Black {
		t.Errorf("gray initial color = %v, want black", got)
	}

	rgb := colorSpace{kind: spaceRGB, numValues: 3}
	indexed := colorSpace{
		kind:      spaceIndexed,
		numValues: 1,
		base:      &rgb,
		hival:     1,
		lookup:    []byte{0, 0, 255, 255, 255, 255},
	}
	if got := indexed.initialColor(); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("indexed initial color = %v, want first palette entry", got)
	}
}
