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
	"io"

	"seehuhn.de/go/pdf"
)

type spaceKind int

const (
	spaceGray spaceKind = iota
	spaceRGB
	spaceCMYK
	spaceSeparation
	spaceIndexed
	spaceOther
)

// colorSpace is a renderable approximation of a PDF colour space.
// ICCBased spaces are mapped to the device space with the same number
// of components, Separation and DeviceN tints darken proportionally,
// and everything else renders as black.
type colorSpace struct {
	kind      spaceKind
	numValues int

	// for Indexed spaces
	base   *colorSpace
	hival  int
	lookup []byte
}

// namedColorSpace handles the colour spaces which can be selected by
// name alone, without a resource dictionary entry.  The one-letter
// names are the abbreviations used by inline images.
func namedColorSpace(name pdf.Name) (colorSpace, bool) {
	switch name {
	case "DeviceGray", "CalGray", "G":
		return colorSpace{kind: spaceGray, numValues: 1}, true
	case "DeviceRGB", "CalRGB", "RGB":
		return colorSpace{kind: spaceRGB, numValues: 3}, true
	case "DeviceCMYK", "CMYK":
		return colorSpace{kind: spaceCMYK, numValues: 4}, true
	case "Pattern":
		return colorSpace{kind: spaceOther, numValues: 1}, true
	}
	return colorSpace{}, false
}

// resolveColorSpaceName looks up a colour space operand of the cs/CS
// operators, consulting the resource dictionary for non-device spaces.
func (d *Document) resolveColorSpaceName(res pdf.Dict, name pdf.Name) colorSpace {
	if cs, ok := namedColorSpace(name); ok {
		return cs
	}
	if res != nil {
		spaces, err := pdf.GetDict(d.r, res["ColorSpace"])
		if err == nil && spaces != nil {
			if cs, ok := d.resolveColorSpace(spaces[name]); ok {
				return cs
			}
		}
	}
	return colorSpace{kind: spaceOther, numValues: 1}
}

// resolveColorSpace interprets a colour space object, either a name or
// an array like [/ICCBased stream] or [/Indexed base hival lookup].
func (d *Document) resolveColorSpace(obj pdf.Object) (colorSpace, bool) {
	obj, err := pdf.Resolve(d.r, obj)
	if err != nil {
		return colorSpace{}, false
	}

	switch cs := obj.(type) {
	case pdf.Name:
		return namedColorSpace(cs)

	case pdf.Array:
		if len(cs) == 0 {
			return colorSpace{}, false
		}
		family, err := pdf.GetName(d.r, cs[0])
		if err != nil {
			return colorSpace{}, false
		}
		switch family {
		case "ICCBased":
			n := 0
			if len(cs) >= 2 {
				if stm, err := pdf.GetStream(d.r, cs[1]); err == nil && stm != nil {
					if v, err := pdf.GetInteger(d.r, stm.Dict["N"]); err == nil {
						n = int(v)
					}
				}
			}
			switch n {
			case 1:
				return colorSpace{kind: spaceGray, numValues: 1}, true
			case 3:
				return colorSpace{kind: spaceRGB, numValues: 3}, true
			case 4:
				return colorSpace{kind: spaceCMYK, numValues: 4}, true
			}
			return colorSpace{kind: spaceOther, numValues: max(n, 1)}, true

		case "Indexed", "I":
			if len(cs) < 4 {
				return colorSpace{}, false
			}
			base, ok := d.resolveColorSpace(cs[1])
			if !ok {
				return colorSpace{}, false
			}
			hival, _ := pdf.GetInteger(d.r, cs[2])
			lookup := d.lookupTable(cs[3])
			return colorSpace{
				kind:      spaceIndexed,
				numValues: 1,
				base:      &base,
				hival:     int(hival),
				lookup:    lookup,
			}, true

		case "Separation":
			return colorSpace{kind: spaceSeparation, numValues: 1}, true

		case "DeviceN":
			n := 1
			if len(cs) >= 2 {
				if names, err := pdf.GetArray(d.r, cs[1]); err == nil && len(names) > 0 {
					n = len(names)
				}
			}
			return colorSpace{kind: spaceSeparation, numValues: n}, true

		case "CalGray":
			return colorSpace{kind: spaceGray, numValues: 1}, true
		case "CalRGB":
			return colorSpace{kind: spaceRGB, numValues: 3}, true
		case "Lab":
			return colorSpace{kind: spaceOther, numValues: 3}, true
		case "Pattern":
			return colorSpace{kind: spaceOther, numValues: 1}, true
		}
	}
	return colorSpace{}, false
}

// lookupTable reads the palette of an Indexed colour space, which may be
// given as a string or as a stream.
func (d *Document) lookupTable(obj pdf.Object) []byte {
	obj, err := pdf.Resolve(d.r, obj)
	if err != nil {
		return nil
	}
	switch table := obj.(type) {
	case pdf.String:
		return []byte(table)
	case *pdf.Stream:
		body, err := pdf.DecodeStream(d.r, table, 0)
		if err != nil {
			return nil
		}
		data, _ := io.ReadAll(body)
		return data
	}
	return nil
}

// color converts component values in the range [0, 1] (or a palette
// index, for Indexed spaces) into a Go colour.
func (cs *colorSpace) color(v []float64) color.Color {
	if len(v) < cs.numValues {
		return color.Black
	}
	switch cs.kind {
	case spaceGray:
		return color.Gray{Y: unitByte(v[0])}
	case spaceRGB:
		return color.RGBA{
			R: unitByte(v[0]),
			G: unitByte(v[1]),
			B: unitByte(v[2]),
			A: 255,
		}
	case spaceCMYK:
		return color.CMYK{
			C: unitByte(v[0]),
			M: unitByte(v[1]),
			Y: unitByte(v[2]),
			K: unitByte(v[3]),
		}
	case spaceSeparation:
		tint := v[0]
		for _, x := range v[1:cs.numValues] {
			tint = max(tint, x)
		}
		return color.Gray{Y: unitByte(1 - tint)}
	case spaceIndexed:
		return cs.indexedColor(int(v[0] + 0.5))
	}
	return color.Black
}

func (cs *colorSpace) indexedColor(idx int) color.Color {
	base := cs.base
	if base == nil {
		return color.Black
	}
	if idx < 0 {
		idx = 0
	}
	if cs.hival >= 0 && idx > cs.hival {
		idx = cs.hival
	}
	n := base.numValues
	off := idx * n
	if off < 0 || off+n > len(cs.lookup) {
		return color.Black
	}
	comps := make([]float64, n)
	for i := range comps {
		comps[i] = float64(cs.lookup[off+i]) / 255
	}
	return base.color(comps)
}

// initialColor is the colour selected by the cs/CS operators: black in
// the device spaces, full tint for separations, index 0 for palettes.
func (cs *colorSpace) initialColor() color.Color {
	switch cs.kind {
	case spaceCMYK:
		return color.CMYK{K: 255}
	case spaceIndexed:
		return cs.indexedColor(0)
	}
	return color.Black
}

// parseColor interprets the operands of the sc/scn/SC/SCN operators.
// A trailing name selects a pattern, which renders as black.
func parseColor(cs colorSpace, args []pdf.Object) (color.Color, bool) {
	if len(args) >= 1 {
		if _, isName := args[len(args)-1].(pdf.Name); isName {
			return color.Black, true
		}
	}
	v, ok := getNums(args, cs.numValues)
	if !ok {
		return nil, false
	}
	return cs.color(v), true
}

func unitByte(x float64) uint8 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 255
	}
	return uint8(x*255 + 0.5)
}
