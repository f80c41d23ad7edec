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

package printer

import (
	"seehuhn.de/go/geom/matrix"
)

// pageGeometry describes the output page for placement decisions.
type pageGeometry struct {
	widthPx  int     // raster width in pixels
	heightPx int     // raster height in pixels
	width    float64 // media width in points
	height   float64 // media height in points
}

// placement returns the transform which places content of the given
// size onto the page.  Content and page coordinates are both in
// points, with the origin at the bottom left corner.
//
// Content is rotated by 90 degrees when its orientation does not match
// the page, scaled according to the print-scaling policy, and
// centered.  With "fit", the content is shrunk or enlarged to the
// printable area; with "fill" it covers the whole page, cropping
// whatever extends beyond the edges; with "none" it keeps its size.
func placement(g pageGeometry, srcW, srcH float64, scaling string, borderless bool) matrix.Matrix {
	rotate := (srcH < srcW && g.widthPx < g.heightPx) ||
		(srcW < srcH && g.heightPx < g.widthPx)

	w, h := srcW, srcH
	if rotate {
		w, h = srcH, srcW
	}

	var scale float64
	switch scaling {
	case "fill":
		scale = max(g.width/w, g.height/h)
	case "fit":
		availW, availH := g.width, g.height
		if !borderless {
			// leave a quarter inch on each side
			availW -= 36
			availH -= 36
		}
		scale = min(availW/w, availH/h)
	default:
		scale = 1
	}

	tx := 0.5 * (g.width - scale*w)
	ty := 0.5 * (g.height - scale*h)

	m := matrix.Matrix{scale, 0, 0, scale, tx, ty}
	if rotate {
		m = matrix.Matrix{0, -1, 1, 0, 0, srcW}.Mul(m)
	}
	return m
}

// backTransform returns the flip applied to the back sides of sheets
// in duplex mode, compensating for the way the printer turns the
// sheet.  The transform operates on page coordinates in points.
func backTransform(g pageGeometry, sheetBack string, tumble bool) matrix.Matrix {
	switch {
	case sheetBack == "flipped" && tumble:
		return matrix.Matrix{-1, 0, 0, 1, g.width, 0}
	case sheetBack == "flipped":
		return matrix.Matrix{1, 0, 0, -1, 0, g.height}
	case sheetBack == "manual-tumble" && tumble,
		sheetBack == "rotated" && !tumble:
		return matrix.Matrix{-1, 0, 0, -1, g.width, g.height}
	}
	return matrix.Identity
}
