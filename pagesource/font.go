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
	"bytes"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/font/gofont/goregular"
	"seehuhn.de/go/geom/matrix"
	geompath "seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/glyph"
)

// glyphLookup maps unicode code points to glyph IDs.
type glyphLookup interface {
	Lookup(r rune) glyph.ID
}

// glyphSource describes one font of the document in the form needed for
// rendering: glyph outlines, a way to map character codes to glyphs, and
// the widths from the PDF font dictionary.
//
// Fonts without an sfnt-compatible glyph program (Type 1, bare CFF,
// Type 3) use outlines from a built-in substitute instead; if not even
// the substitute can represent a code, glyphs degrade to placeholder
// boxes.
type glyphSource struct {
	composite bool // two-byte character codes, identity CID encoding
	sub       bool // outlines come from the substitute font

	font *sfnt.Font
	cmap glyphLookup
	upem float64

	widths   map[int]float64 // glyph widths by character code, in text space
	defWidth float64
	cid2gid  []byte
}

// loadFont returns the font registered under the given name in the
// resource dictionary, or nil if the font cannot be used.
func (d *Document) loadFont(res pdf.Dict, name pdf.Name) *glyphSource {
	fonts, err := pdf.GetDict(d.r, res["Font"])
	if err != nil || fonts == nil {
		return nil
	}
	obj := fonts[name]
	if ref, ok := obj.(pdf.Reference); ok {
		if f, ok := d.fonts[ref]; ok {
			return f
		}
		f := d.loadFontDict(obj)
		d.fonts[ref] = f
		return f
	}
	return d.loadFontDict(obj)
}

// loadFontDict builds a glyphSource from a PDF font dictionary.
func (d *Document) loadFontDict(obj pdf.Object) *glyphSource {
	fdict, err := pdf.GetDictTyped(d.r, obj, "Font")
	if err != nil || fdict == nil {
		return nil
	}

	f := &glyphSource{
		widths:   make(map[int]float64),
		defWidth: 0.5,
	}

	subtype, _ := pdf.GetName(d.r, fdict["Subtype"])

	var desc pdf.Dict
	if subtype == "Type0" {
		descFonts, err := pdf.GetArray(d.r, fdict["DescendantFonts"])
		if err != nil || len(descFonts) == 0 {
			return nil
		}
		cidFont, err := pdf.GetDictTyped(d.r, descFonts[0], "Font")
		if err != nil || cidFont == nil {
			return nil
		}
		f.composite = true
		desc, _ = pdf.GetDict(d.r, cidFont["FontDescriptor"])
		d.readCompositeWidths(f, cidFont)

		if c2g, err := pdf.GetStream(d.r, cidFont["CIDToGIDMap"]); err == nil && c2g != nil {
			if body, err := pdf.DecodeStream(d.r, c2g, 0); err == nil {
				f.cid2gid, _ = io.ReadAll(body)
			}
		}
	} else {
		desc, _ = pdf.GetDict(d.r, fdict["FontDescriptor"])
		d.readSimpleWidths(f, fdict, desc)
	}

	d.readGlyphProgram(f, desc)

	if f.font == nil && !f.composite {
		// substitute outlines keep the text legible even though the
		// glyph shapes will not match the original font
		f.font, f.cmap = d.substituteFont()
		if f.font != nil {
			f.sub = true
			f.upem = float64(f.font.UnitsPerEm)
		}
	}
	return f
}

// readGlyphProgram loads the embedded glyph outlines from the font
// descriptor.  Only sfnt-based font programs (TrueType and OpenType)
// can be used directly.
func (d *Document) readGlyphProgram(f *glyphSource, desc pdf.Dict) {
	if desc == nil {
		return
	}

	stm, err := pdf.GetStream(d.r, desc["FontFile2"])
	if err != nil || stm == nil {
		stm, err = pdf.GetStream(d.r, desc["FontFile3"])
		if err != nil || stm == nil {
			return
		}
		st, _ := pdf.GetName(d.r, stm.Dict["Subtype"])
		if st != "OpenType" {
			// bare CFF or Type 1C data, not readable as sfnt
			return
		}
	}

	body, err := pdf.DecodeStream(d.r, stm, 0)
	if err != nil {
		return
	}
	font, err := sfnt.Read(body)
	if err != nil {
		return
	}
	f.font = font
	f.upem = float64(font.UnitsPerEm)
	if sub, err := font.CMapTable.GetBest(); err == nil {
		f.cmap = sub
	}
}

// readSimpleWidths fills in the width table of a simple font from the
// FirstChar/Widths arrays (character codes 0 to 255).
func (d *Document) readSimpleWidths(f *glyphSource, fdict, desc pdf.Dict) {
	widths, err := pdf.GetArray(d.r, fdict["Widths"])
	if err != nil || len(widths) == 0 {
		// no width information at all; keep the heuristic default
		return
	}
	firstChar, err := pdf.GetInteger(d.r, fdict["FirstChar"])
	if err != nil {
		return
	}

	f.defWidth = 0
	if desc != nil && desc["MissingWidth"] != nil {
		if mw, err := pdf.GetNumber(d.r, desc["MissingWidth"]); err == nil {
			f.defWidth = float64(mw) / 1000
		}
	}
	for i, wObj := range widths {
		w, ok := d.numVal(wObj)
		if !ok {
			continue
		}
		f.widths[int(firstChar)+i] = w / 1000
	}
}

// readCompositeWidths fills in the width table of a CIDFont from the
// W array.  Entries have the form "c [w1 w2 ...]" or "cFirst cLast w".
func (d *Document) readCompositeWidths(f *glyphSource, cidFont pdf.Dict) {
	f.defWidth = 1
	if dw, err := pdf.GetNumber(d.r, cidFont["DW"]); err == nil && cidFont["DW"] != nil {
		f.defWidth = float64(dw) / 1000
	}

	wArr, err := pdf.GetArray(d.r, cidFont["W"])
	if err != nil {
		return
	}
	i := 0
	for i+1 < len(wArr) {
		first, ok := d.numVal(wArr[i])
		if !ok {
			return
		}
		second, err := pdf.Resolve(d.r, wArr[i+1])
		if err != nil {
			return
		}
		if wList, isArr := second.(pdf.Array); isArr {
			for j, wObj := range wList {
				if w, ok := d.numVal(wObj); ok {
					f.widths[int(first)+j] = w / 1000
				}
			}
			i += 2
		} else {
			if i+2 >= len(wArr) {
				return
			}
			last, ok1 := toFloat(second)
			w, ok2 := d.numVal(wArr[i+2])
			if !ok1 || !ok2 {
				return
			}
			for c := int(first); c <= int(last) && c-int(first) < 65536; c++ {
				f.widths[c] = w / 1000
			}
			i += 3
		}
	}
}

// numVal resolves obj and converts it to a number.
func (d *Document) numVal(obj pdf.Object) (float64, bool) {
	res, err := pdf.Resolve(d.r, obj)
	if err != nil {
		return 0, false
	}
	return toFloat(res)
}

// substituteFont lazily loads the built-in replacement font.
func (d *Document) substituteFont() (*sfnt.Font, glyphLookup) {
	if !d.substLoaded {
		d.substLoaded = true
		font, err := sfnt.Read(bytes.NewReader(goregular.TTF))
		if err == nil {
			d.subst = font
			if sub, err := font.CMapTable.GetBest(); err == nil {
				d.substCmap = sub
			}
		}
	}
	return d.subst, d.substCmap
}

// width returns the advance width for a character code, in text space
// units.
func (f *glyphSource) width(code int) float64 {
	if w, ok := f.widths[code]; ok {
		return w
	}
	return f.defWidth
}

// glyphID maps a character code to a glyph.
func (f *glyphSource) glyphID(code int) glyph.ID {
	if f.composite {
		cid := code
		if len(f.cid2gid) >= 2*cid+2 {
			return glyph.ID(f.cid2gid[2*cid])<<8 | glyph.ID(f.cid2gid[2*cid+1])
		}
		return glyph.ID(cid)
	}
	if f.cmap != nil {
		if g := f.cmap.Lookup(rune(code)); g != 0 {
			return g
		}
		// symbolic fonts often use the 0xF000 private use area
		if g := f.cmap.Lookup(rune(0xF000 + code)); g != 0 {
			return g
		}
	}
	if f.sub {
		return 0
	}
	return glyph.ID(code)
}

// showText renders a string using the current text state and advances
// the text matrix.
func (r *renderer) showText(s pdf.String) {
	f := r.state.font
	size := r.state.fontSize
	if f == nil && size <= 0 {
		return
	}

	i := 0
	for i < len(s) {
		var code int
		var isSpace bool
		if f != nil && f.composite {
			if i+1 < len(s) {
				code = int(s[i])<<8 | int(s[i+1])
			} else {
				code = int(s[i]) << 8
			}
			i += 2
		} else {
			code = int(s[i])
			isSpace = code == 32
			i++
		}

		w := 0.5
		if f != nil {
			w = f.width(code)
		}

		if r.state.renderMode != 3 && r.state.renderMode != 7 {
			col := r.state.fill
			if r.state.renderMode == 1 || r.state.renderMode == 5 {
				col = r.state.stroke
			}
			r.drawGlyph(f, code, w, col)
		}

		adv := w*size + r.state.charSpace
		if isSpace {
			adv += r.state.wordSpace
		}
		adv *= r.state.hscale
		r.tm = matrix.Translate(adv, 0).Mul(r.tm)
	}
}

// drawGlyph paints a single glyph at the current text position.
func (r *renderer) drawGlyph(f *glyphSource, code int, w float64, col color.Color) {
	size := r.state.fontSize

	if f != nil && f.font != nil && f.font.Outlines != nil && f.upem > 0 {
		gid := f.glyphID(code)
		if gid == 0 && f.sub {
			// the substitute font cannot represent this code
			return
		}
		scale := size / f.upem
		m := matrix.Matrix{scale * r.state.hscale, 0, 0, scale, 0, r.state.rise}.
			Mul(r.tm).Mul(r.state.ctm)

		r.ras.Reset(r.width, r.height)
		drawn := false
		for cmd, points := range f.font.Outlines.Path(gid) {
			switch cmd {
			case geompath.CmdMoveTo:
				x, y := r.glyphPoint(points[0], m)
				r.ras.MoveTo(x, y)
				drawn = true
			case geompath.CmdLineTo:
				x, y := r.glyphPoint(points[0], m)
				r.ras.LineTo(x, y)
			case geompath.CmdQuadTo:
				x1, y1 := r.glyphPoint(points[0], m)
				x2, y2 := r.glyphPoint(points[1], m)
				r.ras.QuadTo(x1, y1, x2, y2)
			case geompath.CmdCubeTo:
				x1, y1 := r.glyphPoint(points[0], m)
				x2, y2 := r.glyphPoint(points[1], m)
				x3, y3 := r.glyphPoint(points[2], m)
				r.ras.CubeTo(x1, y1, x2, y2, x3, y3)
			case geompath.CmdClose:
				r.ras.ClosePath()
			}
		}
		if drawn {
			r.ras.Draw(r.dst, r.dst.Bounds(), image.NewUniform(col), image.Point{})
		}
		return
	}

	// no usable outlines, draw a box covering the glyph cell
	m := matrix.Matrix{r.state.hscale, 0, 0, 1, 0, r.state.rise}.
		Mul(r.tm).Mul(r.state.ctm)
	ws := w * size
	r.ras.Reset(r.width, r.height)
	x0, y0 := r.textPoint(0, 0, m)
	x1, y1 := r.textPoint(ws, 0, m)
	x2, y2 := r.textPoint(ws, size, m)
	x3, y3 := r.textPoint(0, size, m)
	r.ras.MoveTo(x0, y0)
	r.ras.LineTo(x1, y1)
	r.ras.LineTo(x2, y2)
	r.ras.LineTo(x3, y3)
	r.ras.ClosePath()
	r.ras.Draw(r.dst, r.dst.Bounds(), image.NewUniform(col), image.Point{})
}

func (r *renderer) glyphPoint(v vec.Vec2, m matrix.Matrix) (float32, float32) {
	x := m[0]*v.X + m[2]*v.Y + m[4] - r.offX
	y := m[1]*v.X + m[3]*v.Y + m[5] - r.offY
	return float32(x), float32(y)
}

func (r *renderer) textPoint(tx, ty float64, m matrix.Matrix) (float32, float32) {
	x := m[0]*tx + m[2]*ty + m[4] - r.offX
	y := m[1]*tx + m[3]*ty + m[5] - r.offY
	return float32(x), float32(y)
}
