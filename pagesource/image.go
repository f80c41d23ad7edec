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
	"image/draw"
	_ "image/jpeg" // for DCTDecode image data
	"io"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"seehuhn.de/go/pdf"
)

// decodedImage is a image XObject converted to pixels.  Regular images
// carry their own colours; stencil masks are combined with the fill
// colour in effect when the image is painted.
type decodedImage struct {
	rgba *image.NRGBA
	mask *image.Alpha
}

// drawImage paints an image XObject into the unit square defined by the
// current transformation matrix.
func (r *renderer) drawImage(obj pdf.Object, stm *pdf.Stream) error {
	ref, hasRef := obj.(pdf.Reference)
	var dec *decodedImage
	cached := false
	if hasRef {
		dec, cached = r.doc.page.images[ref]
	}
	if !cached {
		dec = r.doc.decodeImage(stm)
		if hasRef {
			r.doc.page.images[ref] = dec
		}
	}
	if dec != nil {
		r.paintImage(dec)
	}
	return nil
}

func (r *renderer) paintImage(dec *decodedImage) {
	m := &r.state.ctm
	if math.Abs(m[0]*m[3]-m[1]*m[2]) < 1e-12 {
		// degenerate transform, nothing visible
		return
	}

	switch {
	case dec.rgba != nil:
		b := dec.rgba.Bounds()
		aff := r.imageAff3(float64(b.Dx()), float64(b.Dy()))
		xdraw.BiLinear.Transform(r.dst, aff, dec.rgba, b, draw.Over, nil)
	case dec.mask != nil:
		b := dec.mask.Bounds()
		aff := r.imageAff3(float64(b.Dx()), float64(b.Dy()))
		src := image.NewUniform(r.state.fill)
		xdraw.BiLinear.Transform(r.dst, aff, src, b, draw.Over, &xdraw.Options{
			SrcMask: dec.mask,
		})
	}
}

// imageAff3 maps image pixel coordinates to device pixels.  PDF places
// images into the unit square with the top image row at y=1, so the
// vertical axis is flipped relative to the sample order.
func (r *renderer) imageAff3(w, h float64) f64.Aff3 {
	m := &r.state.ctm
	return f64.Aff3{
		m[0] / w, -m[2] / h, m[2] + m[4],
		m[1] / w, -m[3] / h, m[3] + m[5],
	}
}

// decodeImage converts an image XObject into pixels.  Unsupported
// images (JPEG 2000, exotic filter chains) yield nil and are skipped.
func (d *Document) decodeImage(stm *pdf.Stream) *decodedImage {
	dict := stm.Dict

	wVal, err1 := pdf.GetInteger(d.r, dict["Width"])
	hVal, err2 := pdf.GetInteger(d.r, dict["Height"])
	if err1 != nil || err2 != nil {
		return nil
	}
	w, h := int(wVal), int(hVal)
	if w <= 0 || h <= 0 || w > 1<<15 || h > 1<<15 {
		return nil
	}

	isMask, _ := pdf.GetBool(d.r, dict["ImageMask"])

	bpc := 8
	if dict["BitsPerComponent"] != nil {
		if v, err := pdf.GetInteger(d.r, dict["BitsPerComponent"]); err == nil {
			bpc = int(v)
		}
	}
	if bool(isMask) {
		bpc = 1
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil
	}

	var hasDCT, hasJPX bool
	filters := d.filterNames(dict)
	for _, f := range filters {
		switch f {
		case "DCTDecode", "DCT":
			hasDCT = true
		case "JPXDecode":
			hasJPX = true
		}
	}
	if hasJPX {
		return nil
	}

	if hasDCT {
		if len(filters) != 1 {
			return nil
		}
		raw, err := io.ReadAll(stm.R)
		if err != nil {
			return nil
		}
		src, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil
		}
		rgba := image.NewNRGBA(image.Rect(0, 0, w, h))
		if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
			draw.Draw(rgba, rgba.Bounds(), src, src.Bounds().Min, draw.Src)
		} else {
			xdraw.BiLinear.Scale(rgba, rgba.Bounds(), src, src.Bounds(), draw.Src, nil)
		}
		d.applySoftMask(dict, rgba, w, h)
		return &decodedImage{rgba: rgba}
	}

	body, err := pdf.DecodeStream(d.r, stm, 0)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(body)
	if err != nil && len(data) == 0 {
		return nil
	}

	decodeArr := d.decodeArray(dict)

	if bool(isMask) {
		flip := len(decodeArr) >= 2 && decodeArr[0] == 1
		sr := sampleReader{data: data, rowBytes: (w + 7) / 8, bpc: 1, ncomp: 1}
		mask := image.NewAlpha(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				paint := sr.at(x, y, 0) == 0
				if flip {
					paint = !paint
				}
				if paint {
					mask.Pix[y*mask.Stride+x] = 255
				}
			}
		}
		return &decodedImage{mask: mask}
	}

	cs, ok := d.resolveColorSpace(dict["ColorSpace"])
	if !ok {
		return nil
	}
	n := cs.numValues
	sr := sampleReader{data: data, rowBytes: (w*n*bpc + 7) / 8, bpc: bpc, ncomp: n}
	maxVal := 1<<bpc - 1

	rgba := image.NewNRGBA(image.Rect(0, 0, w, h))

	switch {
	case cs.kind == spaceGray && bpc == 8 && len(decodeArr) == 0:
		for y := 0; y < h && y*sr.rowBytes < len(data); y++ {
			row := data[y*sr.rowBytes:]
			for x := 0; x < w && x < len(row); x++ {
				v := row[x]
				i := y*rgba.Stride + 4*x
				rgba.Pix[i] = v
				rgba.Pix[i+1] = v
				rgba.Pix[i+2] = v
				rgba.Pix[i+3] = 255
			}
		}
	case cs.kind == spaceRGB && bpc == 8 && len(decodeArr) == 0:
		for y := 0; y < h && y*sr.rowBytes < len(data); y++ {
			row := data[y*sr.rowBytes:]
			for x := 0; x < w && 3*x+2 < len(row); x++ {
				i := y*rgba.Stride + 4*x
				rgba.Pix[i] = row[3*x]
				rgba.Pix[i+1] = row[3*x+1]
				rgba.Pix[i+2] = row[3*x+2]
				rgba.Pix[i+3] = 255
			}
		}
	default:
		dmin := make([]float64, n)
		dmax := make([]float64, n)
		for c := 0; c < n; c++ {
			if cs.kind == spaceIndexed {
				dmax[c] = float64(maxVal)
			} else {
				dmax[c] = 1
			}
			if len(decodeArr) >= 2*(c+1) {
				dmin[c] = decodeArr[2*c]
				dmax[c] = decodeArr[2*c+1]
			}
		}
		comps := make([]float64, n)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				for c := 0; c < n; c++ {
					raw := sr.at(x, y, c)
					comps[c] = dmin[c] + float64(raw)*(dmax[c]-dmin[c])/float64(maxVal)
				}
				rgba.Set(x, y, cs.color(comps))
			}
		}
	}

	d.applySoftMask(dict, rgba, w, h)
	return &decodedImage{rgba: rgba}
}

// applySoftMask transfers the alpha channel from the image's SMask
// entry, if there is one of matching size.
func (d *Document) applySoftMask(dict pdf.Dict, rgba *image.NRGBA, w, h int) {
	stm, err := pdf.GetStream(d.r, dict["SMask"])
	if err != nil || stm == nil {
		return
	}
	alpha := d.softMaskAlpha(stm, w, h)
	if alpha == nil {
		return
	}
	for i := 0; i < w*h && i < len(alpha); i++ {
		rgba.Pix[4*i+3] = alpha[i]
	}
}

func (d *Document) softMaskAlpha(stm *pdf.Stream, w, h int) []byte {
	dict := stm.Dict
	mw, err1 := pdf.GetInteger(d.r, dict["Width"])
	mh, err2 := pdf.GetInteger(d.r, dict["Height"])
	if err1 != nil || err2 != nil || int(mw) != w || int(mh) != h {
		return nil
	}

	bpc := 8
	if dict["BitsPerComponent"] != nil {
		if v, err := pdf.GetInteger(d.r, dict["BitsPerComponent"]); err == nil {
			bpc = int(v)
		}
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil
	}

	var hasDCT bool
	filters := d.filterNames(dict)
	for _, f := range filters {
		switch f {
		case "DCTDecode":
			hasDCT = true
		case "JPXDecode":
			return nil
		}
	}

	alpha := make([]byte, w*h)
	if hasDCT {
		if len(filters) != 1 {
			return nil
		}
		raw, err := io.ReadAll(stm.R)
		if err != nil {
			return nil
		}
		src, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil || src.Bounds().Dx() != w || src.Bounds().Dy() != h {
			return nil
		}
		b := src.Bounds()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				alpha[y*w+x] = g.Y
			}
		}
		return alpha
	}

	body, err := pdf.DecodeStream(d.r, stm, 0)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(body)
	if err != nil && len(data) == 0 {
		return nil
	}

	decodeArr := d.decodeArray(dict)
	flip := len(decodeArr) >= 2 && decodeArr[0] == 1

	sr := sampleReader{data: data, rowBytes: (w*bpc + 7) / 8, bpc: bpc, ncomp: 1}
	maxVal := 1<<bpc - 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := sr.at(x, y, 0) * 255 / maxVal
			if flip {
				v = 255 - v
			}
			alpha[y*w+x] = byte(v)
		}
	}
	return alpha
}

// filterNames lists the stream filters, resolving indirect references.
func (d *Document) filterNames(dict pdf.Dict) []pdf.Name {
	obj, err := pdf.Resolve(d.r, dict["Filter"])
	if err != nil {
		return nil
	}
	switch f := obj.(type) {
	case pdf.Name:
		return []pdf.Name{f}
	case pdf.Array:
		var names []pdf.Name
		for _, elem := range f {
			if n, err := pdf.GetName(d.r, elem); err == nil {
				names = append(names, n)
			}
		}
		return names
	}
	return nil
}

func (d *Document) decodeArray(dict pdf.Dict) []float64 {
	arr, err := pdf.GetArray(d.r, dict["Decode"])
	if err != nil || arr == nil {
		return nil
	}
	vals := make([]float64, 0, len(arr))
	for _, elem := range arr {
		v, ok := d.numVal(elem)
		if !ok {
			return nil
		}
		vals = append(vals, v)
	}
	return vals
}

// sampleReader extracts packed image samples.  Rows are padded to byte
// boundaries, 16-bit samples are big-endian.
type sampleReader struct {
	data     []byte
	rowBytes int
	bpc      int
	ncomp    int
}

func (s *sampleReader) at(x, y, c int) int {
	bit := y*s.rowBytes*8 + (x*s.ncomp+c)*s.bpc
	idx := bit >> 3
	switch s.bpc {
	case 8:
		if idx >= len(s.data) {
			return 0
		}
		return int(s.data[idx])
	case 16:
		if idx+1 >= len(s.data) {
			return 0
		}
		return int(s.data[idx])<<8 | int(s.data[idx+1])
	default: // 1, 2, 4
		if idx >= len(s.data) {
			return 0
		}
		shift := 8 - s.bpc - bit&7
		return int(s.data[idx]>>shift) & (1<<s.bpc - 1)
	}
}
