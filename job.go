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
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/printer/raster"
)

// A PageSource provides document pages for rendering.  Sources are
// used from a single goroutine: LoadPage selects a page, and the
// other methods refer to the selected page.
type PageSource interface {
	// NumPages returns the number of pages in the document.
	NumPages() int

	// LoadPage prepares the given page for rendering.  Pages are
	// numbered starting at 1.
	LoadPage(pageNo int) error

	// ContentBox returns the visible area of the loaded page in
	// points, in upright page coordinates.
	ContentBox() rect.Rect

	// Transform returns the matrix which maps raw page coordinates
	// to upright page coordinates.  For sources without a native
	// rotation this is the identity.
	Transform() matrix.Matrix

	// Render draws the loaded page onto dst.  The matrix maps raw
	// page coordinates to pixels; the bounds of dst select the band
	// of the page to draw.
	Render(dst draw.Image, m matrix.Matrix) error
}

// defaultMaxRaster limits the band buffer size when Setup.MaxRaster
// is zero.
const defaultMaxRaster = 16 * 1024 * 1024

// A Job renders the pages of a document to a printer backend.
type Job struct {
	Setup *Setup

	// Log receives progress and diagnostic messages.  If Log is nil,
	// messages are discarded.
	Log *slog.Logger
}

// A Summary reports the amount of output a job produced.
type Summary struct {
	Pages       int // pages per copy, including any pad page
	Impressions int // sides printed, over all copies
	Sheets      int // sheets of media completed
}

// Run converts the document to printer output.  Pages are rendered in
// bands to limit memory use.  Each copy restarts the page sequence,
// so that back sides of sheets stay aligned in duplex mode.
//
// Rendering errors abort the job; output written so far remains with
// the backend.
func (j *Job) Run(src PageSource, out Backend) (*Summary, error) {
	s := j.Setup
	log := j.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	front, _ := s.Headers()
	widthPx := int(front.Width)
	heightPx := int(front.Height)
	pageW, pageH := s.Media.Size.Points()
	g := pageGeometry{
		widthPx:  widthPx,
		heightPx: heightPx,
		width:    pageW,
		height:   pageH,
	}

	info := typeTags[s.Type]

	maxRaster := s.MaxRaster
	if maxRaster <= 0 {
		maxRaster = defaultMaxRaster
	}
	bandHeight := maxRaster / (widthPx * bandBytes(info))
	if bandHeight < 1 {
		bandHeight = 1
	}
	if bandHeight > heightPx {
		bandHeight = heightPx
	}
	band := newBand(info, widthPx, bandHeight)

	log.Debug("rendering job",
		"width", widthPx,
		"height", heightPx,
		"bandHeight", bandHeight,
		"type", s.Type)

	realPages := s.LastPage - s.FirstPage + 1
	deviceScale := matrix.Matrix{
		float64(s.Resolution.X) / 72, 0,
		0, -float64(s.Resolution.Y) / 72,
		0, float64(heightPx),
	}

	if err := out.StartJob(); err != nil {
		return nil, err
	}

	sum := &Summary{Pages: s.Pages}
	for c := 0; c < s.Copies; c++ {
		for page := 1; page <= s.Pages; page++ {
			// Pages past the end of the range are the blank backs of
			// padded duplex copies.
			blank := page > realPages

			var m matrix.Matrix
			if !blank {
				docPage := s.FirstPage + page - 1
				if err := src.LoadPage(docPage); err != nil {
					return nil, fmt.Errorf("page %d: %w", docPage, err)
				}

				box := src.ContentBox()
				place := placement(g, box.URx-box.LLx, box.URy-box.LLy,
					s.Scaling, s.Media.Borderless)

				m = src.Transform()
				m = m.Mul(matrix.Matrix{1, 0, 0, 1, -box.LLx, -box.LLy})
				m = m.Mul(place)
				if s.Duplex && page%2 == 0 {
					m = m.Mul(backTransform(g, s.SheetBack, s.Tumble))
				}
				m = m.Mul(deviceScale)
			}

			win, err := out.StartPage(page)
			if err != nil {
				return nil, err
			}

			for top := win.Min.Y; top < win.Max.Y; {
				bottom := min(top+bandHeight, win.Max.Y)
				band.reset(top, bottom, widthPx)
				if !blank {
					if err := src.Render(band.img, m); err != nil {
						return nil, fmt.Errorf("page %d: %w", s.FirstPage+page-1, err)
					}
				}

				for y := top; y < bottom; y++ {
					line := band.row(y, win)
					px := win.Dx()
					switch {
					case info.bitsPerPixel == 24:
						line = line[:packRGBX(line, px)]
					case info.bitsPerPixel == 48:
						line = line[:packRGBX16(line, px)]
					case info.colorSpace == raster.ColorSpaceBlack && info.bitsPerPixel >= 8:
						invertGray(line)
					}
					if err := out.WriteLine(y, line); err != nil {
						return nil, err
					}
				}
				top = bottom
			}

			if err := out.EndPage(page); err != nil {
				return nil, err
			}

			sum.Impressions++
			if !s.Duplex || page%2 == 0 {
				sum.Sheets++
			}
			log.Debug("finished page",
				"copy", c+1,
				"page", page,
				"impressions", sum.Impressions)
		}
	}

	if err := out.EndJob(); err != nil {
		return nil, err
	}
	return sum, nil
}

// bandBytes returns the number of bytes per pixel in the band buffer
// for the given raster type.  Gray and indexed types render into one
// byte per pixel, RGB types keep a filler byte until the rows are
// packed for output.
func bandBytes(info typeInfo) int {
	switch {
	case info.bitsPerPixel <= 8:
		return 1
	case info.bitsPerPixel == 48:
		return 8
	default:
		return 4
	}
}

// A band is a reusable image buffer covering a horizontal slice of
// the output page.
type band struct {
	img    draw.Image
	pix    []uint8
	stride int
	rect   *image.Rectangle
	bg     byte
	bpp    int
}

// newBand allocates a band buffer for up to rows scanlines.
func newBand(info typeInfo, width, rows int) *band {
	b := &band{bpp: bandBytes(info)}
	r := image.Rect(0, 0, width, rows)
	switch {
	case info.bitsPerPixel <= 8:
		img := image.NewGray(r)
		b.img, b.pix, b.stride, b.rect = img, img.Pix, img.Stride, &img.Rect
		b.bg = 0xFF
	case info.bitsPerPixel == 24:
		img := image.NewRGBA(r)
		b.img, b.pix, b.stride, b.rect = img, img.Pix, img.Stride, &img.Rect
		b.bg = 0xFF
	case info.bitsPerPixel == 32:
		img := image.NewCMYK(r)
		b.img, b.pix, b.stride, b.rect = img, img.Pix, img.Stride, &img.Rect
		b.bg = 0x00 // CMYK white is zero ink
	default:
		img := image.NewRGBA64(r)
		b.img, b.pix, b.stride, b.rect = img, img.Pix, img.Stride, &img.Rect
		b.bg = 0xFF
	}
	return b
}

// reset repositions the band to cover scanlines top to bottom and
// clears it to the background color.
func (b *band) reset(top, bottom, width int) {
	*b.rect = image.Rect(0, top, width, bottom)
	n := (bottom - top) * b.stride
	pix := b.pix[:n]
	for i := range pix {
		pix[i] = b.bg
	}
}

// row returns the pixel data for scanline y, restricted to the given
// window.
func (b *band) row(y int, win image.Rectangle) []byte {
	off := (y - b.rect.Min.Y) * b.stride
	return b.pix[off+win.Min.X*b.bpp : off+win.Max.X*b.bpp]
}
