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

package raster

import (
	"image"
	"io"

	"seehuhn.de/go/printer/dither"
)

// A Backend streams rendered scanlines into a raster container.  Odd
// pages use the front header, even pages the back header, so that a
// duplex stream carries the right feed transforms on back sides.
//
// For 1 bit output the incoming scanlines hold one 8-bit gray sample
// per pixel; the backend screens them down to packed bits.  All other
// depths pass through unchanged.
type Backend struct {
	w     *Writer
	front *PageHeader
	back  *PageHeader

	enc *dither.Encoder
	out []byte // packed scanline, allocated per page
}

// NewBackend prepares a backend writing the given wire format to out.
// back may be nil for one sided jobs.  screen is only used when the
// headers call for 1 bit output.
func NewBackend(out io.Writer, format Format, front, back *PageHeader, screen *dither.Matrix) *Backend {
	b := &Backend{
		w:     NewWriter(out, format),
		front: front,
		back:  back,
	}
	if front.BitsPerPixel == 1 {
		b.enc = &dither.Encoder{
			Screen:    screen,
			WhiteHigh: front.ColorSpace == ColorSpacesGray,
		}
	}
	return b
}

func (b *Backend) StartJob() error {
	return nil
}

// StartPage writes the page header and returns the printable window,
// which for raster output is the whole page.
func (b *Backend) StartPage(page int) (image.Rectangle, error) {
	h := b.front
	if b.front.Duplex && page%2 == 0 && b.back != nil {
		h = b.back
	}
	win := image.Rect(0, 0, int(h.Width), int(h.Height))
	if err := b.w.WritePageHeader(h); err != nil {
		return win, err
	}
	if b.enc != nil {
		b.out = make([]byte, h.BytesPerLine)
	}
	return win, nil
}

func (b *Backend) WriteLine(y int, line []byte) error {
	if b.enc != nil {
		n := b.enc.EncodeRow(b.out, line, 0, y)
		return b.w.WriteLine(b.out[:n])
	}
	return b.w.WriteLine(line)
}

func (b *Backend) EndPage(page int) error {
	b.out = nil
	return nil
}

func (b *Backend) EndJob() error {
	return b.w.Close()
}
