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

// Package pcl encodes 1-bit page raster data as HP PCL print jobs.
//
// The output is monochrome PCL 5 raster graphics: each page selects
// its media and margins, then streams scanlines compressed with the
// TIFF PackBits scheme.  Runs of blank lines are replaced by vertical
// skips, and continuous-tone input is halftoned with an ordered
// screen.
package pcl

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"seehuhn.de/go/printer/dither"
	"seehuhn.de/go/printer/raster"
)

// pclMediaCode maps page heights in points to PCL page size codes.
// Heights not listed leave the printer's current size in effect.
var pclMediaCode = map[uint32]int{
	540:  80,  // Monarch envelope
	595:  25,  // A5
	624:  90,  // DL envelope
	649:  91,  // C5 envelope
	684:  81,  // COM-10 envelope
	709:  100, // B5 envelope
	756:  1,   // Executive
	792:  2,   // Letter
	842:  26,  // A4
	1008: 3,   // Legal
	1191: 27,  // A3
	1224: 6,   // Tabloid
}

// A Backend encodes scanlines as a PCL print job.  Scanlines hold one
// 8-bit gray sample per pixel, covering the printable window between
// Left and Right; the backend halftones them to 1 bit and compresses
// the result.
type Backend struct {
	w   io.Writer
	h   *raster.PageHeader
	enc dither.Encoder
	err error

	// printable window of the current page, in pixels
	top, bottom, left, right int

	out    []byte // halftoned scanline, allocated per page
	comp   []byte // compression buffer, allocated per page
	blanks int    // blank lines not yet skipped
}

// NewBackend prepares a PCL backend writing to w.  The header
// describes the page geometry; screen is the halftone screen.
func NewBackend(w io.Writer, h *raster.PageHeader, screen *dither.Matrix) *Backend {
	return &Backend{
		w: w,
		h: h,
		// PCL raster bits are always ink, independent of the input
		// colorspace polarity
		enc: dither.Encoder{Screen: screen},
	}
}

func (b *Backend) printf(format string, args ...any) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(b.w, format, args...)
}

func (b *Backend) write(buf []byte) {
	if b.err != nil {
		return
	}
	_, b.err = b.w.Write(buf)
}

// StartJob resets the printer.
func (b *Backend) StartJob() error {
	b.printf("\033E")
	return b.err
}

// StartPage emits the page setup sequences and returns the printable
// window: 1/6 inch top and bottom margins, and 1/4 inch left and
// right except on A4, which is narrowed to an 8 inch print area.
func (b *Backend) StartPage(page int) (image.Rectangle, error) {
	h := b.h
	xdpi := int(h.HWResolution[0])
	ydpi := int(h.HWResolution[1])

	b.top = ydpi / 6
	b.bottom = int(h.Height) - ydpi/6
	if h.PageSize[1] == 842 {
		b.left = (int(h.Width) - 8*xdpi) / 2
		b.right = b.left + 8*xdpi
	} else {
		b.left = xdpi / 4
		b.right = int(h.Width) - xdpi/4
	}

	if !h.Duplex || page%2 == 1 {
		b.printf("\033&l12D\033&k12H") // 12 lines and 12 characters per inch
		b.printf("\033&l0O")           // portrait orientation

		if code, ok := pclMediaCode[h.PageSize[1]]; ok {
			b.printf("\033&l%dA", code)
		}

		// top margin in lines, perforation skip off
		b.printf("\033&l%dE\033&l0L", 12*b.top/ydpi)

		if h.Duplex {
			mode := 1 // long edge binding
			if h.Tumble {
				mode = 2 // short edge binding
			}
			b.printf("\033&l%dS", mode)
		}
	} else {
		b.printf("\033&a2G") // back side of the sheet
	}

	// raster resolution, extent, and start position in decipoints
	b.printf("\033*t%dR", xdpi)
	b.printf("\033*r%dS", b.right-b.left)
	b.printf("\033*r%dT", b.bottom-b.top)
	b.printf("\033&a0H\033&a%dV", 720*b.top/ydpi)

	b.printf("\033*b2M") // PackBits compression
	b.printf("\033*r1A") // start raster graphics

	outLen := (b.right - b.left + 7) / 8
	b.out = make([]byte, outLen)
	b.comp = make([]byte, 0, 2*outLen+2)
	b.blanks = 0
	return image.Rect(b.left, b.top, b.right, b.bottom), b.err
}

// WriteLine encodes one scanline.  line must cover the printable
// window, one byte per pixel.  Blank lines are counted and turned
// into a single vertical skip before the next visible line.
func (b *Backend) WriteLine(y int, line []byte) error {
	if b.err != nil {
		return b.err
	}
	if n := b.right - b.left; len(line) != n {
		b.err = fmt.Errorf("pcl: scanline has %d samples, window has %d", len(line), n)
		return b.err
	}

	// White lines cost nothing.  Only the value 255 counts as blank
	// here; for black-high input a fully inked line is not blank.
	if line[0] == 255 && bytes.Equal(line[:len(line)-1], line[1:]) {
		b.blanks++
		return nil
	}

	n := b.enc.EncodeRow(b.out, line, b.left, y)
	comp := packBits(b.comp[:0], b.out[:n])

	if b.blanks > 0 {
		b.printf("\033*b%dY", b.blanks)
		b.blanks = 0
	}
	b.printf("\033*b%dW", len(comp))
	b.write(comp)
	return b.err
}

// EndPage ends raster graphics and feeds the sheet.  The form feed is
// suppressed on the front side of a duplex sheet; pending blank lines
// at the bottom of the page are dropped.
func (b *Backend) EndPage(page int) error {
	b.printf("\033*r0B")
	if !(b.h.Duplex && page%2 == 1) {
		b.printf("\014")
	}
	b.out = nil
	b.comp = nil
	return b.err
}

// EndJob resets the printer.
func (b *Backend) EndJob() error {
	b.printf("\033E")
	return b.err
}

// packBits appends the TIFF PackBits encoding of data to buf.  A run
// of 2 to 127 identical bytes becomes (257-count, byte); a stretch of
// 1 to 127 dissimilar bytes becomes (count-1, bytes); a lone byte at
// the end of the line becomes (0, byte).
func packBits(buf, data []byte) []byte {
	for pos := 0; pos < len(data); {
		if pos+1 >= len(data) {
			// single byte on the end
			buf = append(buf, 0, data[pos])
			pos++
		} else if data[pos] == data[pos+1] {
			count := 2
			pos++
			for pos < len(data)-1 && data[pos] == data[pos+1] && count < 127 {
				pos++
				count++
			}
			buf = append(buf, byte(257-count), data[pos])
			pos++
		} else {
			start := pos
			count := 1
			pos++
			for pos < len(data)-1 && data[pos] != data[pos+1] && count < 127 {
				pos++
				count++
			}
			buf = append(buf, byte(count-1))
			buf = append(buf, data[start:start+count]...)
		}
	}
	return buf
}
