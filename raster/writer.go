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
	"bytes"
	"errors"
	"fmt"
	"io"
)

// A Writer encodes page raster data to an output stream.
//
// For each page the caller writes one page header followed by exactly
// Height scanlines of BytesPerLine bytes each.  Close must be called
// after the last page to verify that no scanlines are outstanding.
type Writer struct {
	w      io.Writer
	format Format
	err    error

	started   bool
	remaining uint32 // scanlines still expected on the current page
	pixelSize int
	lineSize  int

	prev  []byte // last distinct scanline
	count int    // lines equal to prev, 1 to 256
	comp  []byte // run length scratch buffer
}

// NewWriter prepares a Writer emitting the given wire format to w.
// No bytes are written before the first page header.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// WritePageHeader starts a new page.  The previous page, if any, must
// have received all of its scanlines.
func (w *Writer) WritePageHeader(h *PageHeader) error {
	if w.err != nil {
		return w.err
	}
	if w.remaining > 0 {
		w.err = fmt.Errorf("raster: previous page is missing %d scanlines", w.remaining)
		return w.err
	}

	if !w.started {
		var magic []byte
		switch w.format {
		case PWG:
			magic = pwgSync
		case Apple:
			magic = appleMagic
		default:
			w.err = fmt.Errorf("raster: unknown format %d", int(w.format))
			return w.err
		}
		if _, err := w.w.Write(magic); err != nil {
			w.err = err
			return err
		}
		w.started = true
	}

	var buf []byte
	switch w.format {
	case PWG:
		buf = encodePWGHeader(h)
	case Apple:
		buf = encodeAppleHeader(h)
	}
	if _, err := w.w.Write(buf); err != nil {
		w.err = err
		return err
	}

	w.remaining = h.Height
	w.pixelSize = h.pixelSize()
	w.lineSize = int(h.BytesPerLine)
	w.prev = make([]byte, w.lineSize)
	w.comp = make([]byte, 0, 2*w.lineSize+2)
	w.count = 0
	return nil
}

// WriteLine adds one scanline to the current page.  Identical
// consecutive scanlines are coalesced into line repeat counts.
func (w *Writer) WriteLine(line []byte) error {
	if w.err != nil {
		return w.err
	}
	if w.remaining == 0 {
		w.err = errors.New("raster: too many scanlines for page")
		return w.err
	}
	if len(line) != w.lineSize {
		w.err = fmt.Errorf("raster: scanline has %d bytes, header says %d",
			len(line), w.lineSize)
		return w.err
	}

	if w.count > 0 && w.count < 256 && bytes.Equal(line, w.prev) {
		w.count++
	} else {
		if err := w.flushLine(); err != nil {
			return err
		}
		copy(w.prev, line)
		w.count = 1
	}

	w.remaining--
	if w.remaining == 0 {
		return w.flushLine()
	}
	return nil
}

// Close verifies that the final page is complete.  It does not close
// the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.remaining > 0 {
		w.err = fmt.Errorf("raster: final page is missing %d scanlines", w.remaining)
		return w.err
	}
	return nil
}

// flushLine emits the pending line repeat group, if any.
func (w *Writer) flushLine() error {
	if w.count == 0 {
		return nil
	}

	buf := append(w.comp[:0], byte(w.count-1))
	buf = appendRuns(buf, w.prev, w.pixelSize)
	w.count = 0

	if _, err := w.w.Write(buf); err != nil {
		w.err = err
		return err
	}
	return nil
}

// appendRuns appends the run length encoding of one scanline to buf.
// Repeated pixels become an octet 0-127 (count-1) plus one pixel;
// literal sequences become an octet 128-255 (257-count) plus count
// pixels.  A literal sequence is never shorter than two pixels; a
// lone pixel is coded as a repeat of one.
func appendRuns(buf, line []byte, pixelSize int) []byte {
	ps := pixelSize
	for pos := 0; pos < len(line); {
		// length of the repeated run starting here
		rep := 1
		for rep < 128 && pos+(rep+1)*ps <= len(line) &&
			bytes.Equal(line[pos:pos+ps], line[pos+rep*ps:pos+(rep+1)*ps]) {
			rep++
		}
		if rep > 1 || pos+2*ps > len(line) {
			buf = append(buf, byte(rep-1))
			buf = append(buf, line[pos:pos+ps]...)
			pos += rep * ps
			continue
		}

		// literal run up to the next pair of equal pixels
		n := 1
		for n < 129 {
			next := pos + n*ps
			if next+ps > len(line) {
				break
			}
			if next+2*ps <= len(line) &&
				bytes.Equal(line[next:next+ps], line[next+ps:next+2*ps]) {
				break
			}
			n++
		}
		if n == 1 {
			buf = append(buf, 0)
		} else {
			buf = append(buf, byte(257-n))
		}
		buf = append(buf, line[pos:pos+n*ps]...)
		pos += n * ps
	}
	return buf
}
