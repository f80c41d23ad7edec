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
	"errors"
	"fmt"
	"io"
)

// A Reader decodes page raster streams written in either wire format.
type Reader struct {
	r      io.Reader
	format Format

	header    *PageHeader
	remaining uint32 // scanlines not yet returned for this page
	pixelSize int
	lineSize  int

	cur    []byte // current decoded scanline
	repeat int    // pending additional copies of cur
}

// NewReader reads the stream magic from r and returns a Reader for
// the detected format.
func NewReader(r io.Reader) (*Reader, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:4]); err != nil {
		return nil, err
	}

	var format Format
	switch {
	case string(magic[:4]) == string(pwgSync):
		format = PWG
	case string(magic[:4]) == string(appleMagic[:4]):
		if _, err := io.ReadFull(r, magic[4:]); err != nil {
			return nil, err
		}
		if string(magic[:]) != string(appleMagic) {
			return nil, errors.New("raster: bad Apple Raster magic")
		}
		format = Apple
	default:
		return nil, errors.New("raster: unknown stream magic")
	}

	return &Reader{r: r, format: format}, nil
}

// Format returns the detected wire format.
func (r *Reader) Format() Format {
	return r.format
}

// NextPage reads the header of the next page.  It returns io.EOF
// after the last page.  Any unread scanlines of the previous page are
// skipped.
func (r *Reader) NextPage() (*PageHeader, error) {
	for r.remaining > 0 {
		if err := r.ReadLine(r.cur); err != nil {
			return nil, err
		}
	}

	var size int
	switch r.format {
	case PWG:
		size = pwgHeaderSize
	case Apple:
		size = appleHeaderSize
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}

	var h *PageHeader
	var err error
	switch r.format {
	case PWG:
		h, err = decodePWGHeader(buf)
	case Apple:
		h, err = decodeAppleHeader(buf)
	}
	if err != nil {
		return nil, err
	}

	r.header = h
	r.remaining = h.Height
	r.pixelSize = h.pixelSize()
	r.lineSize = int(h.BytesPerLine)
	r.cur = make([]byte, r.lineSize)
	r.repeat = 0
	return h, nil
}

// ReadLine decodes the next scanline of the current page into buf,
// which must be BytesPerLine bytes long.
func (r *Reader) ReadLine(buf []byte) error {
	if r.remaining == 0 {
		return io.EOF
	}
	if len(buf) != r.lineSize {
		return fmt.Errorf("raster: buffer has %d bytes, header says %d",
			len(buf), r.lineSize)
	}

	if r.repeat > 0 {
		r.repeat--
	} else {
		if err := r.decodeLine(); err != nil {
			return err
		}
	}
	copy(buf, r.cur)
	r.remaining--
	return nil
}

// decodeLine reads one line repeat group into r.cur and sets r.repeat
// to the number of further copies.
func (r *Reader) decodeLine() error {
	var octet [1]byte
	if _, err := io.ReadFull(r.r, octet[:]); err != nil {
		return err
	}
	r.repeat = int(octet[0])

	ps := r.pixelSize
	pos := 0
	for pos < r.lineSize {
		if _, err := io.ReadFull(r.r, octet[:]); err != nil {
			return err
		}
		if octet[0] <= 127 {
			// octet+1 copies of one pixel
			n := int(octet[0]) + 1
			if pos+n*ps > r.lineSize {
				return errors.New("raster: pixel run overflows scanline")
			}
			if _, err := io.ReadFull(r.r, r.cur[pos:pos+ps]); err != nil {
				return err
			}
			first := r.cur[pos : pos+ps]
			for i := 1; i < n; i++ {
				copy(r.cur[pos+i*ps:], first)
			}
			pos += n * ps
		} else {
			// 257-octet literal pixels
			n := 257 - int(octet[0])
			if pos+n*ps > r.lineSize {
				return errors.New("raster: literal run overflows scanline")
			}
			if _, err := io.ReadFull(r.r, r.cur[pos:pos+n*ps]); err != nil {
				return err
			}
			pos += n * ps
		}
	}
	return nil
}
