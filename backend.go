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
	"io"

	"seehuhn.de/go/printer/pcl"
	"seehuhn.de/go/printer/raster"
)

// A Backend encodes scanlines into a printer-ready byte stream.
// The raster and pcl subpackages provide the two implementations.
//
// Pages are numbered from 1 across the whole output; in duplex mode
// odd pages are front sides and even pages are back sides.  The
// backend only selects headers and escape sequences by this parity,
// any back-side coordinate transform happens upstream.
type Backend interface {
	// StartJob begins the output stream.
	StartJob() error

	// StartPage begins a new page and returns the print window, the
	// region of the page the caller must supply scanlines for.
	StartPage(page int) (image.Rectangle, error)

	// WriteLine consumes row y of the print window.  The line holds
	// the columns [window.Min.X, window.Max.X) in the unencoded pixel
	// layout of the negotiated type; for one-bit output types the
	// backend itself screens the 8-bit gray samples down to one bit.
	WriteLine(y int, line []byte) error

	// EndPage finishes the current page.
	EndPage(page int) error

	// EndJob finishes the output stream.
	EndJob() error
}

// Format identifies an output byte-stream format.
type Format int

// The supported output formats.
const (
	FormatPWG Format = iota
	FormatApple
	FormatPCL
)

// ParseFormat maps a MIME media type to a Format.
func ParseFormat(mimeType string) (Format, error) {
	switch mimeType {
	case "image/pwg-raster":
		return FormatPWG, nil
	case "image/urf":
		return FormatApple, nil
	case "application/vnd.hp-pcl":
		return FormatPCL, nil
	}
	return 0, fmt.Errorf("unknown output format %q", mimeType)
}

// String returns the MIME media type of the format.
func (f Format) String() string {
	switch f {
	case FormatPWG:
		return "image/pwg-raster"
	case FormatApple:
		return "image/urf"
	case FormatPCL:
		return "application/vnd.hp-pcl"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// NewBackend returns a Backend writing the negotiated output format
// to w.
func NewBackend(w io.Writer, setup *Setup) (Backend, error) {
	front, back := setup.Headers()
	switch setup.Format {
	case FormatPWG:
		return raster.NewBackend(w, raster.PWG, front, back, setup.Screen()), nil
	case FormatApple:
		return raster.NewBackend(w, raster.Apple, front, back, setup.Screen()), nil
	case FormatPCL:
		return pcl.NewBackend(w, front, setup.Screen()), nil
	}
	return nil, fmt.Errorf("unknown output format %d", int(setup.Format))
}
