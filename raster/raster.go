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

// Package raster reads and writes banded page raster streams.
//
// Two wire formats are supported: PWG Raster as defined in PWG
// 5102.4, and Apple Raster ("URF") as used by AirPrint devices.  Both
// share the same run length encoding for pixel data and differ only
// in their magic numbers and page header layout.
//
// A stream consists of a magic number, followed by one header and the
// compressed scanlines for each page.  Scanlines are encoded as a
// line repeat octet (the number of additional identical lines, 0-255)
// and a sequence of runs: an octet 0-127 starts a run of octet+1
// copies of the following pixel, an octet 128-255 starts a run of
// 257-octet literal pixels.
package raster

import "fmt"

// Format selects the wire format of a raster stream.
type Format int

const (
	// PWG is the PWG Raster format (PWG 5102.4), with the "RaS2"
	// synchronization word and 1796 byte page headers.
	PWG Format = iota

	// Apple is the Apple Raster format used by AirPrint, with the
	// "UNIRAST" magic and 32 byte page headers.
	Apple
)

func (f Format) String() string {
	switch f {
	case PWG:
		return "PWG"
	case Apple:
		return "Apple"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ColorSpace identifies the color interpretation of pixel data.
// The values are the cupsColorSpace codes from CUPS raster.
type ColorSpace uint32

const (
	ColorSpaceGray     ColorSpace = 0  // device gray, white high
	ColorSpaceRGB      ColorSpace = 1  // device RGB
	ColorSpaceBlack    ColorSpace = 3  // ink on white, black high
	ColorSpaceCMYK     ColorSpace = 6  // device CMYK
	ColorSpacesGray    ColorSpace = 18 // gray with sRGB gamma
	ColorSpacesRGB     ColorSpace = 19 // sRGB
	ColorSpaceAdobeRGB ColorSpace = 20 // Adobe RGB (1998)
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceGray:
		return "Gray"
	case ColorSpaceRGB:
		return "RGB"
	case ColorSpaceBlack:
		return "Black"
	case ColorSpaceCMYK:
		return "CMYK"
	case ColorSpacesGray:
		return "sGray"
	case ColorSpacesRGB:
		return "sRGB"
	case ColorSpaceAdobeRGB:
		return "AdobeRGB"
	default:
		return fmt.Sprintf("ColorSpace(%d)", uint32(c))
	}
}

// ChunkyPixels is the only color order used here: all colors of one
// pixel are stored together.
const ChunkyPixels = 0

// A PageHeader describes the raster data of one page.  The fields
// mirror the PWG Raster page header; the Apple format stores a subset
// of them.
type PageHeader struct {
	MediaColor           string
	MediaType            string
	PrintContentOptimize string
	CutMedia             uint32
	Duplex               bool
	HWResolution         [2]uint32 // x and y, in dots per inch
	InsertSheet          bool
	Jog                  uint32
	LeadingEdge          uint32
	MediaPosition        uint32
	MediaWeightMetric    uint32
	NumCopies            uint32
	Orientation          uint32
	PageSize             [2]uint32 // width and height, in points
	Tumble               bool
	Width                uint32 // pixels per scanline
	Height               uint32 // scanlines per page
	BitsPerColor         uint32
	BitsPerPixel         uint32
	BytesPerLine         uint32
	ColorOrder           uint32
	ColorSpace           ColorSpace
	NumColors            uint32
	TotalPageCount       uint32
	CrossFeedTransform   int32 // +1 or -1
	FeedTransform        int32 // +1 or -1
	ImageBoxLeft         uint32
	ImageBoxTop          uint32
	ImageBoxRight        uint32
	ImageBoxBottom       uint32
	AlternatePrimary     uint32
	PrintQuality         uint32
	VendorIdentifier     uint32
	VendorLength         uint32
	VendorData           [1088]byte
	RenderingIntent      string
	PageSizeName         string
}

// pixelSize returns the number of bytes in one run length unit.
// Depths below one byte are coded in byte units.
func (h *PageHeader) pixelSize() int {
	return int(h.BitsPerPixel+7) / 8
}
