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
	"encoding/binary"
	"errors"
)

// appleMagic starts an Apple Raster stream.
var appleMagic = []byte("UNIRAST\x00")

const appleHeaderSize = 32

// Apple Raster page headers store only a small subset of the PWG
// fields:
//
//	offset 0   bits per pixel
//	offset 1   colorspace (0 gray, 1 sRGB, 3 Adobe RGB)
//	offset 2   duplex (1 simplex, 2 short edge, 3 long edge)
//	offset 3   print quality (IPP enum, or 0 for default)
//	offset 12  width in pixels
//	offset 16  height in pixels
//	offset 20  resolution in dots per inch
//
// All other bytes are reserved and zero.
func encodeAppleHeader(h *PageHeader) []byte {
	buf := make([]byte, appleHeaderSize)

	buf[0] = byte(h.BitsPerPixel)
	switch h.ColorSpace {
	case ColorSpacesRGB, ColorSpaceRGB:
		buf[1] = 1
	case ColorSpaceAdobeRGB:
		buf[1] = 3
	default:
		buf[1] = 0
	}
	switch {
	case !h.Duplex:
		buf[2] = 1
	case h.Tumble:
		buf[2] = 2
	default:
		buf[2] = 3
	}
	buf[3] = byte(h.PrintQuality)
	binary.BigEndian.PutUint32(buf[12:], h.Width)
	binary.BigEndian.PutUint32(buf[16:], h.Height)
	binary.BigEndian.PutUint32(buf[20:], h.HWResolution[0])

	return buf
}

func decodeAppleHeader(buf []byte) (*PageHeader, error) {
	if len(buf) != appleHeaderSize {
		return nil, errors.New("raster: wrong Apple header size")
	}

	h := &PageHeader{
		BitsPerPixel: uint32(buf[0]),
		PrintQuality: uint32(buf[3]),
		Width:        binary.BigEndian.Uint32(buf[12:]),
		Height:       binary.BigEndian.Uint32(buf[16:]),
	}
	dpi := binary.BigEndian.Uint32(buf[20:])
	h.HWResolution = [2]uint32{dpi, dpi}

	switch buf[1] {
	case 1:
		h.ColorSpace = ColorSpacesRGB
		h.NumColors = 3
	case 3:
		h.ColorSpace = ColorSpaceAdobeRGB
		h.NumColors = 3
	default:
		h.ColorSpace = ColorSpacesGray
		h.NumColors = 1
	}
	h.BitsPerColor = h.BitsPerPixel / h.NumColors
	if h.BitsPerPixel == 1 {
		h.BitsPerColor = 1
	}

	switch buf[2] {
	case 2:
		h.Duplex = true
		h.Tumble = true
	case 3:
		h.Duplex = true
	}

	h.BytesPerLine = (h.Width*h.BitsPerPixel + 7) / 8
	return h, nil
}
