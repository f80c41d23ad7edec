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

// packRGBX packs a row of 4-byte RGBX pixels into 3-byte RGB pixels,
// in place, and returns the packed length in bytes.  Writes stay
// behind reads, so the row can be packed front to back, four pixels
// per step with a scalar loop for the leftover pixels.
func packRGBX(row []byte, numPixels int) int {
	src, dst := 0, 0
	for n := numPixels / 4; n > 0; n-- {
		copy(row[dst+0:dst+3], row[src+0:])
		copy(row[dst+3:dst+6], row[src+4:])
		copy(row[dst+6:dst+9], row[src+8:])
		copy(row[dst+9:dst+12], row[src+12:])
		src += 16
		dst += 12
	}
	for n := numPixels % 4; n > 0; n-- {
		copy(row[dst:dst+3], row[src:])
		src += 4
		dst += 3
	}
	return dst
}

// packRGBX16 packs a row of 16 bit per component RGBX pixels into
// 48-bit RGB pixels, in place, and returns the packed length in
// bytes.
func packRGBX16(row []byte, numPixels int) int {
	src, dst := 0, 0
	for n := numPixels / 2; n > 0; n-- {
		copy(row[dst+0:dst+6], row[src+0:])
		copy(row[dst+6:dst+12], row[src+8:])
		src += 16
		dst += 12
	}
	if numPixels%2 != 0 {
		copy(row[dst:dst+6], row[src:])
		dst += 6
	}
	return dst
}

// invertGray turns white-high samples into ink density values, in
// place.
func invertGray(row []byte) {
	for i, b := range row {
		row[i] = ^b
	}
}
