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
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// An Image is a single-page source backed by a raster image.  One image
// pixel corresponds to one point, scaling to the output medium is left
// to the caller.
type Image struct {
	img image.Image
}

// OpenImage reads a JPEG or PNG file.
func OpenImage(fname string) (*Image, error) {
	fd, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	img, _, err := image.Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return &Image{img: img}, nil
}

// NewImage wraps an already decoded image.
func NewImage(img image.Image) *Image {
	return &Image{img: img}
}

// Color reports whether the image has color samples.  Grayscale files
// can be printed using a grayscale raster type.
func (im *Image) Color() bool {
	switch im.img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return false
	}
	return true
}

// NumPages returns 1.
func (im *Image) NumPages() int {
	return 1
}

// LoadPage checks that pageNo is 1.
func (im *Image) LoadPage(pageNo int) error {
	if pageNo != 1 {
		return fmt.Errorf("page %d out of range [1, 1]", pageNo)
	}
	return nil
}

// ContentBox returns the image dimensions, in points.
func (im *Image) ContentBox() rect.Rect {
	b := im.img.Bounds()
	return rect.Rect{URx: float64(b.Dx()), URy: float64(b.Dy())}
}

// Transform returns the identity matrix.
func (im *Image) Transform() matrix.Matrix {
	return matrix.Identity
}

// Render draws the image onto dst.  The matrix m maps content
// coordinates, with the origin at the lower left corner of the image,
// to device pixels.
func (im *Image) Render(dst draw.Image, m matrix.Matrix) error {
	if math.Abs(m[0]*m[3]-m[1]*m[2]) < 1e-12 {
		return nil
	}

	b := im.img.Bounds()
	h := float64(b.Dy())
	// image row 0 is the top of the content box
	aff := f64.Aff3{
		m[0], -m[2], h*m[2] + m[4],
		m[1], -m[3], h*m[3] + m[5],
	}
	xdraw.BiLinear.Transform(dst, aff, im.img, b, draw.Over, nil)
	return nil
}
