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
	"errors"
	"fmt"
	"image/draw"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
	"seehuhn.de/go/sfnt"
)

// Document provides the pages of a PDF file as render sources.
//
// Pages are loaded one at a time using [Document.LoadPage]; the geometry
// accessors and [Document.Render] refer to the most recently loaded page.
type Document struct {
	r        pdf.Getter
	close    func() error
	numPages int
	fonts    map[pdf.Reference]*glyphSource
	page     *pageData

	subst       *sfnt.Font
	substCmap   glyphLookup
	substLoaded bool
}

// pageData holds the decoded state of one page.  The image and form
// caches avoid repeated decoding when the page is rendered in bands.
type pageData struct {
	ops       []contentOp
	resources pdf.Dict
	rotate    int
	box       rect.Rect
	transform matrix.Matrix

	images map[pdf.Reference]*decodedImage
	forms  map[pdf.Reference][]contentOp
}

// Open reads the PDF file fname.  If the file is encrypted, password is
// used to decrypt it.
func Open(fname, password string) (*Document, error) {
	var opt *pdf.ReaderOptions
	if password != "" {
		opt = &pdf.ReaderOptions{
			ReadPassword: func(_ []byte, _ int) string {
				return password
			},
		}
	}
	r, err := pdf.Open(fname, opt)
	if err != nil {
		return nil, err
	}
	doc, err := NewDocument(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	doc.close = r.Close
	return doc, nil
}

// NewDocument wraps an already opened PDF file.
func NewDocument(r pdf.Getter) (*Document, error) {
	numPages, err := pagetree.NumPages(r)
	if err != nil {
		return nil, err
	}
	if numPages < 1 {
		return nil, errors.New("document has no pages")
	}
	return &Document{
		r:        r,
		numPages: numPages,
		fonts:    make(map[pdf.Reference]*glyphSource),
	}, nil
}

// Close releases the underlying file, if the document was opened using
// [Open].
func (d *Document) Close() error {
	if d.close != nil {
		return d.close()
	}
	return nil
}

// NumPages returns the number of pages in the document.
func (d *Document) NumPages() int {
	return d.numPages
}

// LoadPage reads page pageNo (1-based) and prepares it for rendering.
func (d *Document) LoadPage(pageNo int) error {
	if pageNo < 1 || pageNo > d.numPages {
		return fmt.Errorf("page %d out of range [1, %d]", pageNo, d.numPages)
	}
	pageDict, err := pagetree.GetPage(d.r, pageNo-1)
	if err != nil {
		return pdf.Wrap(err, fmt.Sprintf("page %d", pageNo))
	}

	media, err := pdf.GetRectangle(d.r, pageDict["MediaBox"])
	if err != nil || media == nil || media.URx <= media.LLx || media.URy <= media.LLy {
		// fall back to US Letter
		media = &pdf.Rectangle{URx: 612, URy: 792}
	}
	box := media
	if crop, _ := pdf.GetRectangle(d.r, pageDict["CropBox"]); crop != nil {
		c := &pdf.Rectangle{
			LLx: max(crop.LLx, media.LLx),
			LLy: max(crop.LLy, media.LLy),
			URx: min(crop.URx, media.URx),
			URy: min(crop.URy, media.URy),
		}
		if c.URx > c.LLx && c.URy > c.LLy {
			box = c
		}
	}

	rotate, _ := pdf.GetInteger(d.r, pageDict["Rotate"])
	rot := ((int(rotate) % 360) + 360) % 360
	if rot%90 != 0 {
		rot = 0
	}

	resources, err := pdf.GetDict(d.r, pageDict["Resources"])
	if err != nil {
		return pdf.Wrap(err, fmt.Sprintf("page %d resources", pageNo))
	}

	ops, err := d.readContents(pageDict["Contents"])
	if err != nil {
		return pdf.Wrap(err, fmt.Sprintf("page %d contents", pageNo))
	}

	w := box.URx - box.LLx
	h := box.URy - box.LLy
	trans := matrix.Translate(-box.LLx, -box.LLy)
	upright := rect.Rect{URx: w, URy: h}
	switch rot {
	case 90:
		trans = trans.Mul(matrix.Matrix{0, -1, 1, 0, 0, w})
		upright = rect.Rect{URx: h, URy: w}
	case 180:
		trans = trans.Mul(matrix.Matrix{-1, 0, 0, -1, w, h})
	case 270:
		trans = trans.Mul(matrix.Matrix{0, 1, -1, 0, h, 0})
		upright = rect.Rect{URx: h, URy: w}
	}

	d.page = &pageData{
		ops:       ops,
		resources: resources,
		rotate:    rot,
		box:       upright,
		transform: trans,
		images:    make(map[pdf.Reference]*decodedImage),
		forms:     make(map[pdf.Reference][]contentOp),
	}
	return nil
}

// readContents tokenizes all content streams of a page.  The Contents
// entry may be a single stream or an array of streams.
func (d *Document) readContents(obj pdf.Object) ([]contentOp, error) {
	contents, err := pdf.Resolve(d.r, obj)
	if err != nil {
		return nil, err
	}

	var parts []pdf.Object
	switch c := contents.(type) {
	case nil:
		return nil, nil
	case pdf.Array:
		parts = c
	default:
		parts = []pdf.Object{contents}
	}

	var ops []contentOp
	for _, part := range parts {
		stm, err := pdf.GetStream(d.r, part)
		if err != nil {
			return nil, err
		}
		if stm == nil {
			continue
		}
		body, err := pdf.DecodeStream(d.r, stm, 0)
		if err != nil {
			return nil, err
		}
		// lexical tokens cannot span stream boundaries, so each part
		// can be tokenized on its own; a scan error keeps the
		// operators read so far, rendering the page partially
		ops, err = tokenizeContent(body, ops)
		body.Close()
		if err != nil {
			break
		}
	}
	return ops, nil
}

// ContentBox returns the visible area of the current page in points,
// after page rotation.  The lower left corner is always at the origin.
func (d *Document) ContentBox() rect.Rect {
	if d.page == nil {
		return rect.Rect{}
	}
	return d.page.box
}

// Transform returns the matrix which maps coordinates of the page's
// content streams to the coordinate system of [Document.ContentBox].
func (d *Document) Transform() matrix.Matrix {
	if d.page == nil {
		return matrix.Identity
	}
	return d.page.transform
}

// Render draws the current page onto dst.  The matrix m maps content
// stream coordinates to device pixels; output is clipped to the bounds
// of dst.
func (d *Document) Render(dst draw.Image, m matrix.Matrix) error {
	if d.page == nil {
		return errors.New("no page loaded")
	}
	r := newRenderer(d, dst, m)
	return r.run(d.page.ops, d.page.resources)
}
