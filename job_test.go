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
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// testSource is a synthetic document with square pages, one inch on
// each side.
type testSource struct {
	pages  int
	box    rect.Rect
	render func(dst draw.Image, m matrix.Matrix) error

	loads    []int
	matrices []matrix.Matrix
}

func (s *testSource) NumPages() int {
	return s.pages
}

func (s *testSource) LoadPage(pageNo int) error {
	if pageNo < 1 || pageNo > s.pages {
		return fmt.Errorf("no page %d", pageNo)
	}
	s.loads = append(s.loads, pageNo)
	return nil
}

func (s *testSource) ContentBox() rect.Rect {
	return s.box
}

func (s *testSource) Transform() matrix.Matrix {
	return matrix.Identity
}

func (s *testSource) Render(dst draw.Image, m matrix.Matrix) error {
	s.matrices = append(s.matrices, m)
	if s.render != nil {
		return s.render(dst, m)
	}
	return nil
}

// capturePage records everything a backend received for one page.
type capturePage struct {
	page  int
	ys    []int
	lines [][]byte
}

// captureBackend records all output for inspection.
type captureBackend struct {
	win     image.Rectangle
	started bool
	ended   bool
	pages   []*capturePage
	renders []image.Rectangle
}

func (b *captureBackend) StartJob() error {
	b.started = true
	return nil
}

func (b *captureBackend) StartPage(page int) (image.Rectangle, error) {
	b.pages = append(b.pages, &capturePage{page: page})
	return b.win, nil
}

func (b *captureBackend) WriteLine(y int, line []byte) error {
	p := b.pages[len(b.pages)-1]
	p.ys = append(p.ys, y)
	p.lines = append(p.lines, append([]byte(nil), line...))
	return nil
}

func (b *captureBackend) EndPage(page int) error {
	return nil
}

func (b *captureBackend) EndJob() error {
	b.ended = true
	return nil
}

// testSetup returns a setup for one-inch square pages at 100dpi,
// giving 100x100 pixel output.
func testSetup(typ string) *Setup {
	return &Setup{
		Format:     FormatPWG,
		Type:       typ,
		Resolution: Resolution{X: 100, Y: 100},
		Media: Media{
			Size:   MediaSize{Name: "custom_25.4x25.4mm", Width: 2540, Height: 2540},
			Margin: defaultMargin,
		},
		Copies:    1,
		FirstPage: 1,
		LastPage:  1,
		Pages:     1,
		SheetBack: "normal",
		Scaling:   "none",
		Quality:   qualityNormal,
	}
}

func testPageSource() *testSource {
	return &testSource{
		pages: 1,
		box:   rect.Rect{LLx: 0, LLy: 0, URx: 72, URy: 72},
	}
}

func TestJobBandCoverage(t *testing.T) {
	setup := testSetup("sgray_8")
	setup.MaxRaster = 100 * 7 // seven scanlines per band

	src := testPageSource()
	out := &captureBackend{win: image.Rect(0, 0, 100, 100)}

	sum, err := (&Job{Setup: setup}).Run(src, out)
	if err != nil {
		t.Fatal(err)
	}

	if !out.started || !out.ended {
		t.Error("job frame missing")
	}
	if len(out.pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(out.pages))
	}

	// every scanline written exactly once, in order
	var wantYs []int
	for y := 0; y < 100; y++ {
		wantYs = append(wantYs, y)
	}
	if diff := cmp.Diff(wantYs, out.pages[0].ys); diff != "" {
		t.Errorf("wrong scanlines (-want +got):\n%s", diff)
	}
	for i, line := range out.pages[0].lines {
		if len(line) != 100 {
			t.Fatalf("line %d has %d bytes, want 100", i, len(line))
		}
	}

	// bands have limited height and cover the page contiguously
	if len(src.matrices) != 15 {
		t.Errorf("got %d bands, want 15", len(src.matrices))
	}

	if sum.Impressions != 1 || sum.Sheets != 1 {
		t.Errorf("got %d impressions on %d sheets, want 1 on 1",
			sum.Impressions, sum.Sheets)
	}
}

func TestJobBandBounds(t *testing.T) {
	setup := testSetup("sgray_8")
	setup.MaxRaster = 100 * 7

	src := testPageSource()
	next := 0
	src.render = func(dst draw.Image, m matrix.Matrix) error {
		b := dst.Bounds()
		if b.Min.X != 0 || b.Max.X != 100 {
			return fmt.Errorf("band covers columns %d-%d", b.Min.X, b.Max.X)
		}
		if b.Min.Y != next {
			return fmt.Errorf("band starts at %d, want %d", b.Min.Y, next)
		}
		if b.Dy() < 1 || b.Dy() > 7 {
			return fmt.Errorf("band height %d out of range", b.Dy())
		}
		next = b.Max.Y
		return nil
	}
	out := &captureBackend{win: image.Rect(0, 0, 100, 100)}

	if _, err := (&Job{Setup: setup}).Run(src, out); err != nil {
		t.Fatal(err)
	}
	if next != 100 {
		t.Errorf("bands end at %d, want 100", next)
	}
}

func TestJobWindow(t *testing.T) {
	setup := testSetup("sgray_8")

	src := testPageSource()
	out := &captureBackend{win: image.Rect(10, 20, 90, 80)}

	if _, err := (&Job{Setup: setup}).Run(src, out); err != nil {
		t.Fatal(err)
	}

	p := out.pages[0]
	if len(p.ys) != 60 || p.ys[0] != 20 || p.ys[len(p.ys)-1] != 79 {
		t.Errorf("got %d scanlines from %d to %d, want 60 from 20 to 79",
			len(p.ys), p.ys[0], p.ys[len(p.ys)-1])
	}
	for i, line := range p.lines {
		if len(line) != 80 {
			t.Fatalf("line %d has %d bytes, want 80", i, len(line))
		}
	}
}

func TestJobRowContent(t *testing.T) {
	setup := testSetup("sgray_8")
	setup.MaxRaster = 100 * 9

	src := testPageSource()
	src.render = func(dst draw.Image, m matrix.Matrix) error {
		b := dst.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.Set(x, y, color.Gray{Y: uint8(y)})
			}
		}
		return nil
	}
	out := &captureBackend{win: image.Rect(10, 0, 90, 100)}

	if _, err := (&Job{Setup: setup}).Run(src, out); err != nil {
		t.Fatal(err)
	}

	p := out.pages[0]
	for i, line := range p.lines {
		for x, v := range line {
			if v != uint8(p.ys[i]) {
				t.Fatalf("line %d column %d is %d, want %d",
					p.ys[i], x, v, uint8(p.ys[i]))
			}
		}
	}
}

func TestJobPackRGB(t *testing.T) {
	setup := testSetup("srgb_8")

	src := testPageSource()
	src.render = func(dst draw.Image, m matrix.Matrix) error {
		b := dst.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
			}
		}
		return nil
	}
	out := &captureBackend{win: image.Rect(0, 0, 100, 100)}

	if _, err := (&Job{Setup: setup}).Run(src, out); err != nil {
		t.Fatal(err)
	}

	for _, line := range out.pages[0].lines {
		if len(line) != 300 {
			t.Fatalf("line has %d bytes, want 300", len(line))
		}
		for x := 0; x < 100; x++ {
			if line[3*x] != 10 || line[3*x+1] != 20 || line[3*x+2] != 30 {
				t.Fatalf("pixel %d is [%d %d %d], want [10 20 30]",
					x, line[3*x], line[3*x+1], line[3*x+2])
			}
		}
	}
}

func TestJobInvertBlack(t *testing.T) {
	// black_8 output wants ink densities, so an empty page is all
	// zero bytes
	setup := testSetup("black_8")

	src := testPageSource()
	out := &captureBackend{win: image.Rect(0, 0, 100, 100)}

	if _, err := (&Job{Setup: setup}).Run(src, out); err != nil {
		t.Fatal(err)
	}

	for _, line := range out.pages[0].lines {
		for x, v := range line {
			if v != 0 {
				t.Fatalf("column %d is %d, want 0", x, v)
			}
		}
	}
}

func TestJobDuplexCopies(t *testing.T) {
	setup := testSetup("sgray_8")
	setup.Copies = 2
	setup.LastPage = 3
	setup.Pages = 4
	setup.Pad = true
	setup.Duplex = true

	src := testPageSource()
	src.pages = 3
	out := &captureBackend{win: image.Rect(0, 0, 100, 100)}

	sum, err := (&Job{Setup: setup}).Run(src, out)
	if err != nil {
		t.Fatal(err)
	}

	var starts []int
	for _, p := range out.pages {
		starts = append(starts, p.page)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 1, 2, 3, 4}, starts); diff != "" {
		t.Errorf("wrong page sequence (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 1, 2, 3}, src.loads); diff != "" {
		t.Errorf("wrong document pages (-want +got):\n%s", diff)
	}

	want := &Summary{Pages: 4, Impressions: 8, Sheets: 4}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("wrong summary (-want +got):\n%s", diff)
	}

	// the pad page is blank
	for _, line := range out.pages[3].lines {
		for _, v := range line {
			if v != 0xFF {
				t.Fatal("pad page is not blank")
			}
		}
	}
}

func TestJobSheetsSimplex(t *testing.T) {
	setup := testSetup("sgray_8")
	setup.LastPage = 3
	setup.Pages = 3

	src := testPageSource()
	src.pages = 3
	out := &captureBackend{win: image.Rect(0, 0, 100, 100)}

	sum, err := (&Job{Setup: setup}).Run(src, out)
	if err != nil {
		t.Fatal(err)
	}
	want := &Summary{Pages: 3, Impressions: 3, Sheets: 3}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("wrong summary (-want +got):\n%s", diff)
	}
}

func TestJobPageRange(t *testing.T) {
	setup := testSetup("sgray_8")
	setup.FirstPage = 2
	setup.LastPage = 3
	setup.Pages = 2

	src := testPageSource()
	src.pages = 5
	out := &captureBackend{win: image.Rect(0, 0, 100, 100)}

	if _, err := (&Job{Setup: setup}).Run(src, out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{2, 3}, src.loads); diff != "" {
		t.Errorf("wrong document pages (-want +got):\n%s", diff)
	}
}

func TestJobBackTransform(t *testing.T) {
	setup := testSetup("sgray_8")
	setup.LastPage = 2
	setup.Pages = 2
	setup.Duplex = true
	setup.SheetBack = "flipped"

	src := testPageSource()
	src.pages = 2
	out := &captureBackend{win: image.Rect(0, 0, 100, 100)}

	if _, err := (&Job{Setup: setup}).Run(src, out); err != nil {
		t.Fatal(err)
	}

	if len(src.matrices) != 2 {
		t.Fatalf("got %d renders, want 2", len(src.matrices))
	}
	m1, m2 := src.matrices[0], src.matrices[1]
	if m1[3] >= 0 {
		t.Errorf("front transform %v does not flip the y axis", m1)
	}
	if m2[3] <= 0 {
		t.Errorf("back transform %v missing the sheet flip", m2)
	}
}

func TestJobRenderError(t *testing.T) {
	setup := testSetup("sgray_8")

	src := testPageSource()
	src.render = func(dst draw.Image, m matrix.Matrix) error {
		return errors.New("boom")
	}
	out := &captureBackend{win: image.Rect(0, 0, 100, 100)}

	_, err := (&Job{Setup: setup}).Run(src, out)
	if err == nil {
		t.Fatal("render error not reported")
	}
	if !strings.Contains(err.Error(), "page 1") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("unhelpful error %q", err)
	}
}
