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
	"strconv"
	"strings"
)

// A MediaSize describes a page size in hundredths of millimeters, the
// unit used by IPP media-size dimensions.
type MediaSize struct {
	Name   string // self-describing media size name
	Width  int    // 1/100 mm
	Height int    // 1/100 mm
}

// Media is the output medium selected for a job.
type Media struct {
	Size       MediaSize
	Margin     int // border on each side, 1/100 mm
	Borderless bool
}

// defaultMargin is 1/4 inch in 1/100 mm, the margin assumed for
// non-borderless media.
const defaultMargin = 635

// standardSizes lists the self-describing names of well-known media
// sizes, used to map explicit dimensions back to names.
var standardSizes = []string{
	"iso_a3_297x420mm",
	"iso_a4_210x297mm",
	"iso_a5_148x210mm",
	"iso_a6_105x148mm",
	"iso_b5_176x250mm",
	"iso_c5_162x229mm",
	"iso_dl_110x220mm",
	"jis_b5_182x257mm",
	"jpn_hagaki_100x148mm",
	"na_5x7_5x7in",
	"na_executive_7.25x10.5in",
	"na_govt-letter_8x10in",
	"na_index-3x5_3x5in",
	"na_index-4x6_4x6in",
	"na_ledger_11x17in",
	"na_legal_8.5x14in",
	"na_letter_8.5x11in",
	"na_monarch_3.875x7.5in",
	"na_number-10_4.125x9.5in",
}

// legacyNames maps media names from PPD files and older clients to
// their self-describing equivalents.
var legacyNames = map[string]string{
	"a3":        "iso_a3_297x420mm",
	"a4":        "iso_a4_210x297mm",
	"a5":        "iso_a5_148x210mm",
	"env10":     "na_number-10_4.125x9.5in",
	"envdl":     "iso_dl_110x220mm",
	"executive": "na_executive_7.25x10.5in",
	"ledger":    "na_ledger_11x17in",
	"legal":     "na_legal_8.5x14in",
	"letter":    "na_letter_8.5x11in",
	"monarch":   "na_monarch_3.875x7.5in",
	"photo":     "na_index-4x6_4x6in",
	"tabloid":   "na_ledger_11x17in",
}

var sizeByDimension = makeSizeTable()

func makeSizeTable() map[[2]int]MediaSize {
	table := make(map[[2]int]MediaSize)
	for _, name := range standardSizes {
		size, err := ParseMediaSize(name)
		if err != nil {
			panic(err)
		}
		table[[2]int{size.Width, size.Height}] = size
	}
	return table
}

// ParseMediaSize resolves a media name to a size.  Self-describing
// names of the form "class_name_WxHunit" (for example
// "na_letter_8.5x11in" or "iso_a4_210x297mm") are parsed directly;
// legacy names such as "letter" or "a4" are translated first.
func ParseMediaSize(name string) (MediaSize, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := legacyNames[name]; ok {
		name = canonical
	}

	idx := strings.LastIndexByte(name, '_')
	if idx < 0 || strings.IndexByte(name, '_') == idx {
		return MediaSize{}, fmt.Errorf("invalid media name %q", name)
	}
	dims := name[idx+1:]

	var unit float64
	if s, ok := strings.CutSuffix(dims, "mm"); ok {
		dims, unit = s, 100
	} else if s, ok := strings.CutSuffix(dims, "in"); ok {
		dims, unit = s, 2540
	} else {
		return MediaSize{}, fmt.Errorf("invalid media name %q", name)
	}

	ws, hs, ok := strings.Cut(dims, "x")
	if !ok {
		return MediaSize{}, fmt.Errorf("invalid media name %q", name)
	}
	w, err1 := strconv.ParseFloat(ws, 64)
	h, err2 := strconv.ParseFloat(hs, 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return MediaSize{}, fmt.Errorf("invalid media name %q", name)
	}

	return MediaSize{
		Name:   name,
		Width:  int(w*unit + 0.5),
		Height: int(h*unit + 0.5),
	}, nil
}

// MediaForSize returns the media size for explicit dimensions in
// 1/100 mm.  Dimensions matching a well-known size get its name,
// anything else is labelled as a custom size.
func MediaForSize(width, height int) MediaSize {
	if size, ok := sizeByDimension[[2]int{width, height}]; ok {
		return size
	}
	name := fmt.Sprintf("custom_%sx%smm",
		strconv.FormatFloat(float64(width)/100, 'f', -1, 64),
		strconv.FormatFloat(float64(height)/100, 'f', -1, 64))
	return MediaSize{Name: name, Width: width, Height: height}
}

// Points returns the media dimensions in PostScript points.
func (m MediaSize) Points() (width, height float64) {
	return float64(m.Width) * 72 / 2540, float64(m.Height) * 72 / 2540
}

// isBorderlessSize reports whether the size is one of the photo sizes
// commonly printed edge to edge (4x6, 5x7 and 8x10 inches).
func isBorderlessSize(m MediaSize) bool {
	switch [2]int{m.Width, m.Height} {
	case [2]int{10160, 15240}, [2]int{12700, 17780}, [2]int{20320, 25400}:
		return true
	}
	return false
}
