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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNegotiate(t *testing.T) {
	opt := ParseOptions("media=iso_a4_210x297mm copies=2 sides=two-sided-long-edge print-quality=4", nil)
	caps := DefaultCapabilities(FormatPWG)
	doc := DocInfo{NumPages: 3}

	setup, err := Negotiate(opt, caps, doc, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := &Setup{
		Format:     FormatPWG,
		Type:       "sgray_8",
		Resolution: Resolution{X: 300, Y: 300},
		Media: Media{
			Size:   MediaSize{Name: "iso_a4_210x297mm", Width: 21000, Height: 29700},
			Margin: 635,
		},
		Copies:    2,
		FirstPage: 1,
		LastPage:  3,
		Pages:     4,
		Pad:       true,
		Duplex:    true,
		SheetBack: "normal",
		Scaling:   "fit",
		Quality:   4,
	}
	if diff := cmp.Diff(want, setup); diff != "" {
		t.Errorf("wrong setup (-want +got):\n%s", diff)
	}
}

func TestNegotiateType(t *testing.T) {
	cases := []struct {
		options string
		types   []string
		color   bool
		want    string
	}{
		{"", []string{"sgray_8", "srgb_8"}, true, "srgb_8"},
		{"", []string{"sgray_8", "cmyk_8"}, true, "cmyk_8"},
		{"", []string{"black_1", "sgray_8"}, true, "sgray_8"},
		{"", []string{"sgray_8", "srgb_8"}, false, "sgray_8"},
		{"", []string{"SGRAY_8"}, false, "sgray_8"},
		{"", []string{"cmyk_8"}, false, "cmyk_8"},
		{"print-quality=5", []string{"sgray_8", "srgb_8", "adobe-rgb_16"}, true, "adobe-rgb_16"},
		{"print-quality=5", []string{"sgray_8", "adobe-rgb_8"}, true, "adobe-rgb_8"},
		{"print-quality=5", []string{"sgray_8", "srgb_8"}, true, "srgb_8"},
		{"print-quality=3", []string{"sgray_1", "sgray_8"}, false, "sgray_1"},
		{"print-quality=3", []string{"black_1", "sgray_1"}, false, "black_1"},
		{"print-quality=3", []string{"sgray_8", "srgb_8"}, false, "sgray_8"},
		{"printer-resolution=300dpi print-quality=3", []string{"sgray_1", "sgray_8"}, false, "sgray_8"},
		{"print-color-mode=monochrome", []string{"sgray_8", "srgb_8"}, true, "sgray_8"},
		{"print-color-mode=auto-monochrome", []string{"sgray_8", "srgb_8"}, true, "sgray_8"},
		{"print-color-mode=bi-level", []string{"sgray_1", "sgray_8", "srgb_8"}, true, "sgray_1"},
	}
	for i, test := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			opt := ParseOptions(test.options, nil)
			caps := DefaultCapabilities(FormatPWG)
			caps.Types = test.types
			doc := DocInfo{NumPages: 1, Color: test.color}

			setup, err := Negotiate(opt, caps, doc, nil)
			if err != nil {
				t.Fatal(err)
			}
			if setup.Type != test.want {
				t.Errorf("got type %q, want %q", setup.Type, test.want)
			}
		})
	}
}

func TestNegotiateNoType(t *testing.T) {
	caps := DefaultCapabilities(FormatPWG)
	caps.Types = []string{"srgb_16"}
	_, err := Negotiate(nil, caps, DocInfo{NumPages: 1}, nil)
	if !errors.Is(err, ErrNoType) {
		t.Errorf("got error %v, want ErrNoType", err)
	}
}

func TestNegotiatePCLTypes(t *testing.T) {
	// PCL output cannot encode color, even when the capability list
	// offers a color type.
	caps := DefaultCapabilities(FormatPCL)
	caps.Types = []string{"srgb_8", "sgray_8"}
	setup, err := Negotiate(nil, caps, DocInfo{NumPages: 1, Color: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if setup.Type != "sgray_8" {
		t.Errorf("got type %q, want %q", setup.Type, "sgray_8")
	}

	caps.Types = []string{"srgb_8"}
	_, err = Negotiate(nil, caps, DocInfo{NumPages: 1, Color: true}, nil)
	if !errors.Is(err, ErrNoType) {
		t.Errorf("got error %v, want ErrNoType", err)
	}
}

func TestNegotiateResolution(t *testing.T) {
	cases := []struct {
		options string
		want    Resolution
	}{
		{"", Resolution{300, 300}},
		{"print-quality=3", Resolution{150, 150}},
		{"print-quality=4", Resolution{300, 300}},
		{"print-quality=5", Resolution{600, 600}},
		{"print-quality=17", Resolution{300, 300}},
		{"printer-resolution=600dpi", Resolution{600, 600}},
		{"printer-resolution=600dpi print-quality=3", Resolution{600, 600}},
		{"printer-resolution=1200dpi", Resolution{300, 300}},
		{"printer-resolution=banana", Resolution{300, 300}},
		{"print-color-mode=bi-level", Resolution{300, 300}},
	}
	for i, test := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			opt := ParseOptions(test.options, nil)
			caps := DefaultCapabilities(FormatPWG)
			caps.Resolutions = []Resolution{{150, 150}, {300, 300}, {600, 600}}

			setup, err := Negotiate(opt, caps, DocInfo{NumPages: 1}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if setup.Resolution != test.want {
				t.Errorf("got resolution %v, want %v", setup.Resolution, test.want)
			}
		})
	}
}

func TestNegotiateNoResolution(t *testing.T) {
	caps := DefaultCapabilities(FormatPWG)
	caps.Resolutions = nil
	_, err := Negotiate(nil, caps, DocInfo{NumPages: 1}, nil)
	if !errors.Is(err, ErrNoResolution) {
		t.Errorf("got error %v, want ErrNoResolution", err)
	}
}

func TestNegotiateMedia(t *testing.T) {
	cases := []struct {
		options    string
		want       MediaSize
		borderless bool
	}{
		{
			"",
			MediaSize{"na_letter_8.5x11in", 21590, 27940},
			false,
		},
		{
			"media=iso_a4_210x297mm",
			MediaSize{"iso_a4_210x297mm", 21000, 29700},
			false,
		},
		{
			"media=letter",
			MediaSize{"na_letter_8.5x11in", 21590, 27940},
			false,
		},
		{
			"media=photo",
			MediaSize{"na_index-4x6_4x6in", 10160, 15240},
			true,
		},
		{
			"media-col={media-size-name=iso_a5_148x210mm}",
			MediaSize{"iso_a5_148x210mm", 14800, 21000},
			false,
		},
		{
			"media-col={media-size={x-dimension=21590 y-dimension=27940}}",
			MediaSize{"na_letter_8.5x11in", 21590, 27940},
			false,
		},
		{
			"media-col={media-size={x-dimension=10000 y-dimension=15000}}",
			MediaSize{"custom_100x150mm", 10000, 15000},
			false,
		},
		{
			"media-col={media-size-name=na_letter_8.5x11in media-bottom-margin=0 media-left-margin=0 media-right-margin=0 media-top-margin=0}",
			MediaSize{"na_letter_8.5x11in", 21590, 27940},
			true,
		},
		{
			"media-col={media-bottom-margin=0 media-left-margin=0 media-right-margin=0 media-top-margin=0}",
			MediaSize{"na_letter_8.5x11in", 21590, 27940},
			true,
		},
		{
			"media-col={media-size-name=na_letter_8.5x11in media-bottom-margin=0}",
			MediaSize{"na_letter_8.5x11in", 21590, 27940},
			false,
		},
		{
			"media-default=iso_a4_210x297mm",
			MediaSize{"iso_a4_210x297mm", 21000, 29700},
			false,
		},
	}
	for i, test := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			opt := ParseOptions(test.options, nil)
			caps := DefaultCapabilities(FormatPWG)

			setup, err := Negotiate(opt, caps, DocInfo{NumPages: 1}, nil)
			if err != nil {
				t.Fatal(err)
			}

			wantMargin := defaultMargin
			if test.borderless {
				wantMargin = 0
			}
			want := Media{
				Size:       test.want,
				Margin:     wantMargin,
				Borderless: test.borderless,
			}
			if diff := cmp.Diff(want, setup.Media); diff != "" {
				t.Errorf("wrong media (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNegotiateBadMedia(t *testing.T) {
	cases := []string{
		"media=nosuch",
		"media=nosuch_x",
		"media-col={media-size-name=bogus}",
		"media-col={media-size={x-dimension=abc y-dimension=27940}}",
		"media-col={media-size={x-dimension=0 y-dimension=27940}}",
		"media-default=bogus",
	}
	for i, options := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			opt := ParseOptions(options, nil)
			caps := DefaultCapabilities(FormatPWG)
			_, err := Negotiate(opt, caps, DocInfo{NumPages: 1}, nil)
			if !errors.Is(err, ErrNoMedia) {
				t.Errorf("got error %v, want ErrNoMedia", err)
			}
		})
	}
}

func TestNegotiateDefaultMedia(t *testing.T) {
	caps := DefaultCapabilities(FormatPWG)
	caps.DefaultMedia = "iso_a4_210x297mm"
	setup, err := Negotiate(nil, caps, DocInfo{NumPages: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if setup.Media.Size.Name != "iso_a4_210x297mm" {
		t.Errorf("got media %q, want iso_a4_210x297mm", setup.Media.Size.Name)
	}
}

func TestNegotiateSides(t *testing.T) {
	cases := []struct {
		options    string
		numPages   int
		wantDuplex bool
		wantTumble bool
		wantPages  int
		wantPad    bool
	}{
		{"sides=two-sided-long-edge", 1, false, false, 1, false},
		{"sides=two-sided-long-edge", 4, true, false, 4, false},
		{"sides=two-sided-short-edge", 2, true, true, 2, false},
		{"sides-default=two-sided-long-edge", 2, true, false, 2, false},
		{"sides=one-sided sides-default=two-sided-long-edge", 2, false, false, 2, false},
		{"copies=2 sides=two-sided-long-edge", 3, true, false, 4, true},
		{"copies=1 sides=two-sided-long-edge", 3, true, false, 3, false},
		{"copies=2 sides=two-sided-long-edge", 4, true, false, 4, false},
		{"copies=2", 3, false, false, 3, false},
	}
	for i, test := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			opt := ParseOptions(test.options, nil)
			caps := DefaultCapabilities(FormatPWG)

			setup, err := Negotiate(opt, caps, DocInfo{NumPages: test.numPages}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if setup.Duplex != test.wantDuplex || setup.Tumble != test.wantTumble {
				t.Errorf("got duplex=%t tumble=%t, want duplex=%t tumble=%t",
					setup.Duplex, setup.Tumble, test.wantDuplex, test.wantTumble)
			}
			if setup.Pages != test.wantPages || setup.Pad != test.wantPad {
				t.Errorf("got pages=%d pad=%t, want pages=%d pad=%t",
					setup.Pages, setup.Pad, test.wantPages, test.wantPad)
			}
		})
	}
}

func TestNegotiateBadSides(t *testing.T) {
	opt := ParseOptions("sides=both", nil)
	caps := DefaultCapabilities(FormatPWG)
	_, err := Negotiate(opt, caps, DocInfo{NumPages: 2}, nil)
	if !errors.Is(err, ErrBadSides) {
		t.Errorf("got error %v, want ErrBadSides", err)
	}
}

func TestNegotiateCopies(t *testing.T) {
	cases := []struct {
		value string
		want  int // 0 = error
	}{
		{"1", 1},
		{"42", 42},
		{"9999", 9999},
		{"0", 0},
		{"10000", 0},
		{"-3", 0},
		{"abc", 0},
	}
	for _, test := range cases {
		t.Run(test.value, func(t *testing.T) {
			opt := Options{"copies": test.value}
			caps := DefaultCapabilities(FormatPWG)

			setup, err := Negotiate(opt, caps, DocInfo{NumPages: 1}, nil)
			if test.want == 0 {
				if !errors.Is(err, ErrBadCopies) {
					t.Errorf("got error %v, want ErrBadCopies", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if setup.Copies != test.want {
				t.Errorf("got %d copies, want %d", setup.Copies, test.want)
			}
		})
	}
}

func TestNegotiatePageRanges(t *testing.T) {
	cases := []struct {
		options   string
		wantFirst int
		wantLast  int
	}{
		{"", 1, 5},
		{"page-ranges=2-3", 2, 3},
		{"page-ranges=4-9", 4, 5},
		{"page-ranges=1-1", 1, 1},
		{"page-ranges=5-5", 5, 5},
	}
	for i, test := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			opt := ParseOptions(test.options, nil)
			caps := DefaultCapabilities(FormatPWG)

			setup, err := Negotiate(opt, caps, DocInfo{NumPages: 5}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if setup.FirstPage != test.wantFirst || setup.LastPage != test.wantLast {
				t.Errorf("got pages %d-%d, want %d-%d",
					setup.FirstPage, setup.LastPage, test.wantFirst, test.wantLast)
			}
			if want := test.wantLast - test.wantFirst + 1; setup.Pages != want {
				t.Errorf("got %d pages, want %d", setup.Pages, want)
			}
		})
	}
}

func TestNegotiateBadPageRanges(t *testing.T) {
	cases := []string{
		"page-ranges=6-9", // past the end of the document
		"page-ranges=3-2",
		"page-ranges=5",
		"page-ranges=0-2",
		"page-ranges=a-b",
		"page-ranges=-",
	}
	for i, options := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			opt := ParseOptions(options, nil)
			caps := DefaultCapabilities(FormatPWG)
			_, err := Negotiate(opt, caps, DocInfo{NumPages: 5}, nil)
			if !errors.Is(err, ErrBadPageRanges) {
				t.Errorf("got error %v, want ErrBadPageRanges", err)
			}
		})
	}
}

func TestNegotiateScaling(t *testing.T) {
	cases := []struct {
		options string
		image   bool
		want    string
	}{
		{"print-scaling=none", true, "none"},
		{"print-scaling=fill", false, "fill"},
		{"print-scaling=fit", true, "fit"},
		{"print-scaling=auto-fit", true, "fit"},
		{"print-scaling=banana", true, "none"},
		{"", false, "fit"},
		{"", true, "fit"},
		{"media=photo", false, "fit"},
		{"media=photo", true, "fill"},
		{"print-scaling=auto media=photo", true, "fill"},
		{"print-scaling-default=none", true, "none"},
	}
	for i, test := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			opt := ParseOptions(test.options, nil)
			caps := DefaultCapabilities(FormatPWG)
			doc := DocInfo{NumPages: 1, Image: test.image}

			setup, err := Negotiate(opt, caps, doc, nil)
			if err != nil {
				t.Fatal(err)
			}
			if setup.Scaling != test.want {
				t.Errorf("got scaling %q, want %q", setup.Scaling, test.want)
			}
		})
	}
}

func TestHeadersLetter(t *testing.T) {
	setup := &Setup{
		Type:       "sgray_8",
		Resolution: Resolution{X: 300, Y: 300},
		Media: Media{
			Size:   MediaSize{Name: "na_letter_8.5x11in", Width: 21590, Height: 27940},
			Margin: defaultMargin,
		},
		Copies:    2,
		Pages:     3,
		SheetBack: "normal",
	}
	front, back := setup.Headers()

	if front.Width != 2550 || front.Height != 3300 {
		t.Errorf("got %dx%d pixels, want 2550x3300", front.Width, front.Height)
	}
	if front.PageSize != [2]uint32{612, 792} {
		t.Errorf("got page size %v, want [612 792]", front.PageSize)
	}
	if front.BytesPerLine != 2550 {
		t.Errorf("got %d bytes per line, want 2550", front.BytesPerLine)
	}
	if front.HWResolution != [2]uint32{300, 300} {
		t.Errorf("got resolution %v, want [300 300]", front.HWResolution)
	}
	if front.TotalPageCount != 6 {
		t.Errorf("got total page count %d, want 6", front.TotalPageCount)
	}
	if front.NumCopies != 1 {
		t.Errorf("got %d copies, want 1", front.NumCopies)
	}
	if front.PageSizeName != "na_letter_8.5x11in" {
		t.Errorf("got page size name %q", front.PageSizeName)
	}

	// with sheet-back "normal" the back header is identical
	if diff := cmp.Diff(front, back); diff != "" {
		t.Errorf("back header differs (-front +back):\n%s", diff)
	}
}

// TestHeadersA4 pins the rounding of media dimensions: A4 must come
// out as 842pt high, since page setup decisions key on that value.
func TestHeadersA4(t *testing.T) {
	setup := &Setup{
		Type:       "sgray_8",
		Resolution: Resolution{X: 300, Y: 300},
		Media: Media{
			Size: MediaSize{Name: "iso_a4_210x297mm", Width: 21000, Height: 29700},
		},
		Copies:    1,
		Pages:     1,
		SheetBack: "normal",
	}
	front, _ := setup.Headers()

	if front.PageSize != [2]uint32{595, 842} {
		t.Errorf("got page size %v, want [595 842]", front.PageSize)
	}
	if front.Width != 2480 || front.Height != 3508 {
		t.Errorf("got %dx%d pixels, want 2480x3508", front.Width, front.Height)
	}
}

func TestHeadersBytesPerLine(t *testing.T) {
	cases := []struct {
		typ  string
		want uint32
	}{
		{"black_1", 13},
		{"sgray_1", 13},
		{"black_8", 100},
		{"sgray_8", 100},
		{"srgb_8", 300},
		{"adobe-rgb_8", 300},
		{"adobe-rgb_16", 600},
		{"cmyk_8", 400},
	}
	for _, test := range cases {
		t.Run(test.typ, func(t *testing.T) {
			setup := &Setup{
				Type:       test.typ,
				Resolution: Resolution{X: 100, Y: 100},
				Media: Media{
					Size: MediaSize{Name: "custom_25.4x25.4mm", Width: 2540, Height: 2540},
				},
				Copies:    1,
				Pages:     1,
				SheetBack: "normal",
			}
			front, _ := setup.Headers()
			if front.Width != 100 {
				t.Fatalf("got width %d, want 100", front.Width)
			}
			if front.BytesPerLine != test.want {
				t.Errorf("got %d bytes per line, want %d", front.BytesPerLine, test.want)
			}
		})
	}
}

func TestHeadersBackTransforms(t *testing.T) {
	cases := []struct {
		sheetBack string
		tumble    bool
		wantCross int32
		wantFeed  int32
	}{
		{"normal", false, 1, 1},
		{"normal", true, 1, 1},
		{"flipped", false, 1, -1},
		{"flipped", true, -1, 1},
		{"rotated", false, -1, -1},
		{"rotated", true, 1, 1},
		{"manual-tumble", false, 1, 1},
		{"manual-tumble", true, -1, -1},
	}
	for _, test := range cases {
		name := fmt.Sprintf("%s/tumble=%t", test.sheetBack, test.tumble)
		t.Run(name, func(t *testing.T) {
			setup := &Setup{
				Type:       "sgray_8",
				Resolution: Resolution{X: 300, Y: 300},
				Media: Media{
					Size: MediaSize{Name: "na_letter_8.5x11in", Width: 21590, Height: 27940},
				},
				Copies:    1,
				Pages:     2,
				Duplex:    true,
				Tumble:    test.tumble,
				SheetBack: test.sheetBack,
			}
			front, back := setup.Headers()

			if front.CrossFeedTransform != 1 || front.FeedTransform != 1 {
				t.Errorf("front transforms %d/%d, want 1/1",
					front.CrossFeedTransform, front.FeedTransform)
			}
			if back.CrossFeedTransform != test.wantCross || back.FeedTransform != test.wantFeed {
				t.Errorf("back transforms %d/%d, want %d/%d",
					back.CrossFeedTransform, back.FeedTransform,
					test.wantCross, test.wantFeed)
			}
		})
	}
}

func TestScreen(t *testing.T) {
	biLevel := &Setup{BiLevel: true}
	screen := biLevel.Screen()
	for _, xy := range [][2]int{{0, 0}, {17, 3}, {63, 63}, {64, 100}} {
		if got := screen.Threshold(xy[0], xy[1]); got != 127 {
			t.Errorf("bi-level threshold at %v is %d, want 127", xy, got)
		}
	}

	normal := &Setup{}
	screen = normal.Screen()
	distinct := make(map[uint8]bool)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			distinct[screen.Threshold(x, y)] = true
		}
	}
	if len(distinct) < 2 {
		t.Error("clustered screen has uniform thresholds")
	}
}

func TestSupportedTypes(t *testing.T) {
	want := []string{
		"adobe-rgb_16", "adobe-rgb_8", "black_1", "black_8",
		"cmyk_8", "sgray_1", "sgray_8", "srgb_8",
	}
	if diff := cmp.Diff(want, SupportedTypes()); diff != "" {
		t.Errorf("wrong type list (-want +got):\n%s", diff)
	}
}

func TestNegotiationError(t *testing.T) {
	opt := Options{"copies": "0"}
	caps := DefaultCapabilities(FormatPWG)
	_, err := Negotiate(opt, caps, DocInfo{NumPages: 1}, nil)

	var nerr *NegotiationError
	if !errors.As(err, &nerr) {
		t.Fatalf("got %T, want *NegotiationError", err)
	}
	if nerr.Option != "copies" || nerr.Value != "0" {
		t.Errorf("got option=%q value=%q", nerr.Option, nerr.Value)
	}
	if got, want := nerr.Error(), `copies="0": invalid copies value`; got != want {
		t.Errorf("got message %q, want %q", got, want)
	}
}
