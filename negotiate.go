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
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"seehuhn.de/go/printer/dither"
	"seehuhn.de/go/printer/raster"
)

// Negotiation failures.  Errors returned by [Negotiate] wrap one of
// these sentinel values.
var (
	ErrBadCopies     = errors.New("invalid copies value")
	ErrBadPageRanges = errors.New("invalid page-ranges value")
	ErrBadSides      = errors.New("invalid sides value")
	ErrNoMedia       = errors.New("unknown media size")
	ErrNoResolution  = errors.New("no supported resolution")
	ErrNoType        = errors.New("no supported raster type")
)

// A NegotiationError reports a job option which cannot be satisfied by
// the printer described by the capabilities.
type NegotiationError struct {
	Option string // option or printer attribute name
	Value  string // the offending value, if any
	Err    error
}

func (e *NegotiationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Option, e.Err)
	}
	return fmt.Sprintf("%s=%q: %s", e.Option, e.Value, e.Err)
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}

// Capabilities describes the output formats a printer can consume.
type Capabilities struct {
	// Format selects the output encoding.
	Format Format

	// Resolutions lists the supported resolutions, slowest first.
	// Print quality selects an entry from this list unless the job
	// requests an explicit resolution.
	Resolutions []Resolution

	// Types lists the supported color spaces and bit depths, using
	// PWG raster type names such as "sgray_8" or "srgb_8".
	Types []string

	// SheetBack describes how the printer flips the back sides of
	// sheets in duplex mode: "normal", "flipped", "rotated" or
	// "manual-tumble".
	SheetBack string

	// DefaultMedia is the media size name used when the job does not
	// select one.  If empty, US letter is used.
	DefaultMedia string
}

// DefaultCapabilities returns the capabilities assumed for a printer
// which does not advertise any: 300dpi, 8-bit grayscale, back sides
// not transformed.
func DefaultCapabilities(format Format) Capabilities {
	return Capabilities{
		Format:      format,
		Resolutions: []Resolution{{X: 300, Y: 300}},
		Types:       []string{"sgray_8"},
		SheetBack:   "normal",
	}
}

// DocInfo describes the input document to [Negotiate].
type DocInfo struct {
	// NumPages is the number of pages in the document.
	NumPages int

	// Color indicates that the document makes use of color.
	Color bool

	// Image indicates that the document is a raster image rather than
	// formatted pages.  Images may be scaled to completely fill
	// borderless media.
	Image bool
}

// IPP print-quality values.
const (
	qualityDraft  = 3
	qualityNormal = 4
	qualityHigh   = 5
)

// typeInfo describes the pixel layout for a PWG raster type name.
type typeInfo struct {
	bitsPerColor uint32
	bitsPerPixel uint32
	colorSpace   raster.ColorSpace
	numColors    uint32
}

var typeTags = map[string]typeInfo{
	"black_1":      {1, 1, raster.ColorSpaceBlack, 1},
	"black_8":      {8, 8, raster.ColorSpaceBlack, 1},
	"sgray_1":      {1, 1, raster.ColorSpacesGray, 1},
	"sgray_8":      {8, 8, raster.ColorSpacesGray, 1},
	"srgb_8":       {8, 24, raster.ColorSpacesRGB, 3},
	"adobe-rgb_8":  {8, 24, raster.ColorSpaceAdobeRGB, 3},
	"adobe-rgb_16": {16, 48, raster.ColorSpaceAdobeRGB, 3},
	"cmyk_8":       {8, 32, raster.ColorSpaceCMYK, 4},
}

// SupportedTypes returns the PWG raster type names understood by this
// package, in alphabetical order.
func SupportedTypes() []string {
	types := maps.Keys(typeTags)
	slices.Sort(types)
	return types
}

// A Setup is the complete output configuration for one print job,
// produced by [Negotiate].  The job loop treats the setup as
// read-only.
type Setup struct {
	Format     Format
	Type       string // PWG raster type name, e.g. "srgb_8"
	Resolution Resolution
	Media      Media

	Copies    int
	FirstPage int // first document page to print, 1-based
	LastPage  int // last document page to print, inclusive
	Pages     int // pages per copy, including any pad page
	Pad       bool

	Duplex    bool
	Tumble    bool
	SheetBack string

	// Scaling is the resolved print-scaling policy, one of "fill",
	// "fit" or "none".
	Scaling string

	Quality int  // IPP print-quality: 3=draft, 4=normal, 5=high
	BiLevel bool // threshold instead of dither for 1-bit output

	// MaxRaster limits the memory used for band buffers, in bytes.
	// Zero selects a 16MiB default.
	MaxRaster int
}

// Negotiate matches job options against printer capabilities and
// returns the output configuration for the job.
//
// Media is resolved from the "media" or "media-col" option, or falls
// back to the printer default.  The resolution is taken from
// "printer-resolution" if the value is supported, otherwise
// "print-quality" selects an entry from the supported list.  The
// raster type is chosen by color mode and quality.  Single-page
// documents are always printed one-sided.
//
// The log may be nil.
func Negotiate(opt Options, caps Capabilities, doc DocInfo, log *slog.Logger) (*Setup, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &Setup{
		Format:    caps.Format,
		Copies:    1,
		SheetBack: caps.SheetBack,
	}
	if s.SheetBack == "" {
		s.SheetBack = "normal"
	}

	if value, ok := opt["copies"]; ok {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 9999 {
			return nil, &NegotiationError{Option: "copies", Value: value, Err: ErrBadCopies}
		}
		s.Copies = n
	}

	media, err := negotiateMedia(opt, caps)
	if err != nil {
		return nil, err
	}
	s.Media = media

	if len(caps.Resolutions) == 0 {
		return nil, &NegotiationError{Option: "printer-resolution", Err: ErrNoResolution}
	}

	// An explicit supported resolution wins; otherwise print quality
	// selects an entry from the supported list.  Quality only
	// influences the raster type selection below when it was actually
	// used here.
	quality := qualityNormal
	res, haveRes := Resolution{}, false
	if value, ok := opt["printer-resolution"]; ok {
		if r, err := ParseResolution(value); err == nil && slices.Contains(caps.Resolutions, r) {
			res, haveRes = r, true
		} else {
			log.Info("ignoring unsupported printer-resolution", "value", value)
		}
	}
	if !haveRes {
		if value, ok := opt["print-quality"]; ok {
			quality, _ = strconv.Atoi(value)
			switch quality {
			case qualityDraft:
				res, haveRes = caps.Resolutions[0], true
			case qualityNormal:
				res, haveRes = caps.Resolutions[len(caps.Resolutions)/2], true
			case qualityHigh:
				res, haveRes = caps.Resolutions[len(caps.Resolutions)-1], true
			default:
				log.Info("ignoring unsupported print-quality", "value", value)
			}
		}
	}
	if !haveRes {
		res = caps.Resolutions[len(caps.Resolutions)/2]
	}
	s.Resolution = res

	// The color mode can veto color output, and bi-level modes also
	// force draft quality for the type selection below.
	color := doc.Color
	mode, haveMode := opt["print-color-mode"]
	if !haveMode {
		mode, haveMode = opt["print-color-mode-default"]
	}
	if haveMode {
		switch mode {
		case "monochrome", "process-monochrome", "auto-monochrome":
			color = false
		case "bi-level", "process-bi-level":
			color = false
			quality = qualityDraft
			s.BiLevel = true
		}
	}
	s.Quality = quality

	// PCL output is always monochrome; color types cannot be encoded.
	avail := caps.Types
	if s.Format == FormatPCL {
		avail = nil
		for _, t := range caps.Types {
			switch strings.ToLower(t) {
			case "black_1", "sgray_1", "black_8", "sgray_8":
				avail = append(avail, t)
			}
		}
	}

	var typ string
	if color {
		if quality == qualityHigh {
			typ = findType(avail, "adobe-rgb_16", "adobe-rgb_8")
		}
		if typ == "" {
			typ = findType(avail, "srgb_8", "cmyk_8")
		}
	}
	if typ == "" {
		if quality == qualityDraft {
			typ = findType(avail, "black_1", "sgray_1")
		} else {
			typ = findType(avail, "black_8", "sgray_8")
		}
	}
	if typ == "" {
		typ = findType(avail, "black_8", "sgray_8", "black_1", "sgray_1",
			"srgb_8", "adobe-rgb_8", "adobe-rgb_16", "cmyk_8")
	}
	if typ == "" {
		return nil, &NegotiationError{
			Option: "pwg-raster-document-type-supported",
			Value:  strings.Join(caps.Types, ","),
			Err:    ErrNoType,
		}
	}
	s.Type = typ

	first, last := 1, doc.NumPages
	if value, ok := opt["page-ranges"]; ok {
		f, l, err := parsePageRange(value)
		if err != nil {
			return nil, &NegotiationError{Option: "page-ranges", Value: value, Err: ErrBadPageRanges}
		}
		if f > doc.NumPages {
			return nil, &NegotiationError{Option: "page-ranges", Value: value, Err: ErrBadPageRanges}
		}
		first = f
		if l < last {
			last = l
		}
	}
	s.FirstPage = first
	s.LastPage = last
	pages := last - first + 1

	sides := "one-sided"
	if pages > 1 {
		if value, ok := opt["sides"]; ok {
			sides = value
		} else if value, ok := opt["sides-default"]; ok {
			sides = value
		}
	}
	switch sides {
	case "one-sided":
	case "two-sided-long-edge":
		s.Duplex = true
	case "two-sided-short-edge":
		s.Duplex = true
		s.Tumble = true
	default:
		return nil, &NegotiationError{Option: "sides", Value: sides, Err: ErrBadSides}
	}

	// When copies of a duplex job have an odd number of pages, a
	// blank page keeps each copy on its own sheets.
	if s.Copies > 1 && pages%2 == 1 && s.Duplex {
		s.Pad = true
		pages++
	}
	s.Pages = pages

	scaling, ok := opt["print-scaling"]
	if !ok {
		scaling = opt["print-scaling-default"]
	}
	switch scaling {
	case "fill":
		s.Scaling = "fill"
	case "fit", "auto-fit":
		s.Scaling = "fit"
	case "none":
		s.Scaling = "none"
	case "auto", "":
		if s.Media.Borderless && doc.Image {
			s.Scaling = "fill"
		} else {
			s.Scaling = "fit"
		}
	default:
		log.Info("ignoring unknown print-scaling", "value", scaling)
		s.Scaling = "none"
	}

	log.Info("negotiated job setup",
		"format", s.Format,
		"type", s.Type,
		"resolution", s.Resolution,
		"media", s.Media.Size.Name,
		"copies", s.Copies,
		"pages", s.Pages,
		"duplex", s.Duplex,
		"scaling", s.Scaling)

	return s, nil
}

// negotiateMedia resolves the media size and margins for a job.  The
// "media" option takes precedence over "media-col"; if neither yields
// a size, the printer default is used.  A "media-col" value with zero
// margins requests borderless printing even when the size itself comes
// from the default.
func negotiateMedia(opt Options, caps Capabilities) (Media, error) {
	var size MediaSize
	haveSize := false
	borderless := false

	if value, ok := opt["media"]; ok {
		var err error
		size, err = ParseMediaSize(value)
		if err != nil {
			return Media{}, &NegotiationError{Option: "media", Value: value, Err: ErrNoMedia}
		}
		haveSize = true
	} else if value, ok := opt["media-col"]; ok {
		col := ParseOptions(trimBraces(value), nil)

		if name, ok := col["media-size-name"]; ok {
			var err error
			size, err = ParseMediaSize(name)
			if err != nil {
				return Media{}, &NegotiationError{Option: "media-size-name", Value: name, Err: ErrNoMedia}
			}
			haveSize = true
		} else if sub, ok := col["media-size"]; ok {
			dims := ParseOptions(trimBraces(sub), nil)
			x, errX := strconv.Atoi(dims["x-dimension"])
			y, errY := strconv.Atoi(dims["y-dimension"])
			if errX != nil || errY != nil || x <= 0 || y <= 0 {
				return Media{}, &NegotiationError{Option: "media-size", Value: sub, Err: ErrNoMedia}
			}
			size = MediaForSize(x, y)
			haveSize = true
		}

		borderless = col["media-bottom-margin"] == "0" &&
			col["media-left-margin"] == "0" &&
			col["media-right-margin"] == "0" &&
			col["media-top-margin"] == "0"
	}

	if !haveSize {
		name := opt["media-default"]
		if name == "" {
			name = caps.DefaultMedia
		}
		if name == "" {
			name = "na_letter_8.5x11in"
		}
		var err error
		size, err = ParseMediaSize(name)
		if err != nil {
			return Media{}, &NegotiationError{Option: "media-default", Value: name, Err: ErrNoMedia}
		}
	}

	// Photo media is borderless by convention.
	if isBorderlessSize(size) {
		borderless = true
	}

	m := Media{Size: size, Borderless: borderless}
	if !borderless {
		m.Margin = defaultMargin
	}
	return m, nil
}

// findType returns the first of the wanted type names present in the
// supported list, comparing case-insensitively.
func findType(supported []string, want ...string) string {
	for _, w := range want {
		for _, have := range supported {
			if strings.EqualFold(have, w) {
				return w
			}
		}
	}
	return ""
}

// parsePageRange parses a "first-last" page range.  Both numbers must
// be present, and the range must not be empty.
func parsePageRange(s string) (first, last int, err error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("missing page range separator in %q", s)
	}
	first, errA := strconv.Atoi(a)
	last, errB := strconv.Atoi(b)
	if errA != nil || errB != nil || first < 1 || first > last {
		return 0, 0, fmt.Errorf("invalid page range %q", s)
	}
	return first, last, nil
}

// Headers returns the raster page headers for the front and back sides
// of sheets.  The two headers differ only in the cross-feed and feed
// transforms, which encode the coordinate flips the printer applies to
// back sides.
func (s *Setup) Headers() (front, back *raster.PageHeader) {
	info := typeTags[s.Type]

	h := &raster.PageHeader{
		Duplex:       s.Duplex,
		Tumble:       s.Tumble,
		HWResolution: [2]uint32{uint32(s.Resolution.X), uint32(s.Resolution.Y)},
		NumCopies:    1,
		PageSize: [2]uint32{
			uint32((s.Media.Size.Width*72 + 1270) / 2540),
			uint32((s.Media.Size.Height*72 + 1270) / 2540),
		},
		Width:              uint32((s.Media.Size.Width*s.Resolution.X + 1270) / 2540),
		Height:             uint32((s.Media.Size.Height*s.Resolution.Y + 1270) / 2540),
		BitsPerColor:       info.bitsPerColor,
		BitsPerPixel:       info.bitsPerPixel,
		ColorOrder:         raster.ChunkyPixels,
		ColorSpace:         info.colorSpace,
		NumColors:          info.numColors,
		TotalPageCount:     uint32(s.Copies * s.Pages),
		CrossFeedTransform: 1,
		FeedTransform:      1,
		PageSizeName:       s.Media.Size.Name,
	}
	h.BytesPerLine = (h.Width*h.BitsPerPixel + 7) / 8

	b := *h
	switch {
	case s.SheetBack == "flipped" && s.Tumble:
		b.CrossFeedTransform = -1
	case s.SheetBack == "flipped":
		b.FeedTransform = -1
	case s.SheetBack == "manual-tumble" && s.Tumble,
		s.SheetBack == "rotated" && !s.Tumble:
		b.CrossFeedTransform = -1
		b.FeedTransform = -1
	}
	return h, &b
}

// Screen returns the dither screen for 1-bit output.
func (s *Setup) Screen() *dither.Matrix {
	if s.BiLevel {
		return dither.Flat()
	}
	return dither.Ordered()
}
