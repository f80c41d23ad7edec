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
	"bytes"
	"encoding/binary"
	"errors"
)

// pwgSync is the synchronization word at the start of a PWG Raster
// stream.  The "2" identifies big-endian v2 (compressed) data.
var pwgSync = []byte("RaS2")

const pwgHeaderSize = 1796

// Field offsets in the PWG Raster page header.  Gaps between the
// listed offsets are reserved and written as zero.
const (
	pwgMediaClass           = 0 // always "PwgRaster"
	pwgMediaColor           = 64
	pwgMediaType            = 128
	pwgPrintContentOptimize = 192
	pwgCutMedia             = 268
	pwgDuplex               = 272
	pwgHWResolution         = 276
	pwgInsertSheet          = 300
	pwgJog                  = 304
	pwgLeadingEdge          = 308
	pwgMediaPosition        = 324
	pwgMediaWeightMetric    = 328
	pwgNumCopies            = 340
	pwgOrientation          = 344
	pwgPageSize             = 352
	pwgTumble               = 368
	pwgWidth                = 372
	pwgHeight               = 376
	pwgBitsPerColor         = 384
	pwgBitsPerPixel         = 388
	pwgBytesPerLine         = 392
	pwgColorOrder           = 396
	pwgColorSpace           = 400
	pwgNumColors            = 420
	pwgTotalPageCount       = 452
	pwgCrossFeedTransform   = 456
	pwgFeedTransform        = 460
	pwgImageBox             = 464
	pwgAlternatePrimary     = 480
	pwgPrintQuality         = 484
	pwgVendorIdentifier     = 508
	pwgVendorLength         = 512
	pwgVendorData           = 516
	pwgRenderingIntent      = 1668
	pwgPageSizeName         = 1732
)

func putPwgString(buf []byte, off int, s string) {
	// 64 byte field, zero padded, always terminated
	n := copy(buf[off:off+63], s)
	for i := off + n; i < off+64; i++ {
		buf[i] = 0
	}
}

func getPwgString(buf []byte, off int) string {
	field := buf[off : off+64]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

func putPwgBool(buf []byte, off int, b bool) {
	var v uint32
	if b {
		v = 1
	}
	binary.BigEndian.PutUint32(buf[off:], v)
}

func encodePWGHeader(h *PageHeader) []byte {
	buf := make([]byte, pwgHeaderSize)
	put := func(off int, v uint32) {
		binary.BigEndian.PutUint32(buf[off:], v)
	}

	putPwgString(buf, pwgMediaClass, "PwgRaster")
	putPwgString(buf, pwgMediaColor, h.MediaColor)
	putPwgString(buf, pwgMediaType, h.MediaType)
	putPwgString(buf, pwgPrintContentOptimize, h.PrintContentOptimize)
	put(pwgCutMedia, h.CutMedia)
	putPwgBool(buf, pwgDuplex, h.Duplex)
	put(pwgHWResolution, h.HWResolution[0])
	put(pwgHWResolution+4, h.HWResolution[1])
	putPwgBool(buf, pwgInsertSheet, h.InsertSheet)
	put(pwgJog, h.Jog)
	put(pwgLeadingEdge, h.LeadingEdge)
	put(pwgMediaPosition, h.MediaPosition)
	put(pwgMediaWeightMetric, h.MediaWeightMetric)
	put(pwgNumCopies, h.NumCopies)
	put(pwgOrientation, h.Orientation)
	put(pwgPageSize, h.PageSize[0])
	put(pwgPageSize+4, h.PageSize[1])
	putPwgBool(buf, pwgTumble, h.Tumble)
	put(pwgWidth, h.Width)
	put(pwgHeight, h.Height)
	put(pwgBitsPerColor, h.BitsPerColor)
	put(pwgBitsPerPixel, h.BitsPerPixel)
	put(pwgBytesPerLine, h.BytesPerLine)
	put(pwgColorOrder, h.ColorOrder)
	put(pwgColorSpace, uint32(h.ColorSpace))
	put(pwgNumColors, h.NumColors)
	put(pwgTotalPageCount, h.TotalPageCount)
	put(pwgCrossFeedTransform, uint32(h.CrossFeedTransform))
	put(pwgFeedTransform, uint32(h.FeedTransform))
	put(pwgImageBox, h.ImageBoxLeft)
	put(pwgImageBox+4, h.ImageBoxTop)
	put(pwgImageBox+8, h.ImageBoxRight)
	put(pwgImageBox+12, h.ImageBoxBottom)
	put(pwgAlternatePrimary, h.AlternatePrimary)
	put(pwgPrintQuality, h.PrintQuality)
	put(pwgVendorIdentifier, h.VendorIdentifier)
	put(pwgVendorLength, h.VendorLength)
	copy(buf[pwgVendorData:pwgVendorData+len(h.VendorData)], h.VendorData[:])
	putPwgString(buf, pwgRenderingIntent, h.RenderingIntent)
	putPwgString(buf, pwgPageSizeName, h.PageSizeName)

	return buf
}

func decodePWGHeader(buf []byte) (*PageHeader, error) {
	if len(buf) != pwgHeaderSize {
		return nil, errors.New("raster: wrong PWG header size")
	}
	if getPwgString(buf, pwgMediaClass) != "PwgRaster" {
		return nil, errors.New("raster: not a PWG Raster page header")
	}
	get := func(off int) uint32 {
		return binary.BigEndian.Uint32(buf[off:])
	}

	h := &PageHeader{
		MediaColor:           getPwgString(buf, pwgMediaColor),
		MediaType:            getPwgString(buf, pwgMediaType),
		PrintContentOptimize: getPwgString(buf, pwgPrintContentOptimize),
		CutMedia:             get(pwgCutMedia),
		Duplex:               get(pwgDuplex) != 0,
		HWResolution:         [2]uint32{get(pwgHWResolution), get(pwgHWResolution + 4)},
		InsertSheet:          get(pwgInsertSheet) != 0,
		Jog:                  get(pwgJog),
		LeadingEdge:          get(pwgLeadingEdge),
		MediaPosition:        get(pwgMediaPosition),
		MediaWeightMetric:    get(pwgMediaWeightMetric),
		NumCopies:            get(pwgNumCopies),
		Orientation:          get(pwgOrientation),
		PageSize:             [2]uint32{get(pwgPageSize), get(pwgPageSize + 4)},
		Tumble:               get(pwgTumble) != 0,
		Width:                get(pwgWidth),
		Height:               get(pwgHeight),
		BitsPerColor:         get(pwgBitsPerColor),
		BitsPerPixel:         get(pwgBitsPerPixel),
		BytesPerLine:         get(pwgBytesPerLine),
		ColorOrder:           get(pwgColorOrder),
		ColorSpace:           ColorSpace(get(pwgColorSpace)),
		NumColors:            get(pwgNumColors),
		TotalPageCount:       get(pwgTotalPageCount),
		CrossFeedTransform:   int32(get(pwgCrossFeedTransform)),
		FeedTransform:        int32(get(pwgFeedTransform)),
		ImageBoxLeft:         get(pwgImageBox),
		ImageBoxTop:          get(pwgImageBox + 4),
		ImageBoxRight:        get(pwgImageBox + 8),
		ImageBoxBottom:       get(pwgImageBox + 12),
		AlternatePrimary:     get(pwgAlternatePrimary),
		PrintQuality:         get(pwgPrintQuality),
		VendorIdentifier:     get(pwgVendorIdentifier),
		VendorLength:         get(pwgVendorLength),
		RenderingIntent:      getPwgString(buf, pwgRenderingIntent),
		PageSizeName:         getPwgString(buf, pwgPageSizeName),
	}
	copy(h.VendorData[:], buf[pwgVendorData:pwgVendorData+len(h.VendorData)])
	return h, nil
}
