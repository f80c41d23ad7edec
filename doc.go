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

// Package printer converts document pages into the byte streams consumed
// by printers.
//
// The package negotiates a concrete output configuration from IPP-style
// job options and printer capabilities, renders pages in bounded-memory
// bands through a [PageSource], and encodes the resulting scanlines as
// either a banded raster stream (PWG raster or Apple raster, see the
// raster subpackage) or an HP PCL byte stream (see the pcl subpackage).
//
// A typical conversion looks like this:
//
//	setup, err := printer.Negotiate(opt, caps, doc, log)
//	if err != nil {
//	    ...
//	}
//	backend, err := printer.NewBackend(w, setup)
//	if err != nil {
//	    ...
//	}
//	job := &printer.Job{Setup: setup, Log: log}
//	summary, err := job.Run(src, backend)
//
// Page rendering is delegated to the [PageSource] interface; the
// pagesource subpackage provides implementations for PDF files and for
// plain raster images.
package printer
